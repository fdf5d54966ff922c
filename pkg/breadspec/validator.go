package breadspec

import (
	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/validation"
)

// Validator builds an unexecuted validator for input from layout's rules.
// Translatable fields are validated in the active locale, so their rules
// are keyed "column.<locale>" and their messages "column.<locale>.rule".
// Every rule gets a message entry; one with no text for the locale is "",
// which the validator reports with its built-in message.
func (c *Controller) Validator(layout *bread.Layout, input map[string]interface{}) *validation.Validator {
	rules := make(map[string][]string, len(layout.Formfields))
	messages := make(map[string]string)

	for _, field := range layout.Formfields {
		key := field.Column
		if layout.IsFormfieldTranslatable(field.Column) {
			key = field.Column + "." + c.env.Locale
		}

		fieldRules := make([]string, 0, len(field.Rules))
		for _, rule := range field.Rules {
			fieldRules = append(fieldRules, rule.Rule)
			messages[key+"."+rule.Name()] = rule.Message.Resolve(c.env.Locale, c.env.FallbackLocale)
		}
		rules[key] = fieldRules
	}

	return validation.Make(input, rules, messages)
}
