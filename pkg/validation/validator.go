// Package validation checks request data against rule strings such as
// "required|max:255". Attribute names may be dotted paths into nested data.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/bitechdev/BreadSpec/pkg/logger"
)

// Errors maps attribute names to their failure messages
type Errors map[string][]string

// First returns the first message for attribute, or ""
func (e Errors) First(attribute string) string {
	if msgs := e[attribute]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Error() string {
	attrs := make([]string, 0, len(e))
	for a := range e {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, strings.Join(e[a], " "))
	}
	return strings.Join(parts, " ")
}

// Validator holds data, rules and custom messages. Rules run on the first call
// to Fails, Passes or Errors.
type Validator struct {
	data     []byte
	rules    map[string][]string
	messages map[string]string
	errors   Errors
	once     sync.Once
}

// Make creates a validator. Rule lists may hold "a|b" strings, which are split.
// messages are keyed "attribute.rule" or "rule".
func Make(data map[string]interface{}, rules map[string][]string, messages map[string]string) *Validator {
	encoded, err := json.Marshal(data)
	if err != nil {
		logger.Warn("Validation data could not be encoded: %v", err)
		encoded = []byte("{}")
	}
	split := make(map[string][]string, len(rules))
	for attr, list := range rules {
		for _, r := range list {
			for _, part := range strings.Split(r, "|") {
				if part = strings.TrimSpace(part); part != "" {
					split[attr] = append(split[attr], part)
				}
			}
		}
		if _, ok := split[attr]; !ok {
			split[attr] = nil
		}
	}
	if messages == nil {
		messages = map[string]string{}
	}
	return &Validator{data: encoded, rules: split, messages: messages}
}

// Rules returns the rules per attribute
func (v *Validator) Rules() map[string][]string {
	return v.rules
}

// Messages returns the custom messages
func (v *Validator) Messages() map[string]string {
	return v.messages
}

func (v *Validator) Fails() bool {
	return len(v.Errors()) > 0
}

func (v *Validator) Passes() bool {
	return !v.Fails()
}

// Errors runs the rules once and returns the failures
func (v *Validator) Errors() Errors {
	v.once.Do(v.run)
	return v.errors
}

func (v *Validator) run() {
	v.errors = Errors{}
	attrs := make([]string, 0, len(v.rules))
	for a := range v.rules {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		rules := v.rules[attr]
		value := v.lookup(attr)
		kind := sizeKind(rules, value)
		for _, raw := range rules {
			name, param, _ := strings.Cut(raw, ":")
			if !implicit[name] && isEmpty(value) {
				continue
			}
			check, ok := checks[name]
			if !ok {
				logger.Warn("Validation rule '%s' on %s is not supported", name, attr)
				continue
			}
			passed, err := check(v, attr, value, params(name, param), kind)
			if err != nil {
				logger.Warn("Validation rule '%s' on %s: %v", raw, attr, err)
				passed = false
			}
			if !passed {
				v.errors[attr] = append(v.errors[attr], v.message(attr, name, param, kind))
			}
		}
	}
}

func (v *Validator) lookup(attr string) gjson.Result {
	return gjson.GetBytes(v.data, escapeWildcards(attr))
}

// message resolves "attribute.rule", then "rule", then the built-in text.
// Empty custom messages count as unset.
func (v *Validator) message(attr, rule, param, kind string) string {
	text := v.messages[attr+"."+rule]
	if text == "" {
		text = v.messages[rule]
	}
	if text == "" {
		text = defaultMessage(rule, kind)
	}
	return replacePlaceholders(text, attr, rule, params(rule, param))
}

func params(rule, param string) []string {
	if param == "" {
		return nil
	}
	if rule == "regex" || rule == "not_regex" {
		return []string{param}
	}
	return strings.Split(param, ",")
}

func isEmpty(value gjson.Result) bool {
	switch {
	case !value.Exists(), value.Type == gjson.Null:
		return true
	case value.Type == gjson.String:
		return strings.TrimSpace(value.Str) == ""
	case value.IsArray():
		return len(value.Array()) == 0
	}
	return false
}

func escapeWildcards(path string) string {
	return strings.NewReplacer("*", `\*`, "?", `\?`, "#", `\#`, "@", `\@`, "|", `\|`).Replace(path)
}

func replacePlaceholders(text, attr, rule string, p []string) string {
	name := strings.ReplaceAll(attr, "_", " ")
	pairs := []string{":attribute", name}
	switch rule {
	case "min":
		pairs = append(pairs, ":min", first(p))
	case "max":
		pairs = append(pairs, ":max", first(p))
	case "size":
		pairs = append(pairs, ":size", first(p))
	case "between":
		pairs = append(pairs, ":min", first(p))
		if len(p) > 1 {
			pairs = append(pairs, ":max", p[1])
		}
	case "in", "not_in":
		pairs = append(pairs, ":values", strings.Join(p, ", "))
	case "same":
		pairs = append(pairs, ":other", strings.ReplaceAll(first(p), "_", " "))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func first(p []string) string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

func defaultMessage(rule, kind string) string {
	if m, ok := sizedMessages[rule]; ok {
		if text, ok := m[kind]; ok {
			return text
		}
		return m["string"]
	}
	if text, ok := defaultMessages[rule]; ok {
		return text
	}
	return fmt.Sprintf("The :attribute field failed the %s rule.", rule)
}

var defaultMessages = map[string]string{
	"required":   "The :attribute field is required.",
	"string":     "The :attribute field must be a string.",
	"numeric":    "The :attribute field must be a number.",
	"integer":    "The :attribute field must be an integer.",
	"boolean":    "The :attribute field must be true or false.",
	"email":      "The :attribute field must be a valid email address.",
	"url":        "The :attribute field must be a valid URL.",
	"in":         "The selected :attribute is invalid.",
	"not_in":     "The selected :attribute is invalid.",
	"regex":      "The :attribute field format is invalid.",
	"alpha":      "The :attribute field must only contain letters.",
	"alpha_num":  "The :attribute field must only contain letters and numbers.",
	"alpha_dash": "The :attribute field must only contain letters, numbers, dashes, and underscores.",
	"date":       "The :attribute field must be a valid date.",
	"array":      "The :attribute field must be an array.",
	"json":       "The :attribute field must be a valid JSON string.",
	"confirmed":  "The :attribute field confirmation does not match.",
	"same":       "The :attribute field must match :other.",
}

var sizedMessages = map[string]map[string]string{
	"min": {
		"numeric": "The :attribute field must be at least :min.",
		"string":  "The :attribute field must be at least :min characters.",
		"array":   "The :attribute field must have at least :min items.",
	},
	"max": {
		"numeric": "The :attribute field must not be greater than :max.",
		"string":  "The :attribute field must not be greater than :max characters.",
		"array":   "The :attribute field must not have more than :max items.",
	},
	"between": {
		"numeric": "The :attribute field must be between :min and :max.",
		"string":  "The :attribute field must be between :min and :max characters.",
		"array":   "The :attribute field must have between :min and :max items.",
	},
	"size": {
		"numeric": "The :attribute field must be :size.",
		"string":  "The :attribute field must be :size characters.",
		"array":   "The :attribute field must contain :size items.",
	},
}
