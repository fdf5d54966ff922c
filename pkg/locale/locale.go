// Package locale resolves the active locale for a request and reads or writes
// per-locale values stored as JSON objects.
package locale

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/text/language"
)

// Context carries the active and fallback locale through the pipeline
type Context struct {
	Locale   string
	Fallback string
}

// Text is a message that is either a plain string or a locale -> string map
type Text struct {
	Plain        string
	Translations map[string]string
}

// UnmarshalJSON accepts "text" or {"en": "text", "de": "..."}
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = Text{}
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("invalid translated message: %w", err)
		}
		*t = Text{Translations: m}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("message must be a string or an object: %w", err)
	}
	*t = Text{Plain: s}
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.Translations != nil {
		return json.Marshal(t.Translations)
	}
	return json.Marshal(t.Plain)
}

// UnmarshalYAML accepts the same two shapes as UnmarshalJSON
func (t *Text) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m map[string]string
	if err := unmarshal(&m); err == nil {
		*t = Text{Translations: m}
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return fmt.Errorf("message must be a string or a map: %w", err)
	}
	*t = Text{Plain: s}
	return nil
}

// IsTranslated reports whether the text is a per-locale map
func (t Text) IsTranslated() bool {
	return t.Translations != nil
}

// Resolve returns the plain string, or the locale entry, then the fallback
// entry, then "".
func (t Text) Resolve(locale, fallback string) string {
	if t.Translations == nil {
		return t.Plain
	}
	if v, ok := t.Translations[locale]; ok {
		return v
	}
	if v, ok := t.Translations[fallback]; ok {
		return v
	}
	return ""
}

// Resolve is Text.Resolve with the context's locales
func (c Context) Resolve(t Text) string {
	return t.Resolve(c.Locale, c.Fallback)
}

// Get reads the entry for locale from a stored translation blob, falling back
// to fallback. A blob that is not a JSON object is returned as-is.
func Get(blob, locale, fallback string) string {
	if !gjson.Valid(blob) {
		return blob
	}
	parsed := gjson.Parse(blob)
	if !parsed.IsObject() {
		return blob
	}
	if v := parsed.Get(gjson.Escape(locale)); v.Exists() {
		return v.String()
	}
	if v := parsed.Get(gjson.Escape(fallback)); v.Exists() {
		return v.String()
	}
	return ""
}

// Set writes value under locale into a translation blob. A blob that is empty
// or not a JSON object starts over as {}.
func Set(blob, locale, value string) (string, error) {
	if blob == "" || !gjson.Valid(blob) || !gjson.Parse(blob).IsObject() {
		blob = "{}"
	}
	out, err := sjson.Set(blob, escapePath(locale), value)
	if err != nil {
		return "", fmt.Errorf("failed to set locale %s: %w", locale, err)
	}
	return out, nil
}

// Decode parses a translation blob into a map. ok is false when blob is not
// a JSON object.
func Decode(blob string) (map[string]interface{}, bool) {
	if !gjson.Valid(blob) {
		return nil, false
	}
	parsed := gjson.Parse(blob)
	if !parsed.IsObject() {
		return nil, false
	}
	out, ok := parsed.Value().(map[string]interface{})
	return out, ok
}

func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`, ":", `\:`)
	return r.Replace(key)
}

// Negotiate picks the best available locale for an Accept-Language header.
// An empty or unmatched header returns def.
func Negotiate(header string, available []string, def string) string {
	if header == "" || len(available) == 0 {
		return def
	}
	tags := make([]language.Tag, 0, len(available))
	for _, a := range available {
		tags = append(tags, language.Make(a))
	}
	matcher := language.NewMatcher(tags)
	desired, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(desired) == 0 {
		return def
	}
	_, index, confidence := matcher.Match(desired...)
	if confidence == language.No {
		return def
	}
	return available[index]
}
