package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredAndCustomMessages(t *testing.T) {
	v := Make(
		map[string]interface{}{"title": "", "bio": map[string]interface{}{"en": ""}},
		map[string][]string{"title": {"required"}, "bio.en": {"required"}},
		map[string]string{"bio.en.required": "English bio please"},
	)
	assert.True(t, v.Fails())
	errs := v.Errors()
	assert.Equal(t, "The title field is required.", errs.First("title"))
	assert.Equal(t, "English bio please", errs.First("bio.en"))
	assert.Equal(t, "", errs.First("missing"))
}

func TestNestedLocaleValuesPass(t *testing.T) {
	v := Make(
		map[string]interface{}{"bio": map[string]interface{}{"en": "Hello", "de": ""}},
		map[string][]string{"bio.en": {"required", "max:10"}},
		nil,
	)
	assert.True(t, v.Passes())
}

func TestOptionalRulesSkipEmptyValues(t *testing.T) {
	v := Make(
		map[string]interface{}{"email": "", "age": nil},
		map[string][]string{"email": {"email"}, "age": {"nullable", "integer"}, "missing": {"numeric"}},
		nil,
	)
	assert.True(t, v.Passes())
}

func TestSizeRules(t *testing.T) {
	v := Make(
		map[string]interface{}{
			"title": "héllo",
			"views": "12",
			"tags":  []interface{}{"a", "b", "c"},
			"score": 7,
		},
		map[string][]string{
			"title": {"string|min:5|max:5|size:5"},
			"views": {"numeric", "between:10,20"},
			"tags":  {"array", "max:2"},
			"score": {"min:8"},
		},
		map[string]string{"max": "Too many: :max"},
	)
	errs := v.Errors()
	assert.NotContains(t, errs, "title")
	assert.NotContains(t, errs, "views")
	assert.Equal(t, []string{"Too many: 2"}, errs["tags"])
	assert.Equal(t, []string{"The score field must be at least 8."}, errs["score"])
}

func TestTypeRules(t *testing.T) {
	data := map[string]interface{}{
		"email":      "a@b.co",
		"bad_email":  "nope",
		"site":       "https://example.com/x",
		"bad_site":   "example",
		"flag":       "1",
		"bad_flag":   "yes",
		"count":      "12",
		"bad_count":  "1.5",
		"slug":       "my-slug_1",
		"bad_slug":   "my slug",
		"name":       "Émile",
		"bad_name":   "Emile2",
		"born":       "2024-02-29",
		"bad_born":   "yesterday-ish",
		"payload":    `{"a":1}`,
		"bad_json":   `{a:1}`,
		"status":     "draft",
		"bad_status": "gone",
		"code":       "ABC",
		"bad_code":   "abc",
	}
	rules := map[string][]string{
		"email": {"email"}, "bad_email": {"email"},
		"site": {"url"}, "bad_site": {"url"},
		"flag": {"boolean"}, "bad_flag": {"boolean"},
		"count": {"integer"}, "bad_count": {"integer"},
		"slug": {"alpha_dash"}, "bad_slug": {"alpha_dash"},
		"name": {"alpha"}, "bad_name": {"alpha"},
		"born": {"date"}, "bad_born": {"date"},
		"payload": {"json"}, "bad_json": {"json"},
		"status": {"in:draft,live"}, "bad_status": {"in:draft,live"},
		"code": {"regex:/^[A-Z]+$/"}, "bad_code": {"regex:/^[A-Z]+$/"},
	}
	errs := Make(data, rules, nil).Errors()

	for attr := range rules {
		if len(attr) > 4 && attr[:4] == "bad_" {
			assert.Contains(t, errs, attr)
		} else {
			assert.NotContains(t, errs, attr)
		}
	}
	assert.Equal(t, "The selected bad status is invalid.", errs.First("bad_status"))
}

func TestConfirmedAndSame(t *testing.T) {
	v := Make(
		map[string]interface{}{
			"password":              "secret",
			"password_confirmation": "secret",
			"email":                 "a@b.co",
			"email_again":           "x@b.co",
		},
		map[string][]string{"password": {"confirmed"}, "email": {"same:email_again"}},
		nil,
	)
	errs := v.Errors()
	assert.NotContains(t, errs, "password")
	assert.Equal(t, "The email field must match email again.", errs.First("email"))

	v = Make(map[string]interface{}{"password": "secret"}, map[string][]string{"password": {"confirmed"}}, nil)
	assert.True(t, v.Fails())
}

func TestUnknownRulesAreSkipped(t *testing.T) {
	v := Make(map[string]interface{}{"a": "x"}, map[string][]string{"a": {"sometimes_maybe"}}, nil)
	assert.True(t, v.Passes())
	assert.Equal(t, []string{"sometimes_maybe"}, v.Rules()["a"])
}

func TestErrorsError(t *testing.T) {
	errs := Errors{"b": {"B failed."}, "a": {"A failed.", "A again."}}
	assert.Equal(t, "A failed. A again. B failed.", errs.Error())
}

func TestEmptyCustomMessageFallsBack(t *testing.T) {
	v := Make(
		map[string]interface{}{"title": ""},
		map[string][]string{"title": {"required"}},
		map[string]string{"title.required": "", "required": ""},
	)
	assert.True(t, v.Fails())
	assert.Equal(t, "The title field is required.", v.Errors().First("title"))
}
