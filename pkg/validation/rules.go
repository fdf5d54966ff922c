package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

type checkFunc func(v *Validator, attr string, value gjson.Result, params []string, kind string) (bool, error)

// implicit rules also run when the value is missing or empty
var implicit = map[string]bool{
	"required":  true,
	"confirmed": true,
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var checks = map[string]checkFunc{
	"required": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return !isEmpty(value), nil
	},
	"nullable": pass,
	"string": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return value.Type == gjson.String, nil
	},
	"numeric": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		_, ok := number(value)
		return ok, nil
	},
	"integer": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		switch value.Type {
		case gjson.Number:
			return value.Num == float64(int64(value.Num)), nil
		case gjson.String:
			_, err := cast.ToInt64E(strings.TrimSpace(value.Str))
			return err == nil && !strings.Contains(value.Str, "."), nil
		}
		return false, nil
	},
	"boolean": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		switch value.Type {
		case gjson.True, gjson.False:
			return true, nil
		case gjson.Number:
			return value.Num == 0 || value.Num == 1, nil
		case gjson.String:
			return value.Str == "0" || value.Str == "1", nil
		}
		return false, nil
	},
	"email": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return value.Type == gjson.String && emailPattern.MatchString(value.Str), nil
	},
	"url": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		if value.Type != gjson.String {
			return false, nil
		}
		u, err := url.ParseRequestURI(value.Str)
		return err == nil && u.Scheme != "" && u.Host != "", nil
	},
	"min": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		limit, err := param(p, 0)
		if err != nil {
			return false, err
		}
		return measure(value, kind) >= limit, nil
	},
	"max": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		limit, err := param(p, 0)
		if err != nil {
			return false, err
		}
		return measure(value, kind) <= limit, nil
	},
	"size": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		limit, err := param(p, 0)
		if err != nil {
			return false, err
		}
		return measure(value, kind) == limit, nil
	},
	"between": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		lo, err := param(p, 0)
		if err != nil {
			return false, err
		}
		hi, err := param(p, 1)
		if err != nil {
			return false, err
		}
		m := measure(value, kind)
		return m >= lo && m <= hi, nil
	},
	"in": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return contains(p, value), nil
	},
	"not_in": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return !contains(p, value), nil
	},
	"regex": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		re, err := compilePattern(p)
		if err != nil {
			return false, err
		}
		return re.MatchString(value.String()), nil
	},
	"alpha": charClass(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsMark(r) }),
	"alpha_num": charClass(func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
	}),
	"alpha_dash": charClass(func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r) || r == '-' || r == '_'
	}),
	"date": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		if value.Type != gjson.String {
			return false, nil
		}
		_, err := cast.ToTimeE(value.Str)
		return err == nil, nil
	},
	"array": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return value.IsArray() || value.IsObject(), nil
	},
	"json": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		return value.Type == gjson.String && gjson.Valid(value.Str), nil
	},
	"confirmed": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		other := v.lookup(attr + "_confirmation")
		if !value.Exists() && !other.Exists() {
			return true, nil
		}
		return value.Raw == other.Raw, nil
	},
	"same": func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		if len(p) == 0 {
			return false, fmt.Errorf("same requires a field")
		}
		return value.Raw == v.lookup(p[0]).Raw, nil
	},
}

func pass(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
	return true, nil
}

func charClass(allowed func(rune) bool) checkFunc {
	return func(v *Validator, attr string, value gjson.Result, p []string, kind string) (bool, error) {
		if value.Type != gjson.String {
			return false, nil
		}
		for _, r := range value.Str {
			if !allowed(r) {
				return false, nil
			}
		}
		return true, nil
	}
}

func number(value gjson.Result) (float64, bool) {
	switch value.Type {
	case gjson.Number:
		return value.Num, true
	case gjson.String:
		f, err := cast.ToFloat64E(strings.TrimSpace(value.Str))
		return f, err == nil
	}
	return 0, false
}

// sizeKind decides how min/max/size/between measure a value
func sizeKind(rules []string, value gjson.Result) string {
	for _, r := range rules {
		name, _, _ := strings.Cut(r, ":")
		if name == "numeric" || name == "integer" {
			return "numeric"
		}
	}
	if value.IsArray() {
		return "array"
	}
	if value.Type == gjson.Number {
		return "numeric"
	}
	return "string"
}

func measure(value gjson.Result, kind string) float64 {
	switch kind {
	case "numeric":
		f, _ := number(value)
		return f
	case "array":
		return float64(len(value.Array()))
	default:
		return float64(utf8.RuneCountInString(value.String()))
	}
}

func param(p []string, i int) (float64, error) {
	if i >= len(p) {
		return 0, fmt.Errorf("missing parameter %d", i+1)
	}
	return cast.ToFloat64E(strings.TrimSpace(p[i]))
}

func contains(options []string, value gjson.Result) bool {
	s := value.String()
	for _, o := range options {
		if strings.TrimSpace(o) == s {
			return true
		}
	}
	return false
}

// compilePattern accepts "/expr/" delimiters with an optional trailing "i"
func compilePattern(p []string) (*regexp.Regexp, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("regex requires a pattern")
	}
	pattern := p[0]
	if len(pattern) >= 2 && pattern[0] == '/' {
		end := strings.LastIndex(pattern, "/")
		if end > 0 {
			flags := pattern[end+1:]
			pattern = pattern[1:end]
			if strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
		}
	}
	return regexp.Compile(pattern)
}
