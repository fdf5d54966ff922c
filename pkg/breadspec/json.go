package breadspec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/bitechdev/BreadSpec/pkg/common"
)

// JSON error codes, numbered like PHP's json_last_error
const (
	JSONErrorDepth           = 1
	JSONErrorControlChar     = 3
	JSONErrorSyntax          = 4
	JSONErrorUTF8            = 5
	JSONErrorUnsupportedType = 8
)

// maxJSONDepth is the deepest nesting GetJSON accepts
const maxJSONDepth = 512

// JSONInvalidError reports request data that is not a JSON object
type JSONInvalidError struct {
	Data string
	Code int
	Err  error
}

func (e *JSONInvalidError) Error() string {
	return fmt.Sprintf("Unable to parse request data: %d", e.Code)
}

func (e *JSONInvalidError) Unwrap() error {
	return e.Err
}

// GetJSON decodes the JSON text sent under key ("data" when empty).
// The value is looked up in the query string, then in a JSON body, then in a
// form body; a missing value reads as "{}".
func (c *Controller) GetJSON(r common.Request, key string) (map[string]interface{}, error) {
	if key == "" {
		key = "data"
	}
	raw, ok := requestValue(r, key)
	if !ok {
		raw = "{}"
	}
	return DecodeJSON(raw)
}

func requestValue(r common.Request, key string) (string, bool) {
	inQuery := false
	if req := r.UnderlyingRequest(); req != nil {
		_, inQuery = req.URL.Query()[key]
	}
	if !inQuery && strings.HasPrefix(r.Header("Content-Type"), "application/json") {
		if body, err := r.Body(); err == nil && gjson.ValidBytes(body) {
			if v := gjson.GetBytes(body, gjson.Escape(key)); v.Exists() {
				if v.Type == gjson.String {
					return v.Str, true
				}
				return v.Raw, true
			}
		}
		return "", false
	}
	return r.FormValue(key)
}

// DecodeJSON decodes raw into a map. null gives an empty map and a top-level
// array is keyed by index; any other scalar is an unsupported type.
func DecodeJSON(raw string) (map[string]interface{}, error) {
	if !utf8.ValidString(raw) {
		return nil, &JSONInvalidError{Data: raw, Code: JSONErrorUTF8}
	}
	if jsonDepth(raw) > maxJSONDepth {
		return nil, &JSONInvalidError{Data: raw, Code: JSONErrorDepth}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		code := JSONErrorSyntax
		if strings.Contains(err.Error(), "in string literal") {
			code = JSONErrorControlChar
		}
		return nil, &JSONInvalidError{Data: raw, Code: code, Err: err}
	}

	switch v := decoded.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		out := make(map[string]interface{}, len(v))
		for i, item := range v {
			out[strconv.Itoa(i)] = item
		}
		return out, nil
	default:
		return nil, &JSONInvalidError{Data: raw, Code: JSONErrorUnsupportedType,
			Err: fmt.Errorf("expected an object, got %T", v)}
	}
}

// jsonDepth returns the deepest array/object nesting of raw, ignoring strings
func jsonDepth(raw string) int {
	depth, deepest := 0, 0
	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > deepest {
				deepest = depth
			}
		case '}', ']':
			depth--
		}
	}
	return deepest
}
