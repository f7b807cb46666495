package httputil

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/eci4ever/bizadmin/internal/domain"
)

var errInvalidBody = domain.Validation("invalid JSON body")

// DecodeJSON decodes the request body into v.
func DecodeJSON(c echo.Context, v interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// Fields is a JSON object body kept undecoded per key so handlers can tell
// an absent key from null and check value types themselves.
type Fields map[string]json.RawMessage

// DecodeFields decodes the request body as a JSON object. An empty body is
// an empty object.
func DecodeFields(c echo.Context) (Fields, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, errInvalidBody
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return Fields{}, nil
	}
	var f Fields
	if err := json.Unmarshal(body, &f); err != nil || f == nil {
		return nil, errInvalidBody
	}
	return f, nil
}

// Has reports whether key is present, null included.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// IsNull reports whether key is present with a null value.
func (f Fields) IsNull(key string) bool {
	raw, ok := f[key]
	return ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Truthy reports whether key holds a value that is not null, false, zero
// or the empty string.
func (f Fields) Truthy(key string) bool {
	raw, ok := f[key]
	if !ok {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// String returns the string at key. ok is false when the key is absent,
// null, or not a string.
func (f Fields) String(key string) (s string, ok bool) {
	raw, present := f[key]
	if !present {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil || f.IsNull(key) {
		return "", false
	}
	return s, true
}

// Number returns the JSON number at key. ok is false when the key is
// absent or holds anything but a number.
func (f Fields) Number(key string) (n float64, ok bool) {
	raw, present := f[key]
	if !present {
		return 0, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	n, ok = v.(float64)
	return n, ok
}

// Bool returns the boolean at key.
func (f Fields) Bool(key string) (b bool, ok bool) {
	raw, present := f[key]
	if !present {
		return false, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, false
	}
	b, ok = v.(bool)
	return b, ok
}
