package format

import (
	"errors"
	"io"

	"github.com/BurntSushi/toml"
)

// WriteTOML writes v as a TOML document. v must encode to a JSON object.
func WriteTOML(w io.Writer, v any) error {
	x, err := viaJSON(v)
	if err != nil {
		return err
	}
	m, ok := x.(map[string]any)
	if !ok {
		return errors.New("toml: top-level value must be an object")
	}
	return toml.NewEncoder(w).Encode(intsFromFloats(m))
}

// intsFromFloats turns JSON numbers without a fraction back into integers so
// counts don't print as 3.0.
func intsFromFloats(v any) any {
	switch t := v.(type) {
	case float64:
		if float64(int64(t)) == t {
			return int64(t)
		}
		return t
	case []any:
		for i := range t {
			t[i] = intsFromFloats(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = intsFromFloats(t[k])
		}
		return t
	default:
		return v
	}
}
