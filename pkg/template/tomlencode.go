package template

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// encodeTOMLValue renders v as an inline TOML fragment (an inline table,
// array, or scalar), for the `toml_encode(...)` template function. It is
// deliberately not a general-purpose encoder: scenario templates only ever
// build small maps of scalars (e.g. a computed `env` table), so this covers
// exactly that shape rather than the whole TOML value space pongo2/go-toml
// would otherwise require a reflection-based encoder for.
func encodeTOMLValue(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return `""`, nil
	case string:
		return strconv.Quote(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case map[string]interface{}:
		return encodeInlineTable(t)
	case []interface{}:
		return encodeArray(t)
	case []string:
		generic := make([]interface{}, len(t))
		for i, s := range t {
			generic[i] = s
		}
		return encodeArray(generic)
	default:
		return "", fmt.Errorf("toml_encode: unsupported type %T", v)
	}
}

func encodeInlineTable(m map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{ ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		val, err := encodeTOMLValue(m[k])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s = %s", k, val)
	}
	b.WriteString(" }")
	return b.String(), nil
}

func encodeArray(items []interface{}) (string, error) {
	var b strings.Builder
	b.WriteString("[")
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		val, err := encodeTOMLValue(item)
		if err != nil {
			return "", err
		}
		b.WriteString(val)
	}
	b.WriteString("]")
	return b.String(), nil
}
