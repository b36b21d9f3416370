// Package safeval coerces untyped JSON values into display strings without
// ever failing, whatever type the upstream payload actually used.
package safeval

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Probe order for ExtractString on objects.
var stringProbeKeys = []string{"status", "nome", "valor", "texto", "descricao"}

// ToString renders any JSON value as text. Missing and null values become
// "", arrays are comma-joined and objects fall back to compact JSON unless
// they carry an "arquivo" reference.
func ToString(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number:
		return formatNumber(v)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.JSON:
		if v.IsArray() {
			items := v.Array()
			parts := make([]string, 0, len(items))
			for _, item := range items {
				parts = append(parts, ToString(item))
			}
			return strings.Join(parts, ", ")
		}
		if f := Field(v, "arquivo"); f.Type == gjson.String && f.Str != "" {
			return f.Str
		}
		return string(pretty.Ugly([]byte(v.Raw)))
	}
	return ""
}

// ExtractString is ToString with a preference for the well-known text fields
// of an object.
func ExtractString(v gjson.Result) string {
	if !v.IsObject() {
		return ToString(v)
	}
	for _, key := range stringProbeKeys {
		f := Field(v, key)
		if (f.Type == gjson.String && f.Str != "") || f.Type == gjson.Number {
			return ToString(f)
		}
	}
	first := ""
	v.ForEach(func(_, val gjson.Result) bool {
		if val.Type == gjson.String && val.Str != "" {
			first = val.Str
			return false
		}
		return true
	})
	return first
}

func IsNonEmptyArray(v gjson.Result) bool {
	return v.IsArray() && len(v.Array()) > 0
}

// EnsureArray returns the elements of an array, a single-element slice for
// any other present value, and nil for missing or null values.
func EnsureArray(v gjson.Result) []gjson.Result {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return nil
	case v.IsArray():
		return v.Array()
	default:
		return []gjson.Result{v}
	}
}

// Includes is a case-insensitive substring test. An empty haystack never
// matches.
func Includes(s, search string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(search))
}

// Field looks up key on an object without interpreting gjson path syntax.
func Field(v gjson.Result, key string) gjson.Result {
	var out gjson.Result
	if !v.IsObject() {
		return out
	}
	v.ForEach(func(k, val gjson.Result) bool {
		if k.Str == key {
			out = val
			return false
		}
		return true
	})
	return out
}

// Path follows a chain of object keys. An integer segment indexes an array.
func Path(v gjson.Result, keys ...string) gjson.Result {
	cur := v
	for _, key := range keys {
		if cur.IsArray() {
			idx, err := strconv.Atoi(key)
			if err != nil {
				return gjson.Result{}
			}
			items := cur.Array()
			if idx < 0 || idx >= len(items) {
				return gjson.Result{}
			}
			cur = items[idx]
			continue
		}
		cur = Field(cur, key)
		if !cur.Exists() {
			return cur
		}
	}
	return cur
}

// Truthy reports whether v holds a usable value: present, not null, not
// false, not zero and not an empty string.
func Truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		return true
	}
	return false
}

// Coalesce returns the first truthy value.
func Coalesce(vals ...gjson.Result) gjson.Result {
	for _, v := range vals {
		if Truthy(v) {
			return v
		}
	}
	return gjson.Result{}
}

// Text is ToString over the first truthy value.
func Text(vals ...gjson.Result) string {
	return ToString(Coalesce(vals...))
}

// Keys lists the keys of an object in document order.
func Keys(v gjson.Result) []string {
	if !v.IsObject() {
		return nil
	}
	var keys []string
	v.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.Str)
		return true
	})
	return keys
}

func formatNumber(v gjson.Result) string {
	if v.Raw != "" && !strings.ContainsAny(v.Raw, ".eE") {
		return v.Raw
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}
