// Package lenientjson recovers JSON documents from model output that may be
// wrapped in markdown fences, prefixed with chatter, or cut off mid-stream.
package lenientjson

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type Tier int

const (
	TierNone Tier = iota
	TierStrict
	TierAggressive
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierAggressive:
		return "aggressive"
	default:
		return "none"
	}
}

// Result is the outcome of Extract. Value is only meaningful when OK is true.
type Result struct {
	Value gjson.Result
	OK    bool
	Tier  Tier
}

// Keys returns the top-level keys of an object document in document order.
func (r Result) Keys() []string {
	if !r.OK || !r.Value.IsObject() {
		return nil
	}
	var keys []string
	r.Value.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	return keys
}

// Extract parses raw as JSON, first strictly after fence removal and then
// after the aggressive cleanup pass. It never panics.
func Extract(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{}
	}
	s := StripFences(raw)
	if s != "" && gjson.Valid(s) {
		v := gjson.Parse(s)
		if v.Type != gjson.String {
			return Result{Value: v, OK: true, Tier: TierStrict}
		}
		// A document serialized twice arrives as a JSON string.
		if inner := StripFences(v.String()); strings.HasPrefix(inner, "{") || strings.HasPrefix(inner, "[") {
			if gjson.Valid(inner) {
				return Result{Value: gjson.Parse(inner), OK: true, Tier: TierAggressive}
			}
		}
		return Result{Value: v, OK: true, Tier: TierStrict}
	}
	cleaned := aggressiveClean(raw)
	if cleaned != "" && gjson.Valid(cleaned) {
		return Result{Value: gjson.Parse(cleaned), OK: true, Tier: TierAggressive}
	}
	return Result{}
}

// StripFences removes one leading ```json (or bare ```) marker and one
// trailing ``` marker. Fences elsewhere in the text are left alone.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// Prettify returns an indented rendering of raw when it parses, otherwise
// the trimmed text unchanged.
func Prettify(raw string) string {
	res := Extract(raw)
	if !res.OK {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(string(pretty.Pretty([]byte(res.Value.Raw))))
}
