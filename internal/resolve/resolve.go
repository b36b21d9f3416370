// Package resolve locates the payload subtree of an analysis document whose
// root key drifted between generator versions.
package resolve

import (
	"strings"

	"github.com/tidwall/gjson"
)

// MaxSignatureDepth bounds how far FindArrayBySignature descends.
const MaxSignatureDepth = 5

type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierFuzzy
	TierSingleKey
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierFuzzy:
		return "fuzzy"
	case TierSingleKey:
		return "single-key"
	default:
		return "none"
	}
}

type Match struct {
	Value gjson.Result
	Key   string
	Tier  Tier
}

func (m Match) Found() bool { return m.Tier != TierNone }

// Resolve finds the subtree of v addressed by one of candidates. Exact keys
// win in candidate order; then the first actual key (document order) whose
// normalized form contains, or is contained by, a normalized candidate; then
// the value of a lone wrapper key.
func Resolve(v gjson.Result, candidates []string) Match {
	if !v.IsObject() {
		return Match{}
	}
	type entry struct {
		key string
		val gjson.Result
	}
	var entries []entry
	v.ForEach(func(k, val gjson.Result) bool {
		entries = append(entries, entry{key: k.Str, val: val})
		return true
	})

	for _, c := range candidates {
		for _, e := range entries {
			if e.key == c && e.val.Type != gjson.Null {
				return Match{Value: e.val, Key: e.key, Tier: TierExact}
			}
		}
	}

	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = normalizeKey(c)
	}
	for _, e := range entries {
		if !e.val.IsObject() && !e.val.IsArray() {
			continue
		}
		nk := normalizeKey(e.key)
		if nk == "" {
			continue
		}
		for _, nc := range normalized {
			if nc == "" {
				continue
			}
			if strings.Contains(nk, nc) || strings.Contains(nc, nk) {
				return Match{Value: e.val, Key: e.key, Tier: TierFuzzy}
			}
		}
	}

	if len(entries) == 1 && entries[0].val.IsObject() {
		return Match{Value: entries[0].val, Key: entries[0].key, Tier: TierSingleKey}
	}
	return Match{}
}

func normalizeKey(k string) string {
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "_", "")
	return strings.ReplaceAll(k, "-", "")
}

// FindArrayBySignature returns the first array, in depth-first document
// order, whose first element is an object matching at least half of the
// fields of some signature. Field names match case-insensitively when
// either contains the other.
func FindArrayBySignature(v gjson.Result, signatures [][]string) (gjson.Result, bool) {
	if !v.IsObject() && !v.IsArray() {
		return gjson.Result{}, false
	}
	return searchArray(v, signatures, 0)
}

func searchArray(cur gjson.Result, signatures [][]string, depth int) (gjson.Result, bool) {
	if depth > MaxSignatureDepth {
		return gjson.Result{}, false
	}
	if cur.IsArray() {
		items := cur.Array()
		if len(items) > 0 && items[0].IsObject() && matchesSignature(items[0], signatures) {
			return cur, true
		}
	}
	if !cur.IsObject() && !cur.IsArray() {
		return gjson.Result{}, false
	}
	var found gjson.Result
	ok := false
	cur.ForEach(func(_, child gjson.Result) bool {
		found, ok = searchArray(child, signatures, depth+1)
		return !ok
	})
	return found, ok
}

func matchesSignature(item gjson.Result, signatures [][]string) bool {
	var keys []string
	item.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, strings.ToLower(k.Str))
		return true
	})
	for _, sig := range signatures {
		if len(sig) == 0 {
			continue
		}
		need := (len(sig) + 1) / 2
		hits := 0
		for _, field := range sig {
			f := strings.ToLower(field)
			for _, k := range keys {
				if k != "" && (strings.Contains(k, f) || strings.Contains(f, k)) {
					hits++
					break
				}
			}
		}
		if hits >= need {
			return true
		}
	}
	return false
}
