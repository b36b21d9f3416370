package report

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/lenientjson"
	"github.com/joelkehle/analysis-views/internal/safeval"
	"github.com/tidwall/gjson"
)

const maxHeadingLevel = 4

// raw outlines content no category could structure: parsed JSON becomes a
// labelled tree, anything else is kept as text.
func (o *outliner) raw(r *analysis.Raw) {
	if r == nil || r.Empty {
		o.text("Conteúdo não disponível.")
		return
	}
	if !r.Parsed {
		o.text(lenientjson.StripFences(r.Content))
		return
	}
	before := len(o.blocks)
	doc := gjson.Parse(r.Pretty)
	if r.Pretty == "" {
		doc = lenientjson.Extract(r.Content).Value
	}
	o.tree(doc, 3)
	if len(o.blocks) == before {
		o.code(lenientjson.Prettify(doc.Raw))
	}
}

func (o *outliner) tree(v gjson.Result, level int) {
	if level > maxHeadingLevel {
		level = maxHeadingLevel
	}
	switch {
	case v.IsObject():
		v.ForEach(func(k, val gjson.Result) bool {
			if isEmptyValue(val) {
				return true
			}
			label := formatKey(k.Str)
			switch {
			case val.IsObject():
				o.heading(level, label)
				o.tree(val, level+1)
			case val.IsArray():
				o.array(label, val, level)
			default:
				o.field(label, safeval.ToString(val))
			}
			return true
		})
	case v.IsArray():
		o.array("", v, level)
	}
}

func (o *outliner) array(label string, v gjson.Result, level int) {
	items := v.Array()
	hasObjects := false
	for _, it := range items {
		if it.IsObject() {
			hasObjects = true
			break
		}
	}
	if !hasObjects {
		var texts []string
		for _, it := range items {
			texts = append(texts, safeval.ToString(it))
		}
		o.list(label, texts)
		return
	}
	o.heading(level, label)
	for i, it := range items {
		o.heading(min(level+1, maxHeadingLevel), "Item "+strconv.Itoa(i+1))
		if it.IsObject() {
			o.tree(it, level+2)
		} else {
			o.text(safeval.ToString(it))
		}
	}
}

func isEmptyValue(v gjson.Result) bool {
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return true
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str) == ""
	case v.IsArray():
		return len(v.Array()) == 0
	case v.IsObject():
		return len(safeval.Keys(v)) == 0
	}
	return false
}

// formatKey turns snake_case and camelCase keys into capitalised words:
// "dataFinal_prazo" becomes "Data Final Prazo".
func formatKey(key string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
