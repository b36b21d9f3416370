// Package report renders analysis views for people: markdown, a standalone
// HTML page and the terminal. All targets share one outline of each view so
// that they never disagree about what a category shows.
package report

import (
	"strings"

	"github.com/joelkehle/analysis-views/internal/analysis"
)

// AnalysisRenderer is implemented once per output target.
type AnalysisRenderer interface {
	RenderSection(v analysis.View) error
}

type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockField
	BlockText
	BlockList
	BlockCode
	BlockRule
)

// Block is one element of a rendered view. Level applies to headings,
// Label and Tone to fields, Items to lists.
type Block struct {
	Kind  BlockKind
	Level int
	Label string
	Text  string
	Items []string
	Tone  Tone
}

// Outline flattens a view into blocks. The view title is the level 2
// heading; sections start at level 3.
func Outline(v analysis.View) []Block {
	o := &outliner{}
	title := v.Title
	if title == "" && v.Result.Data != nil {
		title = v.Result.Data.Title()
	}
	o.heading(2, title)
	if v.Raw != nil || v.Result.Data == nil {
		o.raw(v.Raw)
		return o.blocks
	}
	_ = v.Result.Data.Accept(o)
	return o.blocks
}

// outliner implements analysis.Visitor. Empty values are dropped as they
// are added, so visitors can add fields unconditionally.
type outliner struct {
	blocks []Block
}

func (o *outliner) heading(level int, text string) {
	text = inline(text)
	if text == "" {
		return
	}
	o.blocks = append(o.blocks, Block{Kind: BlockHeading, Level: level, Text: text})
}

func (o *outliner) field(label, value string) {
	o.badge(label, value, ToneNone)
}

func (o *outliner) badge(label, value string, tone Tone) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	o.blocks = append(o.blocks, Block{Kind: BlockField, Label: label, Text: value, Tone: tone})
}

func (o *outliner) text(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	o.blocks = append(o.blocks, Block{Kind: BlockText, Text: s})
}

func (o *outliner) list(label string, items []string) {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return
	}
	o.blocks = append(o.blocks, Block{Kind: BlockList, Label: label, Items: kept})
}

func (o *outliner) code(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	o.blocks = append(o.blocks, Block{Kind: BlockCode, Text: s})
}

func (o *outliner) rule() {
	o.blocks = append(o.blocks, Block{Kind: BlockRule})
}

func (o *outliner) campos(cs []analysis.Campo) {
	for _, c := range cs {
		label := c.Label
		if label == "" {
			label = formatKey(c.ID)
		}
		if len(c.Itens) > 1 {
			o.list(label, c.Itens)
			continue
		}
		o.field(label, c.Valor)
	}
}

func (o *outliner) base(b *analysis.BaseDocumental) {
	if b == nil {
		return
	}
	var parts []string
	if b.Arquivo != "" {
		parts = append(parts, b.Arquivo)
	}
	if b.Pagina != "" {
		parts = append(parts, "p. "+b.Pagina)
	}
	if b.EventoNoSistema != "" {
		parts = append(parts, "evento "+b.EventoNoSistema)
	}
	o.field("Base documental", strings.Join(parts, ", "))
}

// inline collapses a value onto one line.
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
