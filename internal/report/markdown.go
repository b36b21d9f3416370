package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/joelkehle/analysis-views/internal/analysis"
)

var toneMarkers = map[Tone]string{
	ToneGray:  "⚪",
	ToneGreen: "🟢",
	ToneBlue:  "🔵",
	ToneAmber: "🟠",
	ToneRed:   "🔴",
}

// Markdown accumulates rendered sections as GitHub-flavoured markdown.
type Markdown struct {
	b strings.Builder
}

func NewMarkdown() *Markdown {
	return &Markdown{}
}

func (m *Markdown) RenderSection(v analysis.View) error {
	writeBlocks(&m.b, Outline(v))
	return nil
}

func (m *Markdown) String() string {
	return m.b.String()
}

func (m *Markdown) Reset() {
	m.b.Reset()
}

// RenderAll renders views in order, stopping at the first error.
func RenderAll(r AnalysisRenderer, views []analysis.View) error {
	for _, v := range views {
		if err := r.RenderSection(v); err != nil {
			return fmt.Errorf("render %q: %w", v.Title, err)
		}
	}
	return nil
}

// MarkdownDocument is the full markdown text for a processo: a title line,
// the generation stamp and every view.
func MarkdownDocument(title string, generated time.Time, views []analysis.View) (string, error) {
	m := NewMarkdown()
	fmt.Fprintf(&m.b, "# %s\n\n", inline(title))
	fmt.Fprintf(&m.b, "_Gerado em %s_\n\n", generated.Format("02/01/2006 15:04"))
	for i, v := range views {
		if i > 0 {
			m.b.WriteString("---\n\n")
		}
		if err := m.RenderSection(v); err != nil {
			return "", err
		}
	}
	return m.String(), nil
}

func writeBlocks(b *strings.Builder, blocks []Block) {
	inList := false
	endList := func() {
		if inList {
			b.WriteString("\n")
			inList = false
		}
	}
	for _, blk := range blocks {
		switch blk.Kind {
		case BlockHeading:
			endList()
			fmt.Fprintf(b, "%s %s\n\n", strings.Repeat("#", blk.Level), blk.Text)
		case BlockField:
			inList = true
			fmt.Fprintf(b, "- **%s:** %s\n", blk.Label, fieldValue(blk))
		case BlockText:
			endList()
			fmt.Fprintf(b, "%s\n\n", blk.Text)
		case BlockList:
			endList()
			if blk.Label != "" {
				fmt.Fprintf(b, "**%s**\n\n", blk.Label)
			}
			for _, it := range blk.Items {
				fmt.Fprintf(b, "- %s\n", inline(it))
			}
			b.WriteString("\n")
		case BlockCode:
			endList()
			fmt.Fprintf(b, "```json\n%s\n```\n\n", strings.TrimRight(blk.Text, "\n"))
		case BlockRule:
			endList()
			b.WriteString("---\n\n")
		}
	}
	endList()
}

func fieldValue(blk Block) string {
	v := inline(blk.Text)
	if marker, ok := toneMarkers[blk.Tone]; ok {
		return marker + " **" + v + "**"
	}
	return v
}
