package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/joelkehle/analysis-views/internal/analysis"
)

// TerminalRenderer renders sections as styled terminal text.
type TerminalRenderer struct {
	md    *Markdown
	width int
	style string
}

// NewTerminalRenderer wraps text at width columns. An empty style picks
// light or dark from the terminal background.
func NewTerminalRenderer(width int, style string) *TerminalRenderer {
	if width <= 0 {
		width = 80
	}
	return &TerminalRenderer{md: NewMarkdown(), width: width, style: style}
}

func (r *TerminalRenderer) RenderSection(v analysis.View) error {
	return r.md.RenderSection(v)
}

// String returns everything rendered so far.
func (r *TerminalRenderer) String() (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(r.width)}
	if r.style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := tr.Render(r.md.String())
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
