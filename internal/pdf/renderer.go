// Package pdf turns analysis views into printable A4 documents, either with
// the native two-pass layout engine or through headless Chromium.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/report"
)

const documentTitle = "Análise Jurídica"

// ErrPageMismatch means the drawing pass disagreed with the measuring pass.
var ErrPageMismatch = errors.New("pdf: drawn pages differ from measured pages")

// Document is everything a PDF engine needs for one processo.
type Document struct {
	Name      string
	Generated time.Time
	Views     []analysis.View
}

// Engine produces PDF bytes for a document.
type Engine interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// Stats reports the outcome of both layout passes.
type Stats struct {
	MeasuredPages int
	DrawnPages    int
}

// Renderer collects sections and lays them out on a Canvas.
type Renderer struct {
	name   string
	blocks []report.Block
}

func NewRenderer(name string) *Renderer {
	return &Renderer{name: name}
}

func (r *Renderer) RenderSection(v analysis.View) error {
	if len(r.blocks) > 0 {
		r.blocks = append(r.blocks, report.Block{Kind: report.BlockRule})
	}
	r.blocks = append(r.blocks, report.Outline(v)...)
	return nil
}

// Render measures, draws and writes the document.
func (r *Renderer) Render(c Canvas, generated time.Time, w io.Writer) (Stats, error) {
	l := NewLayout(c)
	l.Measure(documentTitle, r.name, r.blocks)
	st := Stats{MeasuredPages: l.Pages()}
	st.DrawnPages = l.Draw(r.name, generated)
	if st.DrawnPages != st.MeasuredPages {
		return st, fmt.Errorf("%w: measured %d, drew %d", ErrPageMismatch, st.MeasuredPages, st.DrawnPages)
	}
	if err := c.Write(w); err != nil {
		return st, fmt.Errorf("write pdf: %w", err)
	}
	return st, nil
}

// NativeEngine renders with the built-in layout engine and core fonts.
type NativeEngine struct{}

func (NativeEngine) Render(ctx context.Context, doc Document) ([]byte, error) {
	r := NewRenderer(doc.Name)
	if err := report.RenderAll(r, doc.Views); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := r.Render(NewFPDFCanvas(documentTitle+" - "+doc.Name, doc.Generated), doc.Generated, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var reUnsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// FileName is the download name for a processo's PDF:
// wis_legal_<name>_analise_<dd-mm-yyyy>.pdf.
func FileName(name string, at time.Time) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-4]
	}
	clean := reUnsafeName.ReplaceAllString(name, "_")
	if len(clean) > 50 {
		clean = clean[:50]
	}
	return "wis_legal_" + clean + "_analise_" + at.Format("02-01-2006") + ".pdf"
}
