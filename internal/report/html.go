package report

import (
	_ "embed"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed style.css
var styleCSS string

var reSectionHeading = regexp.MustCompile(`<h2([^>]*)>`)

// HTMLRenderer collects sections as markdown and converts them into one
// standalone page.
type HTMLRenderer struct {
	md            *Markdown
	conv          goldmark.Markdown
	breakSections bool
}

type HTMLOption func(*HTMLRenderer)

// WithSectionPageBreaks starts every section after the first on a new
// printed page.
func WithSectionPageBreaks() HTMLOption {
	return func(r *HTMLRenderer) { r.breakSections = true }
}

func NewHTMLRenderer(opts ...HTMLOption) *HTMLRenderer {
	r := &HTMLRenderer{
		md:   NewMarkdown(),
		conv: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HTMLRenderer) RenderSection(v analysis.View) error {
	return r.md.RenderSection(v)
}

// Page returns the HTML document for everything rendered so far.
func (r *HTMLRenderer) Page(title string, generated time.Time) (string, error) {
	var content strings.Builder
	if err := r.conv.Convert([]byte(r.md.String()), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	body := content.String()
	if r.breakSections {
		body = markSectionBreaks(body)
	}
	return "<!doctype html><html lang='pt-BR'><head><meta charset='utf-8'>" +
		"<title>" + html.EscapeString(title) + "</title>" +
		"<style>" + styleCSS + "</style></head><body>" +
		"<div class='page'><header class='doc-header'>" +
		"<h1>" + html.EscapeString(title) + "</h1>" +
		"<div class='doc-meta'>Gerado em " + generated.Format("02/01/2006 15:04") + "</div>" +
		"</header><main class='analysis'>" + body + "</main></div>" +
		"</body></html>", nil
}

// HTMLPage renders views into a complete page in one call.
func HTMLPage(title string, generated time.Time, views []analysis.View, opts ...HTMLOption) (string, error) {
	r := NewHTMLRenderer(opts...)
	if err := RenderAll(r, views); err != nil {
		return "", err
	}
	return r.Page(title, generated)
}

func markSectionBreaks(body string) string {
	first := true
	return reSectionHeading.ReplaceAllStringFunc(body, func(tag string) string {
		if first {
			first = false
			return tag
		}
		return reSectionHeading.ReplaceAllString(tag, `<h2$1 data-page-break-before="true">`)
	})
}
