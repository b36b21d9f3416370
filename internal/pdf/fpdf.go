package pdf

import (
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// FPDFCanvas draws with the PDF core fonts (Helvetica and Courier).
type FPDFCanvas struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func NewFPDFCanvas(title string, created time.Time) *FPDFCanvas {
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	doc.SetMargins(Margin, Margin, Margin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(title, true)
	doc.SetCreator("analysis-views", true)
	doc.SetCreationDate(created)
	return &FPDFCanvas{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

func (c *FPDFCanvas) setFont(f Font) {
	switch f.Style {
	case Bold:
		c.doc.SetFont("Helvetica", "B", f.Size)
	case Italic:
		c.doc.SetFont("Helvetica", "I", f.Size)
	case Mono:
		c.doc.SetFont("Courier", "", f.Size)
	default:
		c.doc.SetFont("Helvetica", "", f.Size)
	}
}

func (c *FPDFCanvas) TextWidth(f Font, s string) float64 {
	c.setFont(f)
	return c.doc.GetStringWidth(c.tr(s))
}

func (c *FPDFCanvas) AddPage() {
	c.doc.AddPage()
}

func (c *FPDFCanvas) Text(x, y float64, f Font, col Color, s string) {
	c.setFont(f)
	c.doc.SetTextColor(int(col.R), int(col.G), int(col.B))
	c.doc.Text(x, y, c.tr(s))
}

func (c *FPDFCanvas) FillRect(x, y, w, h float64, col Color) {
	c.doc.SetFillColor(int(col.R), int(col.G), int(col.B))
	c.doc.Rect(x, y, w, h, "F")
}

func (c *FPDFCanvas) Line(x1, y1, x2, y2 float64, col Color) {
	c.doc.SetDrawColor(int(col.R), int(col.G), int(col.B))
	c.doc.SetLineWidth(0.6)
	c.doc.Line(x1, y1, x2, y2)
}

func (c *FPDFCanvas) Write(w io.Writer) error {
	return c.doc.Output(w)
}
