package pdf

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/joelkehle/analysis-views/internal/report"
)

// A4 portrait in points.
const (
	PageWidth  = 595.0
	PageHeight = 842.0
	Margin     = 40.0

	headerBand = 22.0
	footerBand = 18.0

	contentLeft   = Margin
	contentWidth  = PageWidth - 2*Margin
	contentTop    = Margin + headerBand
	contentBottom = PageHeight - Margin - footerBand

	lineSpacing = 1.35
	fieldIndent = 8.0
	listIndent  = 12.0
)

type Style int

const (
	Regular Style = iota
	Bold
	Italic
	Mono
)

type Font struct {
	Style Style
	Size  float64
}

type Color struct{ R, G, B uint8 }

var (
	colorText    = Color{28, 25, 23}
	colorMuted   = Color{87, 83, 78}
	colorHeading = Color{30, 58, 95}
	colorRule    = Color{203, 213, 225}
)

var toneFills = map[report.Tone]Color{
	report.ToneGray:  {229, 231, 235},
	report.ToneGreen: {209, 250, 229},
	report.ToneBlue:  {219, 234, 254},
	report.ToneAmber: {254, 243, 199},
	report.ToneRed:   {254, 226, 226},
}

// Canvas is the drawing surface a layout is measured against and drawn on.
// Coordinates are points from the top-left corner; y is the text baseline.
type Canvas interface {
	TextWidth(f Font, s string) float64
	AddPage()
	Text(x, y float64, f Font, c Color, s string)
	FillRect(x, y, w, h float64, c Color)
	Line(x1, y1, x2, y2 float64, c Color)
	Write(w io.Writer) error
}

var headingFonts = map[int]Font{
	1: {Bold, 20},
	2: {Bold, 15},
	3: {Bold, 12.5},
	4: {Bold, 11},
}

var (
	bodyFont  = Font{Regular, 10}
	labelFont = Font{Bold, 10}
	codeFont  = Font{Mono, 8.5}
	smallFont = Font{Regular, 7.5}
)

type run struct {
	x     float64
	text  string
	font  Font
	color Color
	tone  report.Tone
}

// line is the unit of pagination. page and y are assigned by measure.
type line struct {
	runs      []run
	height    float64
	gapBefore float64
	keepNext  bool
	rule      bool
	page      int
	y         float64
}

// Layout is the two-pass engine. Measure breaks the blocks into lines and
// assigns each one a page and position; Draw paints exactly that plan.
type Layout struct {
	canvas Canvas
	lines  []line
	pages  int
}

func NewLayout(c Canvas) *Layout {
	return &Layout{canvas: c}
}

// Pages is the page count computed by Measure.
func (l *Layout) Pages() int {
	return l.pages
}

func (l *Layout) Measure(title, subtitle string, blocks []report.Block) {
	l.lines = l.lines[:0]
	l.addCentered(NormalizeText(title), headingFonts[1], 0)
	l.addCentered(NormalizeText(subtitle), Font{Regular, 12}, 4)
	for _, b := range blocks {
		l.addBlock(b)
	}
	l.paginate()
}

func (l *Layout) addBlock(b report.Block) {
	switch b.Kind {
	case report.BlockHeading:
		f, ok := headingFonts[b.Level]
		if !ok {
			f = headingFonts[4]
		}
		gap := f.Size * 0.9
		for i, txt := range l.wrapText(NormalizeText(b.Text), f, contentWidth) {
			l.push(line{
				runs:      []run{{text: txt, font: f, color: colorHeading}},
				height:    f.Size * lineSpacing,
				gapBefore: firstGap(i, gap),
				keepNext:  true,
			})
		}
	case report.BlockField:
		l.addField(b)
	case report.BlockText:
		for i, txt := range l.wrapText(NormalizeText(b.Text), bodyFont, contentWidth) {
			l.push(line{
				runs:      []run{{text: txt, font: bodyFont, color: colorText}},
				height:    bodyFont.Size * lineSpacing,
				gapBefore: firstGap(i, 3),
			})
		}
	case report.BlockList:
		if b.Label != "" {
			l.push(line{
				runs:      []run{{x: fieldIndent, text: NormalizeText(b.Label), font: labelFont, color: colorText}},
				height:    labelFont.Size * lineSpacing,
				gapBefore: 2,
				keepNext:  true,
			})
		}
		for _, item := range b.Items {
			for i, txt := range l.wrapText(NormalizeText(item), bodyFont, contentWidth-listIndent-fieldIndent) {
				r := []run{{x: fieldIndent + listIndent, text: txt, font: bodyFont, color: colorText}}
				if i == 0 {
					r = append(r, run{x: fieldIndent + 2, text: "-", font: bodyFont, color: colorText})
				}
				l.push(line{runs: r, height: bodyFont.Size * lineSpacing})
			}
		}
	case report.BlockCode:
		for i, txt := range l.wrapText(NormalizeText(b.Text), codeFont, contentWidth) {
			l.push(line{
				runs:      []run{{text: txt, font: codeFont, color: colorMuted}},
				height:    codeFont.Size * 1.25,
				gapBefore: firstGap(i, 4),
			})
		}
	case report.BlockRule:
		l.push(line{rule: true, height: 10, gapBefore: 6})
	}
}

// addField lays "Label: value" out with the value hanging after the label.
func (l *Layout) addField(b report.Block) {
	label := NormalizeText(b.Label) + ":"
	labelW := l.canvas.TextWidth(labelFont, label) + 4
	if labelW > contentWidth/2 {
		labelW = contentWidth / 2
	}
	valueX := fieldIndent + labelW
	for i, txt := range l.wrapText(NormalizeText(b.Text), bodyFont, contentWidth-valueX-4) {
		ln := line{height: bodyFont.Size * lineSpacing}
		if i == 0 {
			ln.gapBefore = 1
			ln.runs = append(ln.runs, run{x: fieldIndent, text: label, font: labelFont, color: colorText})
		}
		ln.runs = append(ln.runs, run{x: valueX, text: txt, font: bodyFont, color: colorText, tone: b.Tone})
		l.push(ln)
	}
}

func (l *Layout) addCentered(text string, f Font, gap float64) {
	if text == "" {
		return
	}
	for i, txt := range l.wrapText(text, f, contentWidth) {
		x := (contentWidth - l.canvas.TextWidth(f, txt)) / 2
		l.push(line{
			runs:      []run{{x: x, text: txt, font: f, color: colorHeading}},
			height:    f.Size * lineSpacing,
			gapBefore: firstGap(i, gap),
		})
	}
}

func (l *Layout) wrapText(text string, f Font, width float64) []string {
	return wrap(text, width, func(s string) float64 { return l.canvas.TextWidth(f, s) })
}

func (l *Layout) push(ln line) {
	l.lines = append(l.lines, ln)
}

func firstGap(i int, gap float64) float64 {
	if i == 0 {
		return gap
	}
	return 0
}

// paginate is the measuring pass: it assigns every line a page and a top
// position so that no line crosses the bottom margin. Headings move to the
// next page together with the line that follows them.
func (l *Layout) paginate() {
	page, y := 1, contentTop
	for i := range l.lines {
		ln := &l.lines[i]
		need := ln.gapBefore + ln.height
		if ln.keepNext && i+1 < len(l.lines) {
			next := l.lines[i+1]
			need += next.gapBefore + next.height
		}
		if y+need > contentBottom && y > contentTop {
			page++
			y = contentTop
		}
		if y > contentTop {
			y += ln.gapBefore
		}
		ln.page = page
		ln.y = y
		y += ln.height
	}
	l.pages = page
}

// Draw paints the measured plan and returns the number of pages drawn.
func (l *Layout) Draw(header string, generated time.Time) int {
	header = NormalizeText(header)
	stamp := "Gerado em " + generated.Format("02/01/2006 15:04")
	idx, drawn := 0, 0
	for p := 1; p <= l.pages; p++ {
		l.canvas.AddPage()
		drawn++
		l.drawChrome(header, stamp, p)
		for ; idx < len(l.lines) && l.lines[idx].page == p; idx++ {
			l.drawLine(l.lines[idx])
		}
	}
	return drawn
}

func (l *Layout) drawChrome(header, stamp string, page int) {
	c := l.canvas
	if header != "" && page > 1 {
		c.Text(contentLeft, Margin+smallFont.Size, smallFont, colorMuted, header)
	}
	c.Line(contentLeft, Margin+headerBand-6, PageWidth-Margin, Margin+headerBand-6, colorRule)

	footerY := PageHeight - Margin
	c.Line(contentLeft, footerY-footerBand+4, PageWidth-Margin, footerY-footerBand+4, colorRule)
	c.Text(contentLeft, footerY, smallFont, colorMuted, stamp)
	num := "Página " + strconv.Itoa(page) + " de " + strconv.Itoa(l.pages)
	num = NormalizeText(num)
	c.Text(PageWidth-Margin-c.TextWidth(smallFont, num), footerY, smallFont, colorMuted, num)
}

func (l *Layout) drawLine(ln line) {
	c := l.canvas
	if ln.rule {
		mid := ln.y + ln.height/2
		c.Line(contentLeft, mid, PageWidth-Margin, mid, colorRule)
		return
	}
	for _, r := range ln.runs {
		if strings.TrimSpace(r.text) == "" {
			continue
		}
		x := contentLeft + r.x
		baseline := ln.y + r.font.Size
		if fill, ok := toneFills[r.tone]; ok {
			w := c.TextWidth(r.font, r.text)
			c.FillRect(x-2, ln.y+1, w+4, ln.height-1, fill)
		}
		c.Text(x, baseline, r.font, r.color, r.text)
	}
}
