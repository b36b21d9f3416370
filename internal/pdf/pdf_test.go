package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawnText struct {
	page int
	y    float64
	font Font
	text string
}

// fakeCanvas measures every rune as half the font size.
type fakeCanvas struct {
	pages int
	texts []drawnText
	rects int
}

func (c *fakeCanvas) TextWidth(f Font, s string) float64 {
	return float64(utf8.RuneCountInString(s)) * f.Size * 0.5
}

func (c *fakeCanvas) AddPage() { c.pages++ }

func (c *fakeCanvas) Text(_, y float64, f Font, _ Color, s string) {
	c.texts = append(c.texts, drawnText{page: c.pages, y: y, font: f, text: s})
}

func (c *fakeCanvas) FillRect(_, _, _, _ float64, _ Color) { c.rects++ }

func (c *fakeCanvas) Line(_, _, _, _ float64, _ Color) {}

func (c *fakeCanvas) Write(w io.Writer) error {
	_, err := io.WriteString(w, "%PDF-fake")
	return err
}

func longComunicacoes(n int) string {
	var atos []string
	for i := 0; i < n; i++ {
		atos = append(atos, fmt.Sprintf(`{"tipoAto":"Intimação %d","modalidade":"Diário Oficial","destinatario":{"nome":"Parte %d"},"statusAto":{"status":"Cumprido"},"observacoes":"%s","prazos":[{"tipo":"Manifestação","duracao":{"valor":5,"unidade":"dias"},"status":"Em curso"}]}`,
			i, i, strings.Repeat("texto longo de observação ", 12)))
	}
	return `{"atosComunicacao":[` + strings.Join(atos, ",") + `]}`
}

func TestRendererMeasuredPagesMatchDrawn(t *testing.T) {
	r := NewRenderer("Processo 0001234-56.2024.8.26.0100")
	require.NoError(t, report.RenderAll(r, []analysis.View{
		analysis.Select("Comunicações e Prazos", longComunicacoes(40)),
		analysis.Select("Riscos e Alertas", `{"listaAlertas":[{"categoria":"Nulidade","descricaoRisco":"Citação inválida","gravidade":"Alta"}]}`),
		analysis.Select("Anotações", "```\nTexto livre\n```"),
	}))

	c := &fakeCanvas{}
	var buf bytes.Buffer
	st, err := r.Render(c, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), &buf)
	require.NoError(t, err)

	assert.Greater(t, st.MeasuredPages, 1)
	assert.Equal(t, st.MeasuredPages, st.DrawnPages)
	assert.Equal(t, st.DrawnPages, c.pages)
	assert.Equal(t, "%PDF-fake", buf.String())
	assert.Positive(t, c.rects, "toned values get a fill")

	last := fmt.Sprintf("Página %d de %d", c.pages, c.pages)
	var footers int
	for _, tx := range c.texts {
		assert.LessOrEqual(t, tx.y, PageHeight-Margin, tx.text)
		if tx.font == smallFont {
			if strings.HasPrefix(tx.text, "Página ") {
				footers++
			}
			continue
		}
		assert.LessOrEqual(t, tx.y, contentBottom, "content crosses the footer: %q", tx.text)
		assert.GreaterOrEqual(t, tx.y, contentTop, tx.text)
	}
	assert.Equal(t, c.pages, footers)
	assert.Contains(t, texts(c), last)
}

func TestHeadingsAreNotOrphaned(t *testing.T) {
	blocks := []report.Block{}
	for i := 0; i < 200; i++ {
		blocks = append(blocks,
			report.Block{Kind: report.BlockHeading, Level: 3, Text: fmt.Sprintf("Seção %d", i)},
			report.Block{Kind: report.BlockField, Label: "Status", Text: "Cumprido", Tone: report.ToneGreen},
		)
	}
	l := NewLayout(&fakeCanvas{})
	l.Measure("Título", "", blocks)
	require.Greater(t, l.Pages(), 2)

	for i, ln := range l.lines {
		if ln.keepNext && i+1 < len(l.lines) {
			assert.Equal(t, ln.page, l.lines[i+1].page, "heading %d split from its content", i)
		}
		assert.LessOrEqual(t, ln.y+ln.height, contentBottom)
	}
}

func TestEmptyDocumentHasOnePage(t *testing.T) {
	r := NewRenderer("")
	c := &fakeCanvas{}
	st, err := r.Render(c, time.Now(), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, Stats{MeasuredPages: 1, DrawnPages: 1}, st)
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"“Olá” – teste… fim", `"Olá" - teste... fim`},
		{"• item", "- item"},
		{"ok ✅", "ok "},
		{"a\tb", "a    b"},
		{"linha\r\noutra\x07", "linha\noutra"},
		{"Ação", "Ação"},
		{"é", "é"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeText(tc.in), tc.in)
	}
}

func TestWrap(t *testing.T) {
	measure := func(s string) float64 { return float64(utf8.RuneCountInString(s)) }

	assert.Equal(t, []string{"aaa bbb", "ccc"}, wrap("aaa bbb ccc", 7, measure))
	assert.Equal(t, []string{"abcde", "fghij", "klmno", "p"}, wrap("abcdefghijklmnop", 5, measure))
	assert.Equal(t, []string{"a", "", "b"}, wrap("a\n\nb", 10, measure))
	assert.Equal(t, []string{"x", "çãoéí", "y"}, wrap("x çãoéí y", 5, measure))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "wis_legal_Processo_123_analise_05-03-2024.pdf", FileName("Processo 123.PDF", at))
	assert.Equal(t, "wis_legal_a_b_c_analise_05-03-2024.pdf", FileName("a/b:c", at))

	long := FileName(strings.Repeat("x", 80), at)
	assert.Equal(t, "wis_legal_"+strings.Repeat("x", 50)+"_analise_05-03-2024.pdf", long)
}

func TestNativeEngine(t *testing.T) {
	out, err := NativeEngine{}.Render(context.Background(), Document{
		Name:      "Processo 123",
		Generated: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Views: []analysis.View{
			analysis.Select("Comunicações e Prazos", longComunicacoes(3)),
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestNativeEngineHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NativeEngine{}.Render(ctx, Document{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func texts(c *fakeCanvas) []string {
	out := make([]string, 0, len(c.texts))
	for _, tx := range c.texts {
		out = append(out, tx.text)
	}
	return out
}
