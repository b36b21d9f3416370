package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryMatchTitles(t *testing.T) {
	tests := []struct {
		title string
		want  Category
	}{
		// single-substring rules
		{"Visão Geral do Processo", CategoryVisaoGeral},
		{"visão geral", CategoryVisaoGeral},
		{"VISÃO GERAL", CategoryVisaoGeral},
		{"Visao Geral", CategoryVisaoGeral},
		{"Resumo Estratégico", CategoryResumoEstrategico},
		{"1. resumo estrategico do caso", CategoryResumoEstrategico},
		{"Admissibilidade Recursal", CategoryAdmissibilidade},
		{"  7. Análise de Admissibilidade  ", CategoryAdmissibilidade},
		{"Conclusões", CategoryConclusoes},
		{"Perspectivas", CategoryConclusoes},
		{"Conclusões e Perspectivas", CategoryConclusoes},

		// AND-joined rules, both halves and either order
		{"Comunicações e Prazos", CategoryComunicacoesPrazos},
		{"Prazos das Comunicações", CategoryComunicacoesPrazos},
		{"COMUNICACOES E PRAZOS", CategoryComunicacoesPrazos},
		{"Estratégias Jurídicas", CategoryEstrategiasJuridicas},
		{"Jurídicas: estratégias possíveis", CategoryEstrategiasJuridicas},
		{"Riscos e Alertas", CategoryRiscosAlertas},
		{"alertas e riscos processuais", CategoryRiscosAlertas},
		{"Balanço Financeiro", CategoryBalancoFinanceiro},
		{"Balanco financeiro", CategoryBalancoFinanceiro},
		{"Mapa de Preclusões Processuais", CategoryMapaPreclusoes},
		{"mapa das preclusoes", CategoryMapaPreclusoes},

		// overlapping titles resolve to the earliest rule
		{"Visão Geral e Conclusões", CategoryVisaoGeral},
		{"Resumo Estratégico: Riscos e Alertas", CategoryResumoEstrategico},
		{"Comunicações, Prazos e Perspectivas", CategoryComunicacoesPrazos},
		{"Estratégias Jurídicas e Perspectivas", CategoryEstrategiasJuridicas},
		{"Riscos e Alertas no Mapa de Preclusões", CategoryRiscosAlertas},
		{"Balanço Financeiro e Perspectivas", CategoryBalancoFinanceiro},
	}
	reg := DefaultRegistry()
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			e, ok := reg.Match(tc.title)
			require.True(t, ok)
			assert.Equal(t, tc.want, e.Category)
		})
	}
}

func TestRegistryMatchRejectsHalfTitles(t *testing.T) {
	titles := []string{
		"",
		"Resumo",
		"Estratégico",
		"Visão",
		"Geral",
		"Comunicações",
		"Prazos",
		"Estratégias",
		"Jurídicas",
		"Riscos",
		"Alertas",
		"Balanço",
		"Financeiro",
		"Mapa",
		"Preclusões",
		"Relatório Final",
	}
	reg := DefaultRegistry()
	for _, title := range titles {
		t.Run(title, func(t *testing.T) {
			_, ok := reg.Match(title)
			assert.False(t, ok)
		})
	}
}

func TestRegistryEntriesAreComplete(t *testing.T) {
	reg := DefaultRegistry()
	require.Len(t, reg, 9)
	seen := map[Category]bool{}
	for _, e := range reg {
		assert.False(t, seen[e.Category], "duplicate %s", e.Category)
		seen[e.Category] = true
		assert.NotEmpty(t, e.Slug)
		assert.Equal(t, CapabilityStructured, e.Capability)

		// every entry selects itself from its own default title
		got, ok := reg.Match(e.DefaultTitle)
		require.True(t, ok, e.DefaultTitle)
		assert.Equal(t, e.Category, got.Category)

		c, ok := reg.ParseCategory(e.Slug)
		require.True(t, ok)
		assert.Equal(t, e.Category, c)
		c, ok = reg.ParseCategory(string(e.Category))
		require.True(t, ok)
		assert.Equal(t, e.Category, c)
	}
	_, ok := reg.ParseCategory("desconhecida")
	assert.False(t, ok)
}

func TestSelectStructured(t *testing.T) {
	v := Select("Riscos e Alertas", `{"riscosAlertasProcessuais":{"titulo":"R","secoes":[]}}`)
	assert.Equal(t, KindStructured, v.Kind())
	assert.True(t, v.Matched)
	assert.Equal(t, CategoryRiscosAlertas, v.Category)
	assert.Nil(t, v.Raw)
	assert.Equal(t, MethodDirect, v.Result.Method)
}

// Title matching ignores diacritics, so titles typed without accents still
// select their category instead of falling back to raw.
func TestSelectIgnoresTitleAccents(t *testing.T) {
	content := `{"mapaPreclusoesProcessuais":{"secoes":[]}}`
	for _, title := range []string{"Mapa de Preclusões", "Mapa de Preclusoes", "MAPA DE PRECLUSÕES"} {
		v := Select(title, content)
		assert.True(t, v.Matched, title)
		assert.Equal(t, CategoryMapaPreclusoes, v.Category, title)
		assert.Equal(t, KindStructured, v.Kind(), title)
	}
}

func TestSelectFallsBackToRaw(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		reason  string
		parsed  bool
		empty   bool
	}{
		{"empty content", "Balanço Financeiro", "  ", ReasonEmpty, false, true},
		{"unparsable content", "Balanço Financeiro", "texto livre", ReasonUnparsable, false, false},
		{"wrong shape", "Balanço Financeiro", `{"outro":"x"}`, ReasonShape, true, false},
		{"unknown title", "Relatório", `{"a":1}`, ReasonUnmatched, true, false},
		{"unknown title, text", "Relatório", "texto", ReasonUnmatched, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Select(tc.title, tc.content)
			require.Equal(t, KindRaw, v.Kind())
			require.NotNil(t, v.Raw)
			assert.Equal(t, tc.reason, v.Raw.Reason)
			assert.Equal(t, tc.parsed, v.Raw.Parsed)
			assert.Equal(t, tc.empty, v.Raw.Empty)
			assert.Equal(t, tc.content, v.Raw.Content)
			assert.False(t, v.Result.Success)
			if tc.parsed {
				assert.NotEmpty(t, v.Raw.Pretty)
			}
		})
	}
}

func TestSelectTaggedPrefersTag(t *testing.T) {
	content := `{"conclusoesPerspectivas":{"secoes":[]}}`

	v := SelectTagged(CategoryConclusoes, "Título renomeado", content)
	assert.True(t, v.Tagged)
	assert.Equal(t, CategoryConclusoes, v.Category)
	assert.Equal(t, KindStructured, v.Kind())

	// the tag wins over a title naming another category
	v = SelectTagged(CategoryConclusoes, "Visão Geral", content)
	assert.Equal(t, CategoryConclusoes, v.Category)

	v = SelectTagged("desconhecida", "Conclusões", content)
	assert.False(t, v.Tagged)
	assert.Equal(t, CategoryConclusoes, v.Category)

	v = SelectTagged("", "Sem título conhecido", content)
	assert.False(t, v.Matched)
	assert.Equal(t, KindRaw, v.Kind())
}

func TestSelectTaggedFillsMissingTitle(t *testing.T) {
	v := SelectTagged(CategoryMapaPreclusoes, "", `{"mapaPreclusoesProcessuais":{"secoes":[]}}`)
	assert.Equal(t, "Mapa de Preclusões Processuais", v.Title)
}

func TestSelectNeverReturnsNilRenderable(t *testing.T) {
	inputs := []string{"", "x", "{", `{"a":`, "null", `[]`}
	for _, e := range DefaultRegistry() {
		for _, in := range inputs {
			v := Select(e.DefaultTitle, in)
			if v.Kind() == KindRaw {
				require.NotNil(t, v.Raw)
			} else {
				require.NotNil(t, v.Result.Data)
			}
		}
	}
}
