package analysis

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Capability names what a renderer has to support to display a view.
type Capability string

const (
	CapabilityStructured Capability = "structured"
	CapabilityRaw        Capability = "raw"
)

// Entry ties a category to the title rule that selects it, its normalizer
// and the capability its views need.
type Entry struct {
	Category     Category
	Slug         string
	DefaultTitle string
	Match        func(title string) bool
	Normalize    func(content string) Result
	Capability   Capability
}

// Registry is an ordered list of entries. The first entry whose Match
// accepts a title wins.
type Registry []Entry

// DefaultRegistry returns the nine categories in title-matching priority
// order.
func DefaultRegistry() Registry {
	return Registry{
		{
			Category:     CategoryVisaoGeral,
			Slug:         "visao-geral-processo",
			DefaultTitle: "Visão Geral do Processo",
			Match:        containsAll("visão geral"),
			Normalize:    NormalizeVisaoGeral,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryResumoEstrategico,
			Slug:         "resumo-estrategico",
			DefaultTitle: "Resumo Estratégico",
			Match:        containsAll("resumo estratégico"),
			Normalize:    NormalizeResumoEstrategico,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryComunicacoesPrazos,
			Slug:         "comunicacoes-prazos",
			DefaultTitle: "Comunicações e Prazos",
			Match:        containsAll("comunicações", "prazos"),
			Normalize:    NormalizeComunicacoesPrazos,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryAdmissibilidade,
			Slug:         "admissibilidade-recursal",
			DefaultTitle: "Admissibilidade Recursal",
			Match:        containsAll("admissibilidade"),
			Normalize:    NormalizeAdmissibilidade,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryEstrategiasJuridicas,
			Slug:         "estrategias-juridicas",
			DefaultTitle: "Estratégias Jurídicas",
			Match:        containsAll("estratégias", "jurídicas"),
			Normalize:    NormalizeEstrategiasJuridicas,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryRiscosAlertas,
			Slug:         "riscos-alertas",
			DefaultTitle: defaultRiscosTitulo,
			Match:        containsAll("riscos", "alertas"),
			Normalize:    NormalizeRiscosAlertas,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryBalancoFinanceiro,
			Slug:         "balanco-financeiro",
			DefaultTitle: "Balanço Financeiro",
			Match:        containsAll("balanço", "financeiro"),
			Normalize:    NormalizeBalancoFinanceiro,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryMapaPreclusoes,
			Slug:         "mapa-preclusoes",
			DefaultTitle: "Mapa de Preclusões Processuais",
			Match:        containsAll("mapa", "preclusões"),
			Normalize:    NormalizeMapaPreclusoes,
			Capability:   CapabilityStructured,
		},
		{
			Category:     CategoryConclusoes,
			Slug:         "conclusoes-perspectivas",
			DefaultTitle: "Conclusões e Perspectivas",
			Match:        containsAny("conclusões", "perspectivas"),
			Normalize:    NormalizeConclusoes,
			Capability:   CapabilityStructured,
		},
	}
}

// Match returns the first entry accepting title.
func (r Registry) Match(title string) (Entry, bool) {
	for _, e := range r {
		if e.Match(title) {
			return e, true
		}
	}
	return Entry{}, false
}

func (r Registry) Lookup(c Category) (Entry, bool) {
	for _, e := range r {
		if e.Category == c {
			return e, true
		}
	}
	return Entry{}, false
}

func (r Registry) BySlug(slug string) (Entry, bool) {
	for _, e := range r {
		if e.Slug == slug {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseCategory accepts a category tag or a slug.
func (r Registry) ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if e, ok := r.Lookup(Category(s)); ok {
		return e.Category, true
	}
	if e, ok := r.BySlug(s); ok {
		return e.Category, true
	}
	return "", false
}

func containsAll(needles ...string) func(string) bool {
	folded := foldAll(needles)
	return func(title string) bool {
		t := foldTitle(title)
		for _, n := range folded {
			if !strings.Contains(t, n) {
				return false
			}
		}
		return true
	}
}

func containsAny(needles ...string) func(string) bool {
	folded := foldAll(needles)
	return func(title string) bool {
		t := foldTitle(title)
		for _, n := range folded {
			if strings.Contains(t, n) {
				return true
			}
		}
		return false
	}
}

func foldAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = foldTitle(s)
	}
	return out
}

// foldTitle trims, lower-cases and strips diacritics so that "Balanço" and
// "BALANCO" compare equal.
func foldTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
