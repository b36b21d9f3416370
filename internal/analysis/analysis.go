// Package analysis turns raw analysis-generator output into one canonical,
// typed record per category and picks the view used to display it.
package analysis

import (
	"strconv"

	"github.com/joelkehle/analysis-views/internal/lenientjson"
	"github.com/joelkehle/analysis-views/internal/resolve"
	"github.com/joelkehle/analysis-views/internal/safeval"
	"github.com/tidwall/gjson"
)

type Category string

const (
	CategoryVisaoGeral           Category = "visao_geral"
	CategoryResumoEstrategico    Category = "resumo_estrategico"
	CategoryComunicacoesPrazos   Category = "comunicacoes_prazos"
	CategoryAdmissibilidade      Category = "admissibilidade"
	CategoryEstrategiasJuridicas Category = "estrategias_juridicas"
	CategoryRiscosAlertas        Category = "riscos_alertas"
	CategoryBalancoFinanceiro    Category = "balanco_financeiro"
	CategoryMapaPreclusoes       Category = "mapa_preclusoes"
	CategoryConclusoes           Category = "conclusoes"
)

type Method string

const (
	MethodDirect          Method = "direct"
	MethodFlexibleKey     Method = "flexible-key"
	MethodArrayExtraction Method = "array-extraction"
	MethodFallback        Method = "fallback"
)

// Analysis is implemented only by the canonical record types of this
// package, one per Category.
type Analysis interface {
	Category() Category
	Title() string
	Accept(Visitor) error
	sealed()
}

// Visitor is the rendering capability every output target provides. A new
// category is not renderable until every Visitor handles it.
type Visitor interface {
	VisitVisaoGeral(*VisaoGeral) error
	VisitResumoEstrategico(*ResumoEstrategico) error
	VisitComunicacoesPrazos(*ComunicacoesPrazos) error
	VisitAdmissibilidade(*Admissibilidade) error
	VisitEstrategiasJuridicas(*EstrategiasJuridicas) error
	VisitRiscosAlertas(*RiscosAlertas) error
	VisitBalancoFinanceiro(*BalancoFinanceiro) error
	VisitMapaPreclusoes(*MapaPreclusoes) error
	VisitConclusoes(*Conclusoes) error
}

// Result is produced once per normalization attempt. Data is nil unless
// Success is true.
type Result struct {
	Success      bool     `json:"success"`
	Data         Analysis `json:"data"`
	Method       Method   `json:"method"`
	OriginalKeys []string `json:"originalKeys,omitempty"`
}

func fallback(parsed lenientjson.Result) Result {
	return Result{Method: MethodFallback, OriginalKeys: parsed.Keys()}
}

// Builder reconstructs a canonical record from a section-shaped subtree
// ({titulo, secoes}).
type Builder func(root gjson.Result) Analysis

// NormalizeGeneric handles every category whose payload already arrives
// section-shaped under some root key: expectedKey, one of aliasKeys, a fuzzy
// variant of them, a lone wrapper key, or no wrapper at all.
func NormalizeGeneric(raw, expectedKey string, aliasKeys []string, build Builder) Result {
	parsed := lenientjson.Extract(raw)
	if !parsed.OK || !parsed.Value.IsObject() {
		return fallback(parsed)
	}
	doc := parsed.Value
	candidates := append([]string{expectedKey}, aliasKeys...)
	m := resolve.Resolve(doc, candidates)

	switch {
	case m.Found() && hasSecoes(m.Value):
		method := MethodFlexibleKey
		if m.Key == expectedKey {
			method = MethodDirect
		}
		return Result{Success: true, Data: build(m.Value), Method: method, OriginalKeys: parsed.Keys()}
	case hasSecoes(doc):
		return Result{Success: true, Data: build(doc), Method: MethodFlexibleKey, OriginalKeys: parsed.Keys()}
	case m.Found() && m.Value.IsObject():
		method := MethodFlexibleKey
		if m.Key == expectedKey {
			method = MethodDirect
		}
		return Result{Success: true, Data: build(m.Value), Method: method, OriginalKeys: parsed.Keys()}
	}
	return fallback(parsed)
}

func hasSecoes(v gjson.Result) bool {
	return v.IsObject() && safeval.Field(v, "secoes").IsArray()
}

// Campo is a labelled value. Array values keep their items alongside the
// joined display text.
type Campo struct {
	ID    string   `json:"id"`
	Label string   `json:"label,omitempty"`
	Valor string   `json:"valor"`
	Itens []string `json:"itens,omitempty"`
}

type BaseDocumental struct {
	Arquivo         string `json:"arquivo,omitempty"`
	Pagina          string `json:"pagina,omitempty"`
	EventoNoSistema string `json:"eventoNoSistema,omitempty"`
}

// node wraps a JSON value with the lookups the builders need. Every
// accessor tolerates missing keys and mistyped values.
type node struct {
	v gjson.Result
}

func (n node) get(key string) node {
	return node{v: safeval.Field(n.v, key)}
}

func (n node) path(keys ...string) node {
	return node{v: safeval.Path(n.v, keys...)}
}

func (n node) exists() bool {
	return safeval.Truthy(n.v)
}

func (n node) isObject() bool {
	return n.v.IsObject()
}

// str returns the display text of the first truthy key.
func (n node) str(keys ...string) string {
	for _, k := range keys {
		if f := safeval.Field(n.v, k); safeval.Truthy(f) {
			return safeval.ToString(f)
		}
	}
	return ""
}

// strOr is str with a default for an absent value.
func (n node) strOr(def string, keys ...string) string {
	if s := n.str(keys...); s != "" {
		return s
	}
	return def
}

// label is like str but prefers the probe fields of an object value, for
// fields such as status that upstream sometimes nests.
func (n node) label(keys ...string) string {
	for _, k := range keys {
		if f := safeval.Field(n.v, k); safeval.Truthy(f) {
			return safeval.ExtractString(f)
		}
	}
	return ""
}

func (n node) strings(key string) []string {
	var out []string
	for _, item := range safeval.EnsureArray(safeval.Field(n.v, key)) {
		if s := safeval.ToString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (n node) flag(key string) bool {
	f := safeval.Field(n.v, key)
	switch f.Type {
	case gjson.True:
		return true
	case gjson.String:
		return safeval.Includes(f.Str, "sim") || safeval.Includes(f.Str, "true")
	}
	return false
}

// objects returns the object items of the first key holding any.
func (n node) objects(keys ...string) []node {
	for _, k := range keys {
		if out := objectItems(safeval.Field(n.v, k)); len(out) > 0 {
			return out
		}
	}
	return nil
}

func objectItems(list gjson.Result) []node {
	var out []node
	for _, item := range safeval.EnsureArray(list) {
		if item.IsObject() {
			out = append(out, node{v: item})
		}
	}
	return out
}

func (n node) campos(key string) []Campo {
	var out []Campo
	for i, c := range n.objects(key) {
		campo := Campo{
			ID:    c.strOr(indexedID("campo", i), "id"),
			Label: c.str("label", "rotulo", "nome"),
		}
		valor := c.get("valor")
		if valor.v.IsArray() {
			campo.Itens = c.strings("valor")
		} else {
			campo.Itens = c.strings("itens")
		}
		campo.Valor = safeval.ToString(valor.v)
		out = append(out, campo)
	}
	return out
}

func (n node) baseDocumental(key string) *BaseDocumental {
	b := n.get(key)
	if !b.exists() {
		return nil
	}
	if !b.isObject() {
		return &BaseDocumental{Arquivo: safeval.ToString(b.v)}
	}
	out := &BaseDocumental{
		Arquivo:         b.str("arquivo", "documento"),
		Pagina:          b.str("pagina", "paginas"),
		EventoNoSistema: b.str("eventoNoSistema", "evento"),
	}
	if *out == (BaseDocumental{}) {
		return nil
	}
	return out
}

func textOf(n node) string {
	return safeval.ToString(n.v)
}

func indexedID(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i+1)
}

// sections iterates the section objects of a section-shaped root. A secoes
// value that is not an array counts as absent.
func sections(root gjson.Result) []node {
	list := safeval.Field(root, "secoes")
	if !list.IsArray() {
		return nil
	}
	return objectItems(list)
}

func titleOr(root gjson.Result, def string) string {
	return node{v: root}.strOr(def, "titulo", "title")
}
