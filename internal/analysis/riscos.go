package analysis

import (
	"github.com/joelkehle/analysis-views/internal/lenientjson"
	"github.com/joelkehle/analysis-views/internal/resolve"
	"github.com/joelkehle/analysis-views/internal/safeval"
	"github.com/tidwall/gjson"
)

const defaultRiscosTitulo = "Riscos e Alertas Processuais"

type RiscosAlertas struct {
	Titulo string               `json:"titulo"`
	Secoes []RiscosAlertasSecao `json:"secoes"`
}

type RiscosAlertasSecao struct {
	ID      string   `json:"id"`
	Titulo  string   `json:"titulo"`
	Alertas []Alerta `json:"listaAlertas,omitempty"`
	Campos  []Campo  `json:"campos,omitempty"`
}

type Alerta struct {
	ID                 string          `json:"id"`
	Categoria          string          `json:"categoria"`
	DescricaoRisco     string          `json:"descricaoRisco"`
	BaseDocumental     *BaseDocumental `json:"baseDocumental,omitempty"`
	PoloAfetado        string          `json:"poloAfetado,omitempty"`
	Gravidade          string          `json:"gravidade"`
	ImpactoPoloUsuario string          `json:"impactoPoloUsuario,omitempty"`
	Urgencia           string          `json:"urgencia,omitempty"`
	AcaoRecomendada    string          `json:"acaoRecomendada,omitempty"`
	FundamentacaoLegal string          `json:"fundamentacaoLegal,omitempty"`
	Observacoes        string          `json:"observacoes,omitempty"`
}

func (*RiscosAlertas) Category() Category { return CategoryRiscosAlertas }
func (a *RiscosAlertas) Title() string { return a.Titulo }
func (a *RiscosAlertas) Accept(v Visitor) error { return v.VisitRiscosAlertas(a) }
func (*RiscosAlertas) sealed() {}

var riscosCandidates = []string{
	"riscosAlertasProcessuais",
	"riscos_alertas_processuais",
	"riscosAlertas",
	"riscos_alertas",
	"riscos",
	"alertas",
	"dados",
	"resultado",
	"output",
}

var riscosSignatures = [][]string{
	{"categoria", "descricaoRisco", "gravidade"},
	{"categoria", "descricao", "gravidade"},
	{"tipo", "risco", "impacto"},
	{"alerta", "urgencia", "acao"},
}

// NormalizeRiscosAlertas accepts the canonical section shape, any nested
// list that looks like a list of alerts, or a flat listaAlertas/alertas
// array next to the title.
func NormalizeRiscosAlertas(raw string) Result {
	parsed := lenientjson.Extract(raw)
	if !parsed.OK {
		return fallback(parsed)
	}
	doc := parsed.Value
	keys := parsed.Keys()

	m := resolve.Resolve(doc, riscosCandidates)
	root := doc
	if m.Found() {
		root = m.Value
	}
	if hasSecoes(root) {
		method := MethodFlexibleKey
		if m.Key == "riscosAlertasProcessuais" {
			method = MethodDirect
		}
		return Result{Success: true, Data: buildRiscos(root), Method: method, OriginalKeys: keys}
	}

	if arr, ok := resolve.FindArrayBySignature(root, riscosSignatures); ok {
		titulo := defaultRiscosTitulo
		if root.IsObject() {
			titulo = titleOr(root, titulo)
		}
		return Result{
			Success:      true,
			Data:         alertSection(titulo, "secao_alertas", "Alertas Identificados", arr),
			Method:       MethodArrayExtraction,
			OriginalKeys: keys,
		}
	}

	alertas, titulo := gjson.Result{}, defaultRiscosTitulo
	switch {
	case root.IsObject():
		alertas = safeval.Coalesce(safeval.Field(root, "listaAlertas"), safeval.Field(root, "alertas"))
		titulo = titleOr(root, titulo)
	case m.Found():
		alertas = root
		titulo = titleOr(doc, titulo)
	}
	if len(objectItems(alertas)) > 0 && alertas.IsArray() {
		return Result{
			Success:      true,
			Data:         alertSection(titulo, "secao_principal", "Alertas", alertas),
			Method:       MethodFlexibleKey,
			OriginalKeys: keys,
		}
	}
	return fallback(parsed)
}

func alertSection(titulo, id, secaoTitulo string, list gjson.Result) *RiscosAlertas {
	return &RiscosAlertas{
		Titulo: titulo,
		Secoes: []RiscosAlertasSecao{{
			ID:      id,
			Titulo:  secaoTitulo,
			Alertas: normalizeAlertas(objectItems(list)),
		}},
	}
}

func buildRiscos(root gjson.Result) *RiscosAlertas {
	out := &RiscosAlertas{
		Titulo: titleOr(root, defaultRiscosTitulo),
		Secoes: []RiscosAlertasSecao{},
	}
	for i, s := range sections(root) {
		out.Secoes = append(out.Secoes, RiscosAlertasSecao{
			ID:      s.strOr(indexedID("secao", i), "id"),
			Titulo:  s.str("titulo"),
			Alertas: normalizeAlertas(s.objects("listaAlertas", "alertas", "riscos")),
			Campos:  s.campos("campos"),
		})
	}
	return out
}

// normalizeAlertas maps the alternate field names upstream uses for the
// same alert attributes onto Alerta.
func normalizeAlertas(items []node) []Alerta {
	var out []Alerta
	for j, a := range items {
		out = append(out, Alerta{
			ID:                 a.strOr(indexedID("alerta", j), "id"),
			Categoria:          a.strOr("Não categorizado", "categoria", "tipo"),
			DescricaoRisco:     a.strOr("Descrição não informada", "descricaoRisco", "descricao", "risco", "alerta"),
			BaseDocumental:     a.baseDocumental("baseDocumental"),
			PoloAfetado:        a.label("poloAfetado", "polo"),
			Gravidade:          firstNonEmpty(a.label("gravidade", "impacto", "nivel"), "Não informada"),
			ImpactoPoloUsuario: a.str("impactoPoloUsuario"),
			Urgencia:           a.label("urgencia"),
			AcaoRecomendada:    a.str("acaoRecomendada", "acao"),
			FundamentacaoLegal: a.str("fundamentacaoLegal", "baseLegal"),
			Observacoes:        a.str("observacoes"),
		})
	}
	return out
}
