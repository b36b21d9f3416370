package analysis

import "github.com/tidwall/gjson"

type EstrategiasJuridicas struct {
	Titulo string                      `json:"titulo"`
	Secoes []EstrategiasJuridicasSecao `json:"secoes"`
}

type EstrategiasJuridicasSecao struct {
	ID               string              `json:"id"`
	Titulo           string              `json:"titulo"`
	Campos           []Campo             `json:"campos,omitempty"`
	ListaEstrategias []EstrategiaPolo    `json:"listaEstrategias,omitempty"`
	AnaliseGlobal    *AnaliseEstrategica `json:"analiseGlobal,omitempty"`
}

type EstrategiaPolo struct {
	ID                        string                   `json:"id"`
	Polo                      string                   `json:"polo"`
	SituacaoAtualPolo         string                   `json:"situacaoAtualPolo,omitempty"`
	EstrategiaPrincipal       *EstrategiaPrincipal     `json:"estrategiaPrincipal,omitempty"`
	EstrategiasComplementares []EstrategiaComplementar `json:"estrategiasComplementares,omitempty"`
}

type EstrategiaPrincipal struct {
	Descricao          string `json:"descricao"`
	FundamentacaoLegal string `json:"fundamentacaoLegal,omitempty"`
	FinalidadePratica  string `json:"finalidadePratica,omitempty"`
	RiscoProcessual    string `json:"riscoProcessual,omitempty"`
	CustoEstimado      string `json:"custoEstimado,omitempty"`
	PaginasReferencia  string `json:"paginasReferencia,omitempty"`
}

type EstrategiaComplementar struct {
	ID                 string `json:"id"`
	Descricao          string `json:"descricao"`
	FundamentacaoLegal string `json:"fundamentacaoLegal,omitempty"`
	FinalidadePratica  string `json:"finalidadePratica,omitempty"`
	CondicaoAdocao     string `json:"condicaoAdocao,omitempty"`
	RiscoProcessual    string `json:"riscoProcessual,omitempty"`
	Prioridade         string `json:"prioridade,omitempty"`
	PaginasReferencia  string `json:"paginasReferencia,omitempty"`
}

type AnaliseEstrategica struct {
	SinteseEstrategica           string `json:"sinteseEstrategica,omitempty"`
	PontosAtencaoCriticos        string `json:"pontosAtencaoCriticos,omitempty"`
	OportunidadesJuridicasGerais string `json:"oportunidadesJuridicasGerais,omitempty"`
	RiscosGeraisIdentificados    string `json:"riscosGeraisIdentificados,omitempty"`
}

func (*EstrategiasJuridicas) Category() Category { return CategoryEstrategiasJuridicas }
func (a *EstrategiasJuridicas) Title() string { return a.Titulo }
func (a *EstrategiasJuridicas) Accept(v Visitor) error { return v.VisitEstrategiasJuridicas(a) }
func (*EstrategiasJuridicas) sealed() {}

var estrategiasAliases = []string{"estrategias_juridicas", "estrategias"}

func NormalizeEstrategiasJuridicas(raw string) Result {
	return NormalizeGeneric(raw, "estrategiasJuridicas", estrategiasAliases, buildEstrategiasJuridicas)
}

func buildEstrategiasJuridicas(root gjson.Result) Analysis {
	out := &EstrategiasJuridicas{
		Titulo: titleOr(root, "Estratégias Jurídicas"),
		Secoes: []EstrategiasJuridicasSecao{},
	}
	for i, s := range sections(root) {
		secao := EstrategiasJuridicasSecao{
			ID:     s.strOr(indexedID("secao", i), "id"),
			Titulo: s.str("titulo"),
			Campos: s.campos("campos"),
		}
		for j, e := range s.objects("listaEstrategias", "estrategias") {
			polo := EstrategiaPolo{
				ID:                e.strOr(indexedID("estrategia", j), "id"),
				Polo:              e.label("polo"),
				SituacaoAtualPolo: e.str("situacaoAtualPolo", "situacaoAtual"),
			}
			if p := e.get("estrategiaPrincipal"); p.exists() {
				principal := &EstrategiaPrincipal{
					Descricao:          p.str("descricao"),
					FundamentacaoLegal: p.str("fundamentacaoLegal"),
					FinalidadePratica:  p.str("finalidadePratica"),
					RiscoProcessual:    p.label("riscoProcessual"),
					CustoEstimado:      p.str("custoEstimado"),
					PaginasReferencia:  p.str("paginasReferencia"),
				}
				if !p.isObject() {
					principal.Descricao = textOf(p)
				}
				polo.EstrategiaPrincipal = principal
			}
			for k, c := range e.objects("estrategiasComplementares") {
				polo.EstrategiasComplementares = append(polo.EstrategiasComplementares, EstrategiaComplementar{
					ID:                 c.strOr(indexedID("complementar", k), "id"),
					Descricao:          c.str("descricao"),
					FundamentacaoLegal: c.str("fundamentacaoLegal"),
					FinalidadePratica:  c.str("finalidadePratica"),
					CondicaoAdocao:     c.str("condicaoAdocao"),
					RiscoProcessual:    c.label("riscoProcessual"),
					Prioridade:         c.label("prioridade"),
					PaginasReferencia:  c.str("paginasReferencia"),
				})
			}
			secao.ListaEstrategias = append(secao.ListaEstrategias, polo)
		}
		if g := s.get("analiseGlobal"); g.isObject() {
			secao.AnaliseGlobal = &AnaliseEstrategica{
				SinteseEstrategica:           g.str("sinteseEstrategica"),
				PontosAtencaoCriticos:        g.str("pontosAtencaoCriticos"),
				OportunidadesJuridicasGerais: g.str("oportunidadesJuridicasGerais"),
				RiscosGeraisIdentificados:    g.str("riscosGeraisIdentificados"),
			}
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
