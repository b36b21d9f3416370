package analysis

import "github.com/tidwall/gjson"

type ResumoEstrategico struct {
	Titulo string                   `json:"titulo"`
	Secoes []ResumoEstrategicoSecao `json:"secoes"`
}

type ResumoEstrategicoSecao struct {
	ID               string            `json:"id"`
	Titulo           string            `json:"titulo"`
	Campos           []Campo           `json:"campos,omitempty"`
	StatusProcessual *StatusProcessual `json:"statusProcessual,omitempty"`
	QuestaoCentral   *QuestaoCentral   `json:"questaoCentral,omitempty"`
}

type StatusProcessual struct {
	Descricao          string              `json:"descricao,omitempty"`
	ProximaProvidencia *ProximaProvidencia `json:"proximaProvidencia,omitempty"`
}

type ProximaProvidencia struct {
	Parte       string `json:"parte,omitempty"`
	Providencia string `json:"providencia,omitempty"`
	Prazo       string `json:"prazo,omitempty"`
}

type QuestaoCentral struct {
	Titulo            string      `json:"titulo,omitempty"`
	Descricao         string      `json:"descricao,omitempty"`
	ArgumentosPorPolo []Argumento `json:"argumentosPorPolo,omitempty"`
}

type Argumento struct {
	ID                          string `json:"id"`
	Titulo                      string `json:"titulo"`
	FundamentacaoLegal          string `json:"fundamentacaoLegal,omitempty"`
	FatosRelevantes             string `json:"fatosRelevantes,omitempty"`
	ConsistenciaJurisprudencial string `json:"consistenciaJurisprudencial,omitempty"`
}

func (*ResumoEstrategico) Category() Category { return CategoryResumoEstrategico }
func (a *ResumoEstrategico) Title() string { return a.Titulo }
func (a *ResumoEstrategico) Accept(v Visitor) error { return v.VisitResumoEstrategico(a) }
func (*ResumoEstrategico) sealed() {}

var resumoAliases = []string{"resumo_estrategico", "resumoEstrategicoProcesso", "resumo"}

func NormalizeResumoEstrategico(raw string) Result {
	return NormalizeGeneric(raw, "resumoEstrategico", resumoAliases, buildResumoEstrategico)
}

func buildResumoEstrategico(root gjson.Result) Analysis {
	out := &ResumoEstrategico{
		Titulo: titleOr(root, "Resumo Estratégico"),
		Secoes: []ResumoEstrategicoSecao{},
	}
	for i, s := range sections(root) {
		secao := ResumoEstrategicoSecao{
			ID:     s.strOr(indexedID("secao", i), "id"),
			Titulo: s.str("titulo"),
			Campos: s.campos("campos"),
		}
		if st := s.get("statusProcessual"); st.exists() {
			status := &StatusProcessual{Descricao: st.label("descricao")}
			if !st.isObject() {
				status.Descricao = textOf(st)
			}
			if pp := st.get("proximaProvidencia"); pp.exists() {
				status.ProximaProvidencia = &ProximaProvidencia{
					Parte:       pp.str("parte"),
					Providencia: pp.str("providencia"),
					Prazo:       pp.str("prazo"),
				}
				if !pp.isObject() {
					status.ProximaProvidencia.Providencia = textOf(pp)
				}
			}
			secao.StatusProcessual = status
		}
		if q := s.get("questaoCentral"); q.isObject() {
			questao := &QuestaoCentral{
				Titulo:    q.str("titulo"),
				Descricao: q.str("descricao"),
			}
			for j, a := range q.objects("argumentosPorPolo", "argumentos") {
				questao.ArgumentosPorPolo = append(questao.ArgumentosPorPolo, Argumento{
					ID:                          a.strOr(indexedID("argumento", j), "id"),
					Titulo:                      a.str("titulo", "polo"),
					FundamentacaoLegal:          a.str("fundamentacaoLegal"),
					FatosRelevantes:             a.str("fatosRelevantes"),
					ConsistenciaJurisprudencial: a.str("consistenciaJurisprudencial"),
				})
			}
			secao.QuestaoCentral = questao
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
