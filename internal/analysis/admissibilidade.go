package analysis

import "github.com/tidwall/gjson"

type Admissibilidade struct {
	Titulo string                 `json:"titulo"`
	Secoes []AdmissibilidadeSecao `json:"secoes"`
}

type AdmissibilidadeSecao struct {
	ID                    string                `json:"id"`
	Titulo                string                `json:"titulo"`
	Campos                []Campo               `json:"campos,omitempty"`
	RecursosIdentificados []RecursoIdentificado `json:"listaRecursosIdentificados,omitempty"`
	RecursosCabiveis      []RecursoCabivel      `json:"listaRecursosCabiveis,omitempty"`
}

type RecursoIdentificado struct {
	ID                        string `json:"id"`
	TipoRecurso               string `json:"tipoRecurso"`
	DataInterposicao          string `json:"dataInterposicao,omitempty"`
	Tempestividade            string `json:"tempestividade,omitempty"`
	PreparoComprovado         string `json:"preparoComprovado,omitempty"`
	RegularidadeFormal        string `json:"regularidadeFormal,omitempty"`
	JuizoAdmissibilidade      string `json:"juizoAdmissibilidade,omitempty"`
	SituacaoAtual             string `json:"situacaoAtual,omitempty"`
	DecisaoAdmissibilidadeDoc string `json:"decisaoAdmissibilidadeDoc,omitempty"`
	Notas                     string `json:"notas,omitempty"`
}

type RecursoCabivel struct {
	ID                    string `json:"id"`
	TipoDecisaoRecorrivel string `json:"tipoDecisaoRecorrivel"`
	DataDecisao           string `json:"dataDecisao,omitempty"`
	RecursoCabivel        string `json:"recursoCabivel"`
	PrazoLegal            string `json:"prazoLegal,omitempty"`
	BaseLegal             string `json:"baseLegal,omitempty"`
	DataFinalInterposicao string `json:"dataFinalInterposicao,omitempty"`
	Situacao              string `json:"situacao,omitempty"`
	Observacoes           string `json:"observacoes,omitempty"`
}

func (*Admissibilidade) Category() Category { return CategoryAdmissibilidade }
func (a *Admissibilidade) Title() string { return a.Titulo }
func (a *Admissibilidade) Accept(v Visitor) error { return v.VisitAdmissibilidade(a) }
func (*Admissibilidade) sealed() {}

var admissibilidadeAliases = []string{"recursos_admissibilidade", "admissibilidadeRecursal", "admissibilidade_recursal", "admissibilidade"}

func NormalizeAdmissibilidade(raw string) Result {
	return NormalizeGeneric(raw, "recursosAdmissibilidade", admissibilidadeAliases, buildAdmissibilidade)
}

func buildAdmissibilidade(root gjson.Result) Analysis {
	out := &Admissibilidade{
		Titulo: titleOr(root, "Admissibilidade Recursal"),
		Secoes: []AdmissibilidadeSecao{},
	}
	for i, s := range sections(root) {
		secao := AdmissibilidadeSecao{
			ID:     s.strOr(indexedID("secao", i), "id"),
			Titulo: s.str("titulo"),
			Campos: s.campos("campos"),
		}
		for j, r := range s.objects("listaRecursosIdentificados", "recursosIdentificados") {
			secao.RecursosIdentificados = append(secao.RecursosIdentificados, RecursoIdentificado{
				ID:                        r.strOr(indexedID("recurso", j), "id"),
				TipoRecurso:               r.label("tipoRecurso", "tipo"),
				DataInterposicao:          r.str("dataInterposicao"),
				Tempestividade:            r.label("tempestividade"),
				PreparoComprovado:         r.label("preparoComprovado"),
				RegularidadeFormal:        r.label("regularidadeFormal"),
				JuizoAdmissibilidade:      r.label("juizoAdmissibilidade"),
				SituacaoAtual:             r.label("situacaoAtual", "situacao"),
				DecisaoAdmissibilidadeDoc: r.str("decisaoAdmissibilidadeDoc"),
				Notas:                     r.str("notas", "observacoes"),
			})
		}
		for j, r := range s.objects("listaRecursosCabiveis", "recursosCabiveis") {
			secao.RecursosCabiveis = append(secao.RecursosCabiveis, RecursoCabivel{
				ID:                    r.strOr(indexedID("cabivel", j), "id"),
				TipoDecisaoRecorrivel: r.label("tipoDecisaoRecorrivel", "decisao"),
				DataDecisao:           r.str("dataDecisao"),
				RecursoCabivel:        r.label("recursoCabivel", "recurso"),
				PrazoLegal:            r.str("prazoLegal", "prazo"),
				BaseLegal:             r.str("baseLegal"),
				DataFinalInterposicao: r.str("dataFinalInterposicao"),
				Situacao:              r.label("situacao"),
				Observacoes:           r.str("observacoes", "notas"),
			})
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
