package analysis

import "github.com/tidwall/gjson"

type Conclusoes struct {
	Titulo string            `json:"titulo"`
	Secoes []ConclusoesSecao `json:"secoes"`
}

type ConclusoesSecao struct {
	ID                   string                `json:"id"`
	Titulo               string                `json:"titulo"`
	Campos               []Campo               `json:"campos,omitempty"`
	Completude           *Completude           `json:"completude,omitempty"`
	Legibilidade         *Legibilidade         `json:"legibilidade,omitempty"`
	CoerenciaCronologica *CoerenciaCronologica `json:"coerenciaCronologica,omitempty"`
	AnaliseConfianca     *AnaliseConfianca     `json:"analiseConfianca,omitempty"`
	SinteseGlobal        *SinteseGlobal        `json:"sinteseGlobal,omitempty"`
	ObservacoesFinais    string                `json:"observacoesFinais,omitempty"`
}

type Completude struct {
	Nivel                 string   `json:"nivel,omitempty"`
	Descricao             string   `json:"descricao,omitempty"`
	PremissasFundamentais []string `json:"premissasFundamentais,omitempty"`
}

type Legibilidade struct {
	Nivel     string `json:"nivel,omitempty"`
	Descricao string `json:"descricao,omitempty"`
}

type CoerenciaCronologica struct {
	Status      string `json:"status,omitempty"`
	Observacoes string `json:"observacoes,omitempty"`
}

type AnaliseConfianca struct {
	NivelConfianca    string `json:"nivelConfianca,omitempty"`
	Justificativa     string `json:"justificativa,omitempty"`
	LimitacoesAnalise string `json:"limitacoesAnalise,omitempty"`
}

type SinteseGlobal struct {
	SituacaoAtualProcesso      string `json:"situacaoAtualProcesso,omitempty"`
	TendenciaEvolucao          string `json:"tendenciaEvolucao,omitempty"`
	SinteseRiscosOportunidades string `json:"sinteseRiscosOportunidades,omitempty"`
	ProximosPassosPossiveis    string `json:"proximosPassosPossiveis,omitempty"`
	ObservacoesFinais          string `json:"observacoesFinais,omitempty"`
}

func (*Conclusoes) Category() Category { return CategoryConclusoes }
func (a *Conclusoes) Title() string { return a.Titulo }
func (a *Conclusoes) Accept(v Visitor) error { return v.VisitConclusoes(a) }
func (*Conclusoes) sealed() {}

var conclusoesAliases = []string{"conclusoes_perspectivas", "conclusoes", "perspectivas"}

func NormalizeConclusoes(raw string) Result {
	return NormalizeGeneric(raw, "conclusoesPerspectivas", conclusoesAliases, buildConclusoes)
}

func buildConclusoes(root gjson.Result) Analysis {
	out := &Conclusoes{
		Titulo: titleOr(root, "Conclusões e Perspectivas"),
		Secoes: []ConclusoesSecao{},
	}
	for i, s := range sections(root) {
		secao := ConclusoesSecao{
			ID:                s.strOr(indexedID("secao", i), "id"),
			Titulo:            s.str("titulo"),
			Campos:            s.campos("campos"),
			ObservacoesFinais: s.str("observacoesFinais"),
		}
		if c := s.get("completude"); c.isObject() {
			secao.Completude = &Completude{
				Nivel:                 c.label("nivel"),
				Descricao:             c.str("descricao"),
				PremissasFundamentais: c.strings("premissasFundamentais"),
			}
		}
		if l := s.get("legibilidade"); l.isObject() {
			secao.Legibilidade = &Legibilidade{Nivel: l.label("nivel"), Descricao: l.str("descricao")}
		}
		if c := s.get("coerenciaCronologica"); c.isObject() {
			secao.CoerenciaCronologica = &CoerenciaCronologica{Status: c.label("status"), Observacoes: c.str("observacoes")}
		}
		if a := s.get("analiseConfianca"); a.isObject() {
			secao.AnaliseConfianca = &AnaliseConfianca{
				NivelConfianca:    a.label("nivelConfianca", "nivel"),
				Justificativa:     a.str("justificativa"),
				LimitacoesAnalise: a.str("limitacoesAnalise"),
			}
		}
		if g := s.get("sinteseGlobal"); g.isObject() {
			secao.SinteseGlobal = &SinteseGlobal{
				SituacaoAtualProcesso:      g.str("situacaoAtualProcesso"),
				TendenciaEvolucao:          g.str("tendenciaEvolucao"),
				SinteseRiscosOportunidades: g.str("sinteseRiscosOportunidades"),
				ProximosPassosPossiveis:    g.str("proximosPassosPossiveis"),
				ObservacoesFinais:          g.str("observacoesFinais"),
			}
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
