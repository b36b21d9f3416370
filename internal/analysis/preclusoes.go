package analysis

import "github.com/tidwall/gjson"

type MapaPreclusoes struct {
	Titulo string                `json:"titulo"`
	Secoes []MapaPreclusoesSecao `json:"secoes"`
}

type MapaPreclusoesSecao struct {
	ID                 string             `json:"id"`
	Titulo             string             `json:"titulo"`
	Campos             []Campo            `json:"campos,omitempty"`
	PreclusoesRecentes []PreclusaoRecente `json:"listaPreclusoesRecentes,omitempty"`
	RiscosImediatos    []RiscoImediato    `json:"listaRiscosImediatos,omitempty"`
	Observacoes        string             `json:"observacoes,omitempty"`
	AnaliseGlobal      *AnalisePreclusoes `json:"analiseGlobal,omitempty"`
}

type PreclusaoRecente struct {
	ID                  string          `json:"id"`
	Tipo                string          `json:"tipo"`
	AtoOuFaseAtingida   string          `json:"atoOuFaseAtingida"`
	PoloAfetado         string          `json:"poloAfetado,omitempty"`
	DataInicioPrazo     string          `json:"dataInicioPrazo,omitempty"`
	DataFinalPrazo      string          `json:"dataFinalPrazo,omitempty"`
	BaseLegal           string          `json:"baseLegal,omitempty"`
	ConsequenciaPratica string          `json:"consequenciaPratica,omitempty"`
	AcaoRecomendada     string          `json:"acaoRecomendada,omitempty"`
	BaseDocumental      *BaseDocumental `json:"baseDocumental,omitempty"`
	Observacoes         string          `json:"observacoes,omitempty"`
}

type RiscoImediato struct {
	ID                 string          `json:"id"`
	AtoOuFase          string          `json:"atoOuFase"`
	PoloAfetado        string          `json:"poloAfetado,omitempty"`
	PrazoFinalEstimado string          `json:"prazoFinalEstimado,omitempty"`
	Urgencia           string          `json:"urgencia,omitempty"`
	AcaoRecomendada    string          `json:"acaoRecomendada,omitempty"`
	BaseLegal          string          `json:"baseLegal,omitempty"`
	BaseDocumental     *BaseDocumental `json:"baseDocumental,omitempty"`
	Observacoes        string          `json:"observacoes,omitempty"`
}

type AnalisePreclusoes struct {
	TotalPreclusoesRecentes   string `json:"totalPreclusoesRecentes,omitempty"`
	TotalRiscosImediatos      string `json:"totalRiscosImediatos,omitempty"`
	AnaliseImpactoEstrategico string `json:"analiseImpactoEstrategico,omitempty"`
	OportunidadesAlegacao     string `json:"oportunidadesAlegacao,omitempty"`
	AcoesPrioritariasGerais   string `json:"acoesPrioritariasGerais,omitempty"`
}

func (*MapaPreclusoes) Category() Category { return CategoryMapaPreclusoes }
func (a *MapaPreclusoes) Title() string { return a.Titulo }
func (a *MapaPreclusoes) Accept(v Visitor) error { return v.VisitMapaPreclusoes(a) }
func (*MapaPreclusoes) sealed() {}

var preclusoesAliases = []string{"mapa_preclusoes_processuais", "mapaPreclusoes", "mapa_preclusoes", "preclusoes"}

func NormalizeMapaPreclusoes(raw string) Result {
	return NormalizeGeneric(raw, "mapaPreclusoesProcessuais", preclusoesAliases, buildMapaPreclusoes)
}

func buildMapaPreclusoes(root gjson.Result) Analysis {
	out := &MapaPreclusoes{
		Titulo: titleOr(root, "Mapa de Preclusões Processuais"),
		Secoes: []MapaPreclusoesSecao{},
	}
	for i, s := range sections(root) {
		secao := MapaPreclusoesSecao{
			ID:          s.strOr(indexedID("secao", i), "id"),
			Titulo:      s.str("titulo"),
			Campos:      s.campos("campos"),
			Observacoes: s.str("observacoes"),
		}
		for j, p := range s.objects("listaPreclusoesRecentes", "preclusoesRecentes", "preclusoes") {
			secao.PreclusoesRecentes = append(secao.PreclusoesRecentes, PreclusaoRecente{
				ID:                  p.strOr(indexedID("preclusao", j), "id"),
				Tipo:                p.label("tipo"),
				AtoOuFaseAtingida:   p.str("atoOuFaseAtingida", "atoOuFase"),
				PoloAfetado:         p.label("poloAfetado"),
				DataInicioPrazo:     p.str("dataInicioPrazo"),
				DataFinalPrazo:      p.str("dataFinalPrazo"),
				BaseLegal:           p.str("baseLegal"),
				ConsequenciaPratica: p.str("consequenciaPratica"),
				AcaoRecomendada:     p.str("acaoRecomendada"),
				BaseDocumental:      p.baseDocumental("baseDocumental"),
				Observacoes:         p.str("observacoes"),
			})
		}
		for j, r := range s.objects("listaRiscosImediatos", "riscosImediatos") {
			secao.RiscosImediatos = append(secao.RiscosImediatos, RiscoImediato{
				ID:                 r.strOr(indexedID("risco", j), "id"),
				AtoOuFase:          r.str("atoOuFase", "atoOuFaseAtingida"),
				PoloAfetado:        r.label("poloAfetado"),
				PrazoFinalEstimado: r.str("prazoFinalEstimado"),
				Urgencia:           r.label("urgencia"),
				AcaoRecomendada:    r.str("acaoRecomendada"),
				BaseLegal:          r.str("baseLegal"),
				BaseDocumental:     r.baseDocumental("baseDocumental"),
				Observacoes:        r.str("observacoes"),
			})
		}
		if g := s.get("analiseGlobal"); g.isObject() {
			secao.AnaliseGlobal = &AnalisePreclusoes{
				TotalPreclusoesRecentes:   g.str("totalPreclusoesRecentes"),
				TotalRiscosImediatos:      g.str("totalRiscosImediatos"),
				AnaliseImpactoEstrategico: g.str("analiseImpactoEstrategico"),
				OportunidadesAlegacao:     g.str("oportunidadesAlegacao"),
				AcoesPrioritariasGerais:   g.str("acoesPrioritariasGerais"),
			}
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
