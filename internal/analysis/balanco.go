package analysis

import "github.com/tidwall/gjson"

type BalancoFinanceiro struct {
	Titulo string                   `json:"titulo"`
	Secoes []BalancoFinanceiroSecao `json:"secoes"`
}

type BalancoFinanceiroSecao struct {
	ID             string          `json:"id"`
	Titulo         string          `json:"titulo"`
	Campos         []Campo         `json:"campos,omitempty"`
	BaseDocumental *BaseDocumental `json:"baseDocumental,omitempty"`
	Observacoes    string          `json:"observacoes,omitempty"`
	Honorarios     []Honorario     `json:"listaHonorarios,omitempty"`
	Constricoes    []Constricao    `json:"listaConstricoes,omitempty"`
	Liberacoes     []Liberacao     `json:"listaLiberacoes,omitempty"`
	Depositos      []Deposito      `json:"listaDepositos,omitempty"`
}

type Honorario struct {
	ID                string `json:"id"`
	Tipo              string `json:"tipo,omitempty"`
	PercentualOuValor string `json:"percentualOuValor,omitempty"`
	ValorEstimado     string `json:"valorEstimado,omitempty"`
	FaseFixacao       string `json:"faseFixacao,omitempty"`
	PoloBeneficiado   string `json:"poloBeneficiado,omitempty"`
	BaseLegal         string `json:"baseLegal,omitempty"`
	DataFixacao       string `json:"dataFixacao,omitempty"`
	PaginaReferencia  string `json:"paginaReferencia,omitempty"`
	Situacao          string `json:"situacao,omitempty"`
	Observacoes       string `json:"observacoes,omitempty"`
}

type Constricao struct {
	ID             string          `json:"id"`
	Tipo           string          `json:"tipo,omitempty"`
	ValorConstrito string          `json:"valorConstrito,omitempty"`
	DataConstricao string          `json:"dataConstricao,omitempty"`
	TipoDeBem      string          `json:"tipoDeBem,omitempty"`
	SituacaoAtual  string          `json:"situacaoAtual,omitempty"`
	BaseDocumental *BaseDocumental `json:"baseDocumental,omitempty"`
	Observacoes    string          `json:"observacoes,omitempty"`
}

type Liberacao struct {
	ID             string          `json:"id"`
	ValorLiberado  string          `json:"valorLiberado,omitempty"`
	Beneficiario   string          `json:"beneficiario,omitempty"`
	DataLiberacao  string          `json:"dataLiberacao,omitempty"`
	MeioLiberacao  string          `json:"meioLiberacao,omitempty"`
	BaseDocumental *BaseDocumental `json:"baseDocumental,omitempty"`
	Observacoes    string          `json:"observacoes,omitempty"`
}

type Deposito struct {
	ID              string          `json:"id"`
	Tipo            string          `json:"tipo,omitempty"`
	ValorDepositado string          `json:"valorDepositado,omitempty"`
	DataDeposito    string          `json:"dataDeposito,omitempty"`
	Depositante     string          `json:"depositante,omitempty"`
	Finalidade      string          `json:"finalidade,omitempty"`
	BaseDocumental  *BaseDocumental `json:"baseDocumental,omitempty"`
	Observacoes     string          `json:"observacoes,omitempty"`
}

func (*BalancoFinanceiro) Category() Category { return CategoryBalancoFinanceiro }
func (a *BalancoFinanceiro) Title() string { return a.Titulo }
func (a *BalancoFinanceiro) Accept(v Visitor) error { return v.VisitBalancoFinanceiro(a) }
func (*BalancoFinanceiro) sealed() {}

var balancoAliases = []string{"balanco_financeiro", "balanco", "financeiro"}

func NormalizeBalancoFinanceiro(raw string) Result {
	return NormalizeGeneric(raw, "balancoFinanceiro", balancoAliases, buildBalancoFinanceiro)
}

func buildBalancoFinanceiro(root gjson.Result) Analysis {
	out := &BalancoFinanceiro{
		Titulo: titleOr(root, "Balanço Financeiro"),
		Secoes: []BalancoFinanceiroSecao{},
	}
	for i, s := range sections(root) {
		secao := BalancoFinanceiroSecao{
			ID:             s.strOr(indexedID("secao", i), "id"),
			Titulo:         s.str("titulo"),
			Campos:         s.campos("campos"),
			BaseDocumental: s.baseDocumental("baseDocumental"),
			Observacoes:    s.str("observacoes"),
		}
		for j, h := range s.objects("listaHonorarios", "honorarios") {
			secao.Honorarios = append(secao.Honorarios, Honorario{
				ID:                h.strOr(indexedID("honorario", j), "id"),
				Tipo:              h.label("tipo"),
				PercentualOuValor: h.str("percentualOuValor", "percentual", "valor"),
				ValorEstimado:     h.str("valorEstimado"),
				FaseFixacao:       h.str("faseFixacao"),
				PoloBeneficiado:   h.label("poloBeneficiado"),
				BaseLegal:         h.str("baseLegal"),
				DataFixacao:       h.str("dataFixacao"),
				PaginaReferencia:  h.str("paginaReferencia", "pagina"),
				Situacao:          h.label("situacao"),
				Observacoes:       h.str("observacoes"),
			})
		}
		for j, c := range s.objects("listaConstricoes", "constricoes") {
			secao.Constricoes = append(secao.Constricoes, Constricao{
				ID:             c.strOr(indexedID("constricao", j), "id"),
				Tipo:           c.label("tipo"),
				ValorConstrito: c.str("valorConstrito", "valor"),
				DataConstricao: c.str("dataConstricao", "data"),
				TipoDeBem:      c.str("tipoDeBem"),
				SituacaoAtual:  c.label("situacaoAtual", "situacao"),
				BaseDocumental: c.baseDocumental("baseDocumental"),
				Observacoes:    c.str("observacoes"),
			})
		}
		for j, l := range s.objects("listaLiberacoes", "liberacoes") {
			secao.Liberacoes = append(secao.Liberacoes, Liberacao{
				ID:             l.strOr(indexedID("liberacao", j), "id"),
				ValorLiberado:  l.str("valorLiberado", "valor"),
				Beneficiario:   l.label("beneficiario"),
				DataLiberacao:  l.str("dataLiberacao", "data"),
				MeioLiberacao:  l.str("meioLiberacao"),
				BaseDocumental: l.baseDocumental("baseDocumental"),
				Observacoes:    l.str("observacoes"),
			})
		}
		for j, d := range s.objects("listaDepositos", "depositos") {
			secao.Depositos = append(secao.Depositos, Deposito{
				ID:              d.strOr(indexedID("deposito", j), "id"),
				Tipo:            d.label("tipo"),
				ValorDepositado: d.str("valorDepositado", "valor"),
				DataDeposito:    d.str("dataDeposito", "data"),
				Depositante:     d.label("depositante"),
				Finalidade:      d.str("finalidade"),
				BaseDocumental:  d.baseDocumental("baseDocumental"),
				Observacoes:     d.str("observacoes"),
			})
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
