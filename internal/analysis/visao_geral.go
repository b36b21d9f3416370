package analysis

import "github.com/tidwall/gjson"

type VisaoGeral struct {
	Titulo string            `json:"titulo"`
	Secoes []VisaoGeralSecao `json:"secoes"`
}

type VisaoGeralSecao struct {
	ID                    string                `json:"id"`
	Titulo                string                `json:"titulo"`
	Campos                []Campo               `json:"campos,omitempty"`
	DocumentosAnalisados  []DocumentoAnalisado  `json:"documentosAnalisados,omitempty"`
	Partes                []Parte               `json:"lista,omitempty"`
	EventosProcessuais    []EventoProcessual    `json:"eventosProcessuais,omitempty"`
	ProcessosRelacionados []ProcessoRelacionado `json:"processosRelacionados,omitempty"`
}

type DocumentoAnalisado struct {
	ID           string `json:"id"`
	Arquivo      string `json:"arquivo"`
	Paginas      string `json:"paginas,omitempty"`
	TipoProcesso string `json:"tipoProcesso,omitempty"`
}

type Parte struct {
	ID            string `json:"id"`
	Nome          string `json:"nome"`
	CPFCNPJ       string `json:"cpfCnpj,omitempty"`
	Polo          string `json:"Polo,omitempty"`
	PoloDoUsuario bool   `json:"poloDoUsuario,omitempty"`
}

type EventoProcessual struct {
	ID     string `json:"id"`
	Evento string `json:"evento"`
	Data   string `json:"data,omitempty"`
	Resumo string `json:"resumo,omitempty"`
}

type ProcessoRelacionado struct {
	ID      string `json:"id"`
	Numero  string `json:"numero"`
	Relacao string `json:"relacao,omitempty"`
	Notas   string `json:"notas,omitempty"`
}

func (*VisaoGeral) Category() Category { return CategoryVisaoGeral }
func (a *VisaoGeral) Title() string { return a.Titulo }
func (a *VisaoGeral) Accept(v Visitor) error { return v.VisitVisaoGeral(a) }
func (*VisaoGeral) sealed() {}

var visaoGeralAliases = []string{"visao_geral_processo", "visaoGeral", "visao_geral"}

func NormalizeVisaoGeral(raw string) Result {
	return NormalizeGeneric(raw, "visaoGeralProcesso", visaoGeralAliases, buildVisaoGeral)
}

func buildVisaoGeral(root gjson.Result) Analysis {
	out := &VisaoGeral{
		Titulo: titleOr(root, "Visão Geral do Processo"),
		Secoes: []VisaoGeralSecao{},
	}
	for i, s := range sections(root) {
		secao := VisaoGeralSecao{
			ID:     s.strOr(indexedID("secao", i), "id"),
			Titulo: s.str("titulo"),
			Campos: s.campos("campos"),
		}
		for j, d := range s.objects("documentosAnalisados") {
			secao.DocumentosAnalisados = append(secao.DocumentosAnalisados, DocumentoAnalisado{
				ID:           d.strOr(indexedID("documento", j), "id"),
				Arquivo:      d.str("arquivo", "nome"),
				Paginas:      d.str("paginas", "totalPaginas"),
				TipoProcesso: d.str("tipoProcesso", "tipo"),
			})
		}
		for j, p := range s.objects("lista", "partes") {
			secao.Partes = append(secao.Partes, Parte{
				ID:            p.strOr(indexedID("parte", j), "id"),
				Nome:          p.label("nome"),
				CPFCNPJ:       p.str("cpfCnpj", "cpf", "cnpj", "documento"),
				Polo:          p.label("Polo", "polo"),
				PoloDoUsuario: p.flag("poloDoUsuario"),
			})
		}
		for j, e := range s.objects("eventosProcessuais", "eventos") {
			secao.EventosProcessuais = append(secao.EventosProcessuais, EventoProcessual{
				ID:     e.strOr(indexedID("evento", j), "id"),
				Evento: e.label("evento", "descricao"),
				Data:   e.str("data"),
				Resumo: e.str("resumo"),
			})
		}
		for j, p := range s.objects("processosRelacionados") {
			secao.ProcessosRelacionados = append(secao.ProcessosRelacionados, ProcessoRelacionado{
				ID:      p.strOr(indexedID("processo", j), "id"),
				Numero:  p.label("numero"),
				Relacao: p.str("relacao"),
				Notas:   p.str("notas"),
			})
		}
		out.Secoes = append(out.Secoes, secao)
	}
	return out
}
