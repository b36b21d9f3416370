package analysis

import (
	"strings"

	"github.com/joelkehle/analysis-views/internal/lenientjson"
	"github.com/joelkehle/analysis-views/internal/resolve"
	"github.com/joelkehle/analysis-views/internal/safeval"
	"github.com/tidwall/gjson"
)

const (
	statusNaoIdentificado     = "Status não identificado"
	tipoNaoIdentificado       = "Tipo não identificado"
	arNaoLocalizado           = "Não localizado nos autos"
	defaultComunicacoesTitulo = "Comunicações e Prazos"
)

type ComunicacoesPrazos struct {
	Titulo string                    `json:"titulo"`
	Secoes []ComunicacoesPrazosSecao `json:"secoes"`
}

type ComunicacoesPrazosSecao struct {
	ID        string `json:"id"`
	Titulo    string `json:"titulo"`
	ListaAtos []Ato  `json:"listaAtos"`
}

// Ato is one communication act. Destinatarios always holds at least one
// recipient.
type Ato struct {
	ID              string         `json:"id"`
	TipoAto         string         `json:"tipoAto"`
	Modalidade      string         `json:"modalidade"`
	Destinatarios   []Destinatario `json:"destinatarios"`
	DetalhesAR      *DetalhesAR    `json:"detalhesAR,omitempty"`
	PrazosDerivados []Prazo        `json:"prazosDerivados,omitempty"`
}

// Destinatario returns the first recipient.
func (a Ato) Destinatario() Destinatario {
	if len(a.Destinatarios) == 0 {
		return Destinatario{}
	}
	return a.Destinatarios[0]
}

type Destinatario struct {
	Nome             string `json:"nome"`
	Documento        string `json:"documento,omitempty"`
	Tipo             string `json:"tipo"`
	Status           string `json:"status"`
	DataAto          string `json:"dataAto,omitempty"`
	DataJuntada      string `json:"dataJuntada,omitempty"`
	PaginaJuntadaAto string `json:"paginaJuntadaAto,omitempty"`
	Notas            string `json:"notas,omitempty"`
	Pagina           string `json:"pagina,omitempty"`
}

type DetalhesAR struct {
	NomeManuscrito           string   `json:"nomeManuscrito,omitempty"`
	AssinaturaPresente       string   `json:"assinaturaPresente,omitempty"`
	MotivoDevolucaoExistente string   `json:"motivoDevolucaoExistente,omitempty"`
	MotivoDevolucaoIndicado  []string `json:"motivoDevolucaoIndicado,omitempty"`
	Notas                    string   `json:"notas,omitempty"`
}

type Prazo struct {
	ID          string `json:"id"`
	TipoPrazo   string `json:"tipoPrazo"`
	Finalidade  string `json:"finalidade"`
	BaseLegal   string `json:"baseLegal,omitempty"`
	DataInicio  string `json:"dataInicio,omitempty"`
	Duracao     string `json:"duracao,omitempty"`
	DataFinal   string `json:"dataFinal,omitempty"`
	Status      string `json:"status"`
	Observacoes string `json:"observacoes,omitempty"`
}

func (*ComunicacoesPrazos) Category() Category { return CategoryComunicacoesPrazos }
func (a *ComunicacoesPrazos) Title() string { return a.Titulo }
func (a *ComunicacoesPrazos) Accept(v Visitor) error { return v.VisitComunicacoesPrazos(a) }
func (*ComunicacoesPrazos) sealed() {}

var comunicacoesCandidates = []string{
	"comunicacoesPrazos",
	"comunicacoes_prazos",
	"comunicacoesEPrazos",
	"comunicacoes",
	"dados",
	"resultado",
	"output",
	"data",
}

var comunicacoesSignatures = [][]string{
	{"tipoAto", "destinatario", "modalidade"},
	{"tipo", "destinatario", "data"},
	{"ato", "prazo", "status"},
}

// NormalizeComunicacoesPrazos recognises, in priority order, a root
// atosProcessuais.listaAtosComunicacao list, a root atosComunicacao list,
// a section-shaped payload under one of the candidate keys, and finally any
// nested list whose items look like communication acts.
func NormalizeComunicacoesPrazos(raw string) Result {
	parsed := lenientjson.Extract(raw)
	if !parsed.OK {
		return fallback(parsed)
	}
	doc := parsed.Value
	keys := parsed.Keys()
	ok := func(data Analysis, method Method) Result {
		return Result{Success: true, Data: data, Method: method, OriginalKeys: keys}
	}

	if atos := safeval.Path(doc, "atosProcessuais", "listaAtosComunicacao"); atos.IsArray() {
		titulo := titleOr(safeval.Field(doc, "atosProcessuais"), titleOr(doc, defaultComunicacoesTitulo))
		return ok(singleSection(titulo, "secao_principal", "Citações e Intimações", atos), MethodFlexibleKey)
	}
	if atos := safeval.Field(doc, "atosComunicacao"); atos.IsArray() {
		return ok(singleSection(titleOr(doc, defaultComunicacoesTitulo), "secao_principal", "Citações e Intimações", atos), MethodFlexibleKey)
	}

	search := doc
	if m := resolve.Resolve(doc, comunicacoesCandidates); m.Found() {
		data := m.Value
		if hasSecoes(data) {
			method := MethodFlexibleKey
			if m.Key == "comunicacoesPrazos" {
				method = MethodDirect
			}
			return ok(buildComunicacoes(data), method)
		}
		if atos := safeval.Field(data, "atosComunicacao"); atos.IsArray() {
			return ok(singleSection(titleOr(data, defaultComunicacoesTitulo), "secao_principal", "Citações e Intimações", atos), MethodFlexibleKey)
		}
		if atos := safeval.Coalesce(safeval.Field(data, "listaAtos"), safeval.Field(data, "atos")); safeval.IsNonEmptyArray(atos) && atos.Array()[0].IsObject() {
			return ok(singleSection(titleOr(data, defaultComunicacoesTitulo), "secao_normalizada", "Atos", atos), MethodFlexibleKey)
		}
		search = data
	} else if hasSecoes(doc) {
		return ok(buildComunicacoes(doc), MethodFlexibleKey)
	}

	if arr, found := resolve.FindArrayBySignature(search, comunicacoesSignatures); found {
		titulo := defaultComunicacoesTitulo
		if search.IsObject() {
			titulo = titleOr(search, titulo)
		}
		return ok(singleSection(titulo, "secao_extraida", "Atos de Comunicação", arr), MethodArrayExtraction)
	}
	return fallback(parsed)
}

func singleSection(titulo, id, secaoTitulo string, atos gjson.Result) *ComunicacoesPrazos {
	return &ComunicacoesPrazos{
		Titulo: titulo,
		Secoes: []ComunicacoesPrazosSecao{{
			ID:        id,
			Titulo:    secaoTitulo,
			ListaAtos: normalizeAtos(atos),
		}},
	}
}

func buildComunicacoes(root gjson.Result) *ComunicacoesPrazos {
	out := &ComunicacoesPrazos{
		Titulo: titleOr(root, defaultComunicacoesTitulo),
		Secoes: []ComunicacoesPrazosSecao{},
	}
	for i, s := range sections(root) {
		atos := safeval.Coalesce(s.get("listaAtos").v, s.get("atosComunicacao").v, s.get("atos").v)
		out.Secoes = append(out.Secoes, ComunicacoesPrazosSecao{
			ID:        s.strOr(indexedID("secao", i), "id"),
			Titulo:    s.str("titulo"),
			ListaAtos: normalizeAtos(atos),
		})
	}
	return out
}

func normalizeAtos(list gjson.Result) []Ato {
	atos := []Ato{}
	for _, item := range objectItems(list) {
		atos = append(atos, normalizeAto(item))
	}
	return atos
}

func normalizeAto(a node) Ato {
	ato := Ato{
		ID:         a.strOr("ato_sem_id", "id", "idAto"),
		TipoAto:    a.strOr(tipoNaoIdentificado, "tipoAto", "tipo", "ato"),
		Modalidade: a.strOr("Modalidade não identificada", "modalidade", "meio"),
	}

	dest := a.get("destinatario")
	if !dest.exists() {
		dest = a.get("destinatarios")
	}
	if dest.v.IsArray() {
		for _, d := range dest.v.Array() {
			ato.Destinatarios = append(ato.Destinatarios, recipientFromList(a, node{v: d}))
		}
	}
	if len(ato.Destinatarios) == 0 {
		ato.Destinatarios = []Destinatario{singleRecipient(a, dest)}
	}

	if ar := a.get("detalhesAR"); ar.isObject() && ar.str("status") != arNaoLocalizado {
		detalhes := &DetalhesAR{
			NomeManuscrito:           ar.str("nomeManuscritoRecebedor", "nomeManuscrito", "recebedor"),
			AssinaturaPresente:       ar.str("assinaturaPresente"),
			MotivoDevolucaoExistente: ar.str("motivoDevolucaoExistente"),
			MotivoDevolucaoIndicado:  ar.strings("motivoDevolucaoIndicado"),
			Notas:                    ar.str("notas"),
		}
		if motivo := ar.str("motivoDevolucao"); motivo != "" {
			detalhes.MotivoDevolucaoExistente = "Sim"
			detalhes.MotivoDevolucaoIndicado = []string{motivo}
		}
		ato.DetalhesAR = detalhes
	}

	prazos := a.objects("prazos")
	if len(prazos) == 0 {
		prazos = a.objects("prazosDerivados")
	}
	for _, p := range prazos {
		ato.PrazosDerivados = append(ato.PrazosDerivados, normalizePrazo(p))
	}
	return ato
}

// dated looks a field up in datasRelevantes, then datas, then on the act
// itself, returning the first usable value.
func dated(a node, names ...string) gjson.Result {
	for _, container := range []node{a.get("datasRelevantes"), a.get("datas"), a} {
		for _, name := range names {
			if v := safeval.Field(container.v, name); safeval.Truthy(v) {
				return v
			}
		}
	}
	return gjson.Result{}
}

func firstPage(a node) gjson.Result {
	pages := safeval.EnsureArray(a.path("referencia", "paginas").v)
	if len(pages) == 0 {
		return gjson.Result{}
	}
	return pages[0]
}

// statusOf reads statusAto as either a plain string or an object carrying
// a status field.
func statusOf(a node) string {
	st := a.get("statusAto")
	if st.isObject() {
		return st.label("status")
	}
	return textOf(st)
}

func singleRecipient(a, dest node) Destinatario {
	d := Destinatario{
		Nome:      dest.strOr("Destinatário não identificado", "nome"),
		Documento: dest.str("documento", "cpfCnpj"),
		Tipo:      dest.strOr(tipoNaoIdentificado, "qualificacao", "tipo"),
	}
	if dest.v.Type == gjson.String {
		d.Nome = dest.v.Str
	}
	d.Status = firstNonEmpty(statusOf(a), dest.label("status"), a.label("validadeStatus"), statusNaoIdentificado)
	d.DataAto = safeval.Text(dated(a, "dataExpedicaoAto", "dataAto"), dest.get("dataAto").v)
	d.DataJuntada = safeval.Text(dated(a, "dataJuntadaComprovante", "dataJuntada"), dest.get("dataJuntada").v)
	page := safeval.Coalesce(firstPage(a), dated(a, "paginaJuntadaAto", "pagina"))
	d.PaginaJuntadaAto = safeval.Text(page, dest.get("paginaJuntadaAto").v)
	d.Pagina = safeval.Text(page, dest.get("pagina").v)
	d.Notas = a.str("notas")
	if d.Notas == "" && a.get("statusAto").isObject() {
		d.Notas = a.get("statusAto").str("justificativa")
	}
	if d.Notas == "" {
		d.Notas = dest.str("notas")
	}
	return d
}

func recipientFromList(a, dest node) Destinatario {
	if !dest.isObject() {
		d := singleRecipient(a, node{})
		d.Nome = firstNonEmpty(textOf(dest), d.Nome)
		return d
	}
	page := safeval.Coalesce(firstPage(a), dated(a, "paginaJuntadaAto", "pagina"))
	return Destinatario{
		Nome:             dest.strOr("Destinatário não identificado", "nome"),
		Documento:        dest.str("documento", "cpfCnpj"),
		Tipo:             dest.strOr(tipoNaoIdentificado, "qualificacao", "tipo"),
		Status:           firstNonEmpty(dest.label("status"), statusOf(a), a.label("validadeStatus"), statusNaoIdentificado),
		DataAto:          safeval.Text(dest.get("dataAto").v, dated(a, "dataExpedicaoAto", "dataAto")),
		DataJuntada:      safeval.Text(dest.get("dataJuntada").v, dated(a, "dataJuntadaComprovante", "dataJuntada")),
		PaginaJuntadaAto: safeval.Text(dest.get("paginaJuntadaAto").v, page),
		Notas:            firstNonEmpty(dest.str("notas"), a.str("notas")),
		Pagina:           safeval.Text(dest.get("pagina").v, page),
	}
}

func normalizePrazo(p node) Prazo {
	calc := p.get("calculo")
	pick := func(calcKey string, keys ...string) gjson.Result {
		vals := []gjson.Result{safeval.Field(calc.v, calcKey)}
		for _, k := range keys {
			vals = append(vals, safeval.Field(p.v, k))
		}
		return safeval.Coalesce(vals...)
	}
	status := pick("statusJuridico", "statusJuridico", "status")
	return Prazo{
		ID:          p.strOr("prazo_sem_id", "idPrazo", "id"),
		TipoPrazo:   p.strOr(tipoNaoIdentificado, "tipo", "tipoPrazo"),
		Finalidade:  p.strOr("Finalidade não especificada", "finalidade"),
		BaseLegal:   p.str("baseLegal"),
		DataInicio:  safeval.ToString(pick("termoInicial", "termoInicial", "dataInicio")),
		Duracao:     duration(pick("duracaoDias", "duracaoDias", "duracao")),
		DataFinal:   safeval.ToString(pick("termoFinal", "termoFinal", "dataFinal")),
		Status:      firstNonEmpty(safeval.ExtractString(status), statusNaoIdentificado),
		Observacoes: safeval.ToString(pick("observacoes", "observacoes")),
	}
}

// duration flattens {valor, unidade} into "<valor> <unidade>".
func duration(v gjson.Result) string {
	if !v.IsObject() {
		return safeval.ToString(v)
	}
	d := node{v: v}
	valor := d.str("valor", "quantidade")
	unidade := d.str("unidade")
	if valor == "" {
		return safeval.ExtractString(v)
	}
	return strings.TrimSpace(valor + " " + unidade)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
