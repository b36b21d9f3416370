package report

import (
	"strings"

	"github.com/joelkehle/analysis-views/internal/analysis"
)

func (o *outliner) VisitVisaoGeral(a *analysis.VisaoGeral) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		for _, d := range s.DocumentosAnalisados {
			o.field("Documento", joinNonEmpty(" | ", d.Arquivo, pages(d.Paginas), d.TipoProcesso))
		}
		for _, p := range s.Partes {
			nome := p.Nome
			if p.PoloDoUsuario {
				nome += " (polo do usuário)"
			}
			o.field(firstOf(p.Polo, "Parte"), joinNonEmpty(" | ", nome, p.CPFCNPJ))
		}
		for _, e := range s.EventosProcessuais {
			o.field(firstOf(e.Data, "Evento"), joinNonEmpty(": ", e.Evento, e.Resumo))
		}
		for _, p := range s.ProcessosRelacionados {
			o.field(firstOf(p.Relacao, "Processo relacionado"), joinNonEmpty(" | ", p.Numero, p.Notas))
		}
	}
	return nil
}

func (o *outliner) VisitResumoEstrategico(a *analysis.ResumoEstrategico) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		if st := s.StatusProcessual; st != nil {
			o.field("Status processual", st.Descricao)
			if p := st.ProximaProvidencia; p != nil {
				o.field("Próxima providência", joinNonEmpty(" | ", p.Providencia, p.Parte, p.Prazo))
			}
		}
		if q := s.QuestaoCentral; q != nil {
			o.heading(4, firstOf(q.Titulo, "Questão central"))
			o.text(q.Descricao)
			for _, arg := range q.ArgumentosPorPolo {
				o.heading(4, arg.Titulo)
				o.field("Fundamentação legal", arg.FundamentacaoLegal)
				o.field("Fatos relevantes", arg.FatosRelevantes)
				o.field("Consistência jurisprudencial", arg.ConsistenciaJurisprudencial)
			}
		}
	}
	return nil
}

func (o *outliner) VisitComunicacoesPrazos(a *analysis.ComunicacoesPrazos) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		for _, ato := range s.ListaAtos {
			o.heading(4, joinNonEmpty(" · ", ato.TipoAto, ato.Modalidade))
			for _, d := range ato.Destinatarios {
				o.field("Destinatário", joinNonEmpty(" | ", d.Nome, d.Tipo, d.Documento))
				o.badge("Status", d.Status, StatusTone(d.Status))
				o.field("Data do ato", d.DataAto)
				o.field("Data da juntada", d.DataJuntada)
				o.field("Página", firstOf(d.PaginaJuntadaAto, d.Pagina))
				o.field("Notas", d.Notas)
			}
			if ar := ato.DetalhesAR; ar != nil {
				o.field("AR recebido por", ar.NomeManuscrito)
				o.field("Assinatura presente", ar.AssinaturaPresente)
				o.field("Motivo de devolução", joinNonEmpty(": ", ar.MotivoDevolucaoExistente, strings.Join(ar.MotivoDevolucaoIndicado, ", ")))
				o.field("Notas do AR", ar.Notas)
			}
			for _, p := range ato.PrazosDerivados {
				o.field("Prazo", joinNonEmpty(" | ", p.TipoPrazo, p.Finalidade, p.Duracao))
				o.field("Período", joinNonEmpty(" a ", p.DataInicio, p.DataFinal))
				o.field("Base legal", p.BaseLegal)
				o.badge("Situação do prazo", p.Status, StatusTone(p.Status))
				o.field("Observações", p.Observacoes)
			}
		}
	}
	return nil
}

func (o *outliner) VisitAdmissibilidade(a *analysis.Admissibilidade) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		for _, r := range s.RecursosIdentificados {
			o.heading(4, r.TipoRecurso)
			o.field("Interposição", r.DataInterposicao)
			o.badge("Tempestividade", r.Tempestividade, TimelinessTone(r.Tempestividade))
			o.field("Preparo", r.PreparoComprovado)
			o.field("Regularidade formal", r.RegularidadeFormal)
			o.field("Juízo de admissibilidade", r.JuizoAdmissibilidade)
			o.badge("Situação", r.SituacaoAtual, AppealTone(r.SituacaoAtual))
			o.field("Decisão", r.DecisaoAdmissibilidadeDoc)
			o.field("Notas", r.Notas)
		}
		for _, r := range s.RecursosCabiveis {
			o.heading(4, joinNonEmpty(" contra ", r.RecursoCabivel, r.TipoDecisaoRecorrivel))
			o.field("Data da decisão", r.DataDecisao)
			o.field("Prazo legal", r.PrazoLegal)
			o.field("Base legal", r.BaseLegal)
			o.field("Prazo final", r.DataFinalInterposicao)
			o.badge("Situação", r.Situacao, AppealTone(r.Situacao))
			o.field("Observações", r.Observacoes)
		}
	}
	return nil
}

func (o *outliner) VisitEstrategiasJuridicas(a *analysis.EstrategiasJuridicas) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		for _, e := range s.ListaEstrategias {
			o.heading(4, firstOf(e.Polo, "Polo"))
			o.field("Situação atual", e.SituacaoAtualPolo)
			if p := e.EstrategiaPrincipal; p != nil {
				o.field("Estratégia principal", p.Descricao)
				o.field("Fundamentação legal", p.FundamentacaoLegal)
				o.field("Finalidade prática", p.FinalidadePratica)
				o.badge("Risco processual", p.RiscoProcessual, LevelTone(p.RiscoProcessual))
				o.badge("Custo estimado", p.CustoEstimado, LevelTone(p.CustoEstimado))
				o.field("Páginas", p.PaginasReferencia)
			}
			for _, c := range e.EstrategiasComplementares {
				o.field("Estratégia complementar", c.Descricao)
				o.field("Condição de adoção", c.CondicaoAdocao)
				o.field("Prioridade", c.Prioridade)
				o.badge("Risco processual", c.RiscoProcessual, LevelTone(c.RiscoProcessual))
			}
		}
		if g := s.AnaliseGlobal; g != nil {
			o.heading(4, "Análise global")
			o.field("Síntese estratégica", g.SinteseEstrategica)
			o.field("Pontos de atenção", g.PontosAtencaoCriticos)
			o.field("Oportunidades", g.OportunidadesJuridicasGerais)
			o.field("Riscos gerais", g.RiscosGeraisIdentificados)
		}
	}
	return nil
}

func (o *outliner) VisitRiscosAlertas(a *analysis.RiscosAlertas) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		for _, al := range s.Alertas {
			o.heading(4, al.Categoria)
			o.text(al.DescricaoRisco)
			o.badge("Gravidade", al.Gravidade, LevelTone(al.Gravidade))
			o.badge("Urgência", al.Urgencia, UrgencyTone(al.Urgencia))
			o.field("Polo afetado", al.PoloAfetado)
			o.field("Impacto para o usuário", al.ImpactoPoloUsuario)
			o.field("Ação recomendada", al.AcaoRecomendada)
			o.field("Fundamentação legal", al.FundamentacaoLegal)
			o.base(al.BaseDocumental)
			o.field("Observações", al.Observacoes)
		}
	}
	return nil
}

func (o *outliner) VisitBalancoFinanceiro(a *analysis.BalancoFinanceiro) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		o.base(s.BaseDocumental)
		for _, h := range s.Honorarios {
			o.heading(4, firstOf(h.Tipo, "Honorários"))
			o.field("Percentual ou valor", h.PercentualOuValor)
			o.field("Valor estimado", h.ValorEstimado)
			o.field("Fixação", joinNonEmpty(" | ", h.FaseFixacao, h.DataFixacao))
			o.field("Beneficiário", h.PoloBeneficiado)
			o.field("Base legal", h.BaseLegal)
			o.field("Página", h.PaginaReferencia)
			o.field("Situação", h.Situacao)
			o.field("Observações", h.Observacoes)
		}
		for _, c := range s.Constricoes {
			o.heading(4, firstOf(c.Tipo, "Constrição"))
			o.field("Valor constrito", c.ValorConstrito)
			o.field("Data", c.DataConstricao)
			o.field("Bem", c.TipoDeBem)
			o.field("Situação", c.SituacaoAtual)
			o.base(c.BaseDocumental)
			o.field("Observações", c.Observacoes)
		}
		for _, l := range s.Liberacoes {
			o.heading(4, "Liberação")
			o.field("Valor liberado", l.ValorLiberado)
			o.field("Beneficiário", l.Beneficiario)
			o.field("Data", l.DataLiberacao)
			o.field("Meio", l.MeioLiberacao)
			o.base(l.BaseDocumental)
			o.field("Observações", l.Observacoes)
		}
		for _, d := range s.Depositos {
			o.heading(4, firstOf(d.Tipo, "Depósito"))
			o.field("Valor depositado", d.ValorDepositado)
			o.field("Data", d.DataDeposito)
			o.field("Depositante", d.Depositante)
			o.field("Finalidade", d.Finalidade)
			o.base(d.BaseDocumental)
			o.field("Observações", d.Observacoes)
		}
		o.field("Observações", s.Observacoes)
	}
	return nil
}

func (o *outliner) VisitMapaPreclusoes(a *analysis.MapaPreclusoes) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		for _, p := range s.PreclusoesRecentes {
			o.heading(4, joinNonEmpty(": ", p.Tipo, p.AtoOuFaseAtingida))
			o.field("Polo afetado", p.PoloAfetado)
			o.field("Prazo", joinNonEmpty(" a ", p.DataInicioPrazo, p.DataFinalPrazo))
			o.field("Base legal", p.BaseLegal)
			o.field("Consequência prática", p.ConsequenciaPratica)
			o.field("Ação recomendada", p.AcaoRecomendada)
			o.base(p.BaseDocumental)
			o.field("Observações", p.Observacoes)
		}
		for _, r := range s.RiscosImediatos {
			o.heading(4, r.AtoOuFase)
			o.badge("Urgência", r.Urgencia, UrgencyTone(r.Urgencia))
			o.field("Polo afetado", r.PoloAfetado)
			o.field("Prazo final estimado", r.PrazoFinalEstimado)
			o.field("Ação recomendada", r.AcaoRecomendada)
			o.field("Base legal", r.BaseLegal)
			o.base(r.BaseDocumental)
			o.field("Observações", r.Observacoes)
		}
		if g := s.AnaliseGlobal; g != nil {
			o.heading(4, "Análise global")
			o.field("Preclusões recentes", g.TotalPreclusoesRecentes)
			o.field("Riscos imediatos", g.TotalRiscosImediatos)
			o.field("Impacto estratégico", g.AnaliseImpactoEstrategico)
			o.field("Oportunidades de alegação", g.OportunidadesAlegacao)
			o.field("Ações prioritárias", g.AcoesPrioritariasGerais)
		}
		o.field("Observações", s.Observacoes)
	}
	return nil
}

func (o *outliner) VisitConclusoes(a *analysis.Conclusoes) error {
	for _, s := range a.Secoes {
		o.heading(3, s.Titulo)
		o.campos(s.Campos)
		if c := s.Completude; c != nil {
			o.badge("Completude", c.Nivel, ConfidenceTone(c.Nivel))
			o.text(c.Descricao)
			o.list("Premissas fundamentais", c.PremissasFundamentais)
		}
		if l := s.Legibilidade; l != nil {
			o.badge("Legibilidade", l.Nivel, ConfidenceTone(l.Nivel))
			o.text(l.Descricao)
		}
		if c := s.CoerenciaCronologica; c != nil {
			o.badge("Coerência cronológica", c.Status, CoherenceTone(c.Status))
			o.text(c.Observacoes)
		}
		if c := s.AnaliseConfianca; c != nil {
			o.badge("Confiança", c.NivelConfianca, ConfidenceTone(c.NivelConfianca))
			o.field("Justificativa", c.Justificativa)
			o.field("Limitações", c.LimitacoesAnalise)
		}
		if g := s.SinteseGlobal; g != nil {
			o.heading(4, "Síntese global")
			o.field("Situação atual", g.SituacaoAtualProcesso)
			o.field("Tendência", g.TendenciaEvolucao)
			o.field("Riscos e oportunidades", g.SinteseRiscosOportunidades)
			o.field("Próximos passos", g.ProximosPassosPossiveis)
			o.field("Observações finais", g.ObservacoesFinais)
		}
		o.field("Observações finais", s.ObservacoesFinais)
	}
	return nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func pages(p string) string {
	if p == "" {
		return ""
	}
	return p + " páginas"
}
