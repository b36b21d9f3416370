package report

import "github.com/joelkehle/analysis-views/internal/safeval"

// Tone is the colour family of a status badge.
type Tone int

const (
	ToneNone Tone = iota
	ToneGray
	ToneGreen
	ToneBlue
	ToneAmber
	ToneRed
)

func (t Tone) String() string {
	switch t {
	case ToneGray:
		return "gray"
	case ToneGreen:
		return "green"
	case ToneBlue:
		return "blue"
	case ToneAmber:
		return "amber"
	case ToneRed:
		return "red"
	default:
		return "none"
	}
}

type toneRule struct {
	tone  Tone
	needs []string
}

func classify(s string, rules []toneRule, def Tone) Tone {
	for _, r := range rules {
		for _, n := range r.needs {
			if safeval.Includes(s, n) {
				return r.tone
			}
		}
	}
	return def
}

// StatusTone classifies communication and deadline statuses.
func StatusTone(s string) Tone {
	return classify(s, []toneRule{
		{ToneGreen, []string{"bem-sucedida", "cumprido"}},
		{ToneBlue, []string{"em curso"}},
		{ToneRed, []string{"esgotado", "escoado"}},
		{ToneRed, []string{"frustrada"}},
		{ToneAmber, []string{"suspenso"}},
	}, ToneGray)
}

// LevelTone classifies alta/média/baixa scales such as gravidade or nível
// de confiança, where alta is the critical end.
func LevelTone(s string) Tone {
	return classify(s, []toneRule{
		{ToneRed, []string{"alta", "alto"}},
		{ToneAmber, []string{"média", "media", "médio", "medio"}},
		{ToneGreen, []string{"baixa", "baixo"}},
	}, ToneGray)
}

// ConfidenceTone is LevelTone with the scale reversed.
func ConfidenceTone(s string) Tone {
	return classify(s, []toneRule{
		{ToneGreen, []string{"alta", "alto"}},
		{ToneAmber, []string{"média", "media", "médio", "medio"}},
		{ToneRed, []string{"baixa", "baixo"}},
	}, ToneGray)
}

func UrgencyTone(s string) Tone {
	return classify(s, []toneRule{
		{ToneRed, []string{"imediata"}},
		{ToneAmber, []string{"próxima", "proxima"}},
		{ToneBlue, []string{"monitoramento"}},
	}, ToneGray)
}

// AppealTone classifies the current situation of an appeal.
func AppealTone(s string) Tone {
	return classify(s, []toneRule{
		{ToneRed, []string{"inadmitido", "arquivado"}},
		{ToneGreen, []string{"julgado", "admitido"}},
		{ToneGray, []string{"não cabível", "nenhum"}},
		{ToneBlue, []string{"pendente", "em curso"}},
	}, ToneGray)
}

func TimelinessTone(s string) Tone {
	switch {
	case safeval.Includes(s, "intempestivo"):
		return ToneRed
	case safeval.Includes(s, "tempestivo"):
		return ToneGreen
	}
	return ToneGray
}

func CoherenceTone(s string) Tone {
	switch {
	case safeval.Includes(s, "incoerente"):
		return ToneRed
	case safeval.Includes(s, "parcialmente"):
		return ToneAmber
	case safeval.Includes(s, "coerente"):
		return ToneGreen
	}
	return ToneGray
}
