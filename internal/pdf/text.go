package pdf

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'", "‚", "'",
	"–", "-", "—", "-", "−", "-",
	"…", "...",
	"•", "-",
	"\u00a0", " ", "\u2009", " ", "\u202f", " ",
	"\t", "    ",
	"\r\n", "\n",
)

// NormalizeText composes s to NFC, folds typographic punctuation and drops
// every rune the PDF core fonts (Windows-1252) cannot draw.
func NormalizeText(s string) string {
	s = punctuation.Replace(norm.NFC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 {
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// wrap breaks text into lines no wider than width. Words longer than a line
// are split between runes. Explicit newlines are kept.
func wrap(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			candidate := w
			if cur != "" {
				candidate = cur + " " + w
			}
			if measure(candidate) <= width {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			cur = ""
			for measure(w) > width {
				head, tail := splitToWidth(w, width, measure)
				lines = append(lines, head)
				w = tail
			}
			cur = w
		}
		lines = append(lines, cur)
	}
	return lines
}

// splitToWidth returns the longest prefix of w that fits, and the rest.
// At least one rune is always consumed.
func splitToWidth(w string, width float64, measure func(string) float64) (string, string) {
	rs := []rune(w)
	n := 1
	for n < len(rs) && measure(string(rs[:n+1])) <= width {
		n++
	}
	return string(rs[:n]), string(rs[n:])
}
