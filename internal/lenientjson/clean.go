package lenientjson

import (
	"encoding/json"
	"strings"
)

var introPrefixes = []string{
	"com base",
	"aqui está",
	"aqui esta",
	"segue",
	"conforme solicitado",
	"abaixo",
	"resposta",
	"here is",
	"here's",
	"based on",
	"sure",
}

func aggressiveClean(raw string) string {
	s := StripFences(raw)
	s = stripIntro(s)
	s = StripFences(s)
	s = unwrapQuoted(s)
	s = repairControlChars(s)
	s = removeTrailingCommas(s)
	s = balance(s)
	return strings.TrimSpace(s)
}

// stripIntro drops a conversational preamble that precedes the document.
func stripIntro(s string) string {
	if s == "" || s[0] == '{' || s[0] == '[' {
		return s
	}
	lower := strings.ToLower(s)
	matched := false
	for _, p := range introPrefixes {
		if strings.HasPrefix(lower, p) {
			matched = true
			break
		}
	}
	if !matched {
		return s
	}
	idx := strings.IndexAny(s, "{[")
	if fence := strings.Index(s, "```"); fence >= 0 && (idx < 0 || fence < idx) {
		idx = fence
	}
	if idx < 0 {
		return s
	}
	return strings.TrimSpace(s[idx:])
}

// unwrapQuoted decodes a document that was serialized a second time as a
// JSON string.
func unwrapQuoted(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		return s
	}
	inner = StripFences(inner)
	if inner == "" || (inner[0] != '{' && inner[0] != '[') {
		return s
	}
	return inner
}

// repairControlChars escapes raw line breaks and tabs inside strings and
// drops every other ASCII control character.
func repairControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				if c < 0x20 {
					continue
				}
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			case c == '\n':
				b.WriteString(`\n`)
				continue
			case c == '\r':
				b.WriteString(`\r`)
				continue
			case c == '\t':
				b.WriteString(`\t`)
				continue
			case c < 0x20:
				continue
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		} else if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// removeTrailingCommas drops commas that directly precede a closing bracket
// or brace. Commas inside strings are untouched.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// balance closes a document that was truncated: an open string is
// terminated, a dangling separator is resolved and missing closers are
// appended in nesting order.
func balance(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !inString && len(stack) == 0 {
		return s
	}
	if inString {
		if escaped {
			s = s[:len(s)-1]
		}
		s += `"`
	}
	s = strings.TrimRight(s, " \t\r\n")
	switch {
	case strings.HasSuffix(s, ","):
		s = s[:len(s)-1]
	case strings.HasSuffix(s, ":"):
		s += "null"
	case len(stack) > 0 && stack[len(stack)-1] == '}' && endsWithDanglingKey(s):
		s += ":null"
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}

// endsWithDanglingKey reports whether s ends with a string that sits in key
// position, as in `{"a":1,"b"`.
func endsWithDanglingKey(s string) bool {
	if !strings.HasSuffix(s, `"`) || len(s) < 2 {
		return false
	}
	i := len(s) - 2
	for i >= 0 {
		if s[i] == '"' && (i == 0 || s[i-1] != '\\') {
			break
		}
		i--
	}
	i--
	for i >= 0 && isSpace(s[i]) {
		i--
	}
	return i >= 0 && (s[i] == '{' || s[i] == ',')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
