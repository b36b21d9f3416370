package analysis

import (
	"strings"

	"github.com/joelkehle/analysis-views/internal/lenientjson"
)

type ViewKind string

const (
	KindStructured ViewKind = "structured"
	KindRaw        ViewKind = "raw"
)

// Reasons recorded on raw views.
const (
	ReasonEmpty      = "empty"
	ReasonUnmatched  = "no category matched the title"
	ReasonUnparsable = "content is not JSON"
	ReasonShape      = "no recognised shape"
)

// View is what the selector hands to renderers. Raw is set exactly when the
// generic raw renderer has to be used.
type View struct {
	Title    string   `json:"title"`
	Category Category `json:"category,omitempty"`
	Matched  bool     `json:"matched"`
	Tagged   bool     `json:"tagged,omitempty"`
	Result   Result   `json:"result"`
	Raw      *Raw     `json:"raw,omitempty"`
}

type Raw struct {
	Content string `json:"content"`
	Parsed  bool   `json:"parsed"`
	Pretty  string `json:"pretty,omitempty"`
	Empty   bool   `json:"empty,omitempty"`
	Reason  string `json:"reason"`
}

func (v View) Kind() ViewKind {
	if v.Raw != nil {
		return KindRaw
	}
	return KindStructured
}

// Select picks the view for a section from its display title alone.
func Select(title, content string) View {
	return DefaultRegistry().Select(title, content)
}

// SelectTagged prefers an explicit category tag and falls back to title
// matching when the tag is empty or unknown.
func SelectTagged(tag Category, title, content string) View {
	return DefaultRegistry().SelectTagged(tag, title, content)
}

func (r Registry) Select(title, content string) View {
	e, ok := r.Match(title)
	return r.view(e, ok, false, title, content)
}

func (r Registry) SelectTagged(tag Category, title, content string) View {
	if tag != "" {
		if e, ok := r.Lookup(tag); ok {
			return r.view(e, true, true, title, content)
		}
	}
	return r.Select(title, content)
}

func (r Registry) view(e Entry, matched, tagged bool, title, content string) View {
	v := View{Title: title, Matched: matched, Tagged: tagged}
	if matched {
		v.Category = e.Category
		if strings.TrimSpace(v.Title) == "" {
			v.Title = e.DefaultTitle
		}
	}
	if strings.TrimSpace(content) == "" {
		v.Result = Result{Method: MethodFallback}
		v.Raw = &Raw{Content: content, Empty: true, Reason: ReasonEmpty}
		return v
	}
	if !matched {
		v.Result = Result{Method: MethodFallback}
		v.Raw = rawOf(content, ReasonUnmatched)
		return v
	}
	v.Result = e.Normalize(content)
	if !v.Result.Success {
		v.Raw = rawOf(content, ReasonShape)
	}
	return v
}

func rawOf(content, reason string) *Raw {
	raw := &Raw{Content: content, Reason: reason}
	parsed := lenientjson.Extract(content)
	if !parsed.OK {
		if reason == ReasonShape {
			raw.Reason = ReasonUnparsable
		}
		return raw
	}
	raw.Parsed = true
	raw.Pretty = lenientjson.Prettify(parsed.Value.Raw)
	return raw
}
