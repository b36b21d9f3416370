// Package server exposes normalization, rendering and processo management
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/cache"
	"github.com/joelkehle/analysis-views/internal/docextract"
	"github.com/joelkehle/analysis-views/internal/pdf"
	"github.com/joelkehle/analysis-views/internal/pipeline"
	"github.com/joelkehle/analysis-views/internal/report"
	"github.com/joelkehle/analysis-views/internal/store"
)

const maxBodyBytes = 8 << 20

var tracer = otel.Tracer("github.com/joelkehle/analysis-views/internal/server")

type Store interface {
	pipeline.Store
	CreateProcesso(ctx context.Context, nome, documentText string) (store.Processo, error)
	AddSection(ctx context.Context, processoID string, in store.NewSection) (store.Section, error)
	Ping(ctx context.Context) error
}

type Processor interface {
	ProcessNext(ctx context.Context, processoID string) (pipeline.Outcome, error)
}

// Deps are the server's collaborators. Processor may be nil when no
// generator is configured.
type Deps struct {
	Store     Store
	Processor Processor
	Engine    pdf.Engine
	PDFCache  *cache.Cache[[]byte]
	Registry  analysis.Registry
	Logger    *zap.Logger
	Clock     func() time.Time
}

type Server struct {
	store     Store
	processor Processor
	engine    pdf.Engine
	pdfCache  *cache.Cache[[]byte]
	registry  analysis.Registry
	logger    *zap.Logger
	now       func() time.Time
}

func NewServer(d Deps) http.Handler {
	s := &Server{
		store:     d.Store,
		processor: d.Processor,
		engine:    d.Engine,
		pdfCache:  d.PDFCache,
		registry:  d.Registry,
		logger:    d.Logger,
		now:       d.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("server")
	if s.registry == nil {
		s.registry = analysis.DefaultRegistry()
	}
	if s.engine == nil {
		s.engine = pdf.NativeEngine{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/normalize", s.handleNormalize)
	mux.HandleFunc("POST /v1/render", s.handleRender)
	mux.HandleFunc("POST /v1/processos", s.handleCreateProcesso)
	mux.HandleFunc("GET /v1/processos/{id}", s.handleGetProcesso)
	mux.HandleFunc("POST /v1/processos/{id}/sections", s.handleAddSection)
	mux.HandleFunc("GET /v1/processos/{id}/sections", s.handleListSections)
	mux.HandleFunc("POST /v1/processos/{id}/process-next", s.handleProcessNext)
	mux.HandleFunc("GET /v1/processos/{id}/view", s.handleView)
	mux.HandleFunc("GET /v1/processos/{id}/pdf", s.handlePDF)
	return withRequestID(withAccessLog(s.logger, mux))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := asError(err)
	if e.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, e.Status, map[string]any{
		"error": map[string]any{
			"code":      e.Code,
			"message":   e.Message,
			"transient": e.Transient,
		},
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	blob, err := readBody(w, r, maxBodyBytes)
	if err != nil {
		return err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return invalidJSON(err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	body := map[string]any{
		"status":     status,
		"generation": s.processor != nil,
		"categories": len(s.registry),
	}
	if s.pdfCache != nil {
		body["pdf_cache"] = s.pdfCache.Stats()
	}
	writeJSON(w, code, body)
}

type sectionInput struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
	Format   string `json:"format"`
	Name     string `json:"name"`
}

func (s *Server) selectView(title, category, content string) (analysis.View, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(category) == "" {
		return analysis.View{}, validationError("title or category is required")
	}
	tag, ok := s.registry.ParseCategory(category)
	if category != "" && !ok {
		s.logger.Debug("unknown category tag, matching by title", zap.String("category", category))
	}
	return s.registry.SelectTagged(tag, title, content), nil
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "server.normalize")
	defer span.End()

	var in sectionInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.selectView(in.Title, in.Category, in.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("kind", string(v.Kind())), attribute.String("category", string(v.Category)))
	body, err := viewEnvelope(v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// viewEnvelope is the normalize response: a summary of how the view was
// selected plus the canonical record, or the raw fallback.
func viewEnvelope(v analysis.View) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			body, err = sjson.SetBytes(body, path, value)
		}
	}
	set("title", v.Title)
	set("kind", string(v.Kind()))
	set("matched", v.Matched)
	set("tagged", v.Tagged)
	if v.Category != "" {
		set("category", string(v.Category))
	}
	set("success", v.Result.Success)
	set("method", string(v.Result.Method))
	keys := v.Result.OriginalKeys
	if keys == nil {
		keys = []string{}
	}
	set("original_keys", keys)
	if v.Result.Data != nil {
		data, merr := json.Marshal(v.Result.Data)
		if merr != nil {
			return nil, merr
		}
		if err == nil {
			body, err = sjson.SetRawBytes(body, "data", data)
		}
	}
	if v.Raw != nil {
		set("raw.reason", v.Raw.Reason)
		set("raw.parsed", v.Raw.Parsed)
		set("raw.empty", v.Raw.Empty)
		set("raw.content", v.Raw.Content)
		if v.Raw.Pretty != "" {
			set("raw.pretty", v.Raw.Pretty)
		}
	}
	return body, err
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "server.render")
	defer span.End()

	var in sectionInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.selectView(in.Title, in.Category, in.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := []analysis.View{v}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = v.Title
	}
	format := strings.ToLower(strings.TrimSpace(in.Format))
	span.SetAttributes(attribute.String("format", format))
	switch format {
	case "", "html":
		page, err := report.HTMLPage(name, s.now(), views)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, page)
	case "markdown", "md":
		md, err := report.MarkdownDocument(name, s.now(), views)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, md)
	case "pdf":
		at := s.now()
		out, err := s.engine.Render(ctx, pdf.Document{Name: name, Generated: at, Views: views})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writePDF(w, pdf.FileName(name, at), out)
	default:
		s.writeError(w, r, validationError("format %q is not one of html, markdown, pdf", in.Format))
	}
}

func writePDF(w http.ResponseWriter, fileName string, body []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

// readBody reads at most limit bytes of the request body. Larger bodies
// fail with a too_large error instead of being cut short.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, newError(CodeTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), false)
	case err != nil:
		return nil, validationError("read body: %v", err)
	}
	return blob, nil
}

func (s *Server) handleCreateProcesso(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Nome         string `json:"nome"`
		DocumentText string `json:"document_text"`
	}
	if isDocumentUpload(r) {
		doc, err := s.readDocument(w, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in.DocumentText = doc.Text
		in.Nome = r.URL.Query().Get("nome")
		if strings.TrimSpace(in.Nome) == "" {
			in.Nome = docextract.ProcessoNumber(doc.Text)
		}
	} else if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.Nome) == "" {
		s.writeError(w, r, validationError("nome is required"))
		return
	}
	p, err := s.store.CreateProcesso(r.Context(), in.Nome, in.DocumentText)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func isDocumentUpload(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/pdf") || strings.HasPrefix(ct, "text/plain")
}

// readDocument extracts the text of a raw PDF or plain-text request body.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (docextract.Result, error) {
	blob, err := readBody(w, r, docextract.MaxPDFBytes)
	if err != nil {
		return docextract.Result{}, err
	}
	doc, err := docextract.Bytes(r.Context(), blob)
	if errors.Is(err, docextract.ErrNoText) {
		return docextract.Result{}, validationError("document has no extractable text")
	}
	if err != nil {
		return docextract.Result{}, err
	}
	s.logger.Info("document extracted",
		zap.String("method", string(doc.Method)),
		zap.Int("chars", len(doc.Text)),
		zap.Bool("truncated", doc.Truncated))
	return doc, nil
}

func (s *Server) handleGetProcesso(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProcesso(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PromptTitle    string `json:"prompt_title"`
		Category       string `json:"category"`
		Content        string `json:"content"`
		PromptContent  string `json:"prompt_content"`
		SystemPrompt   string `json:"system_prompt"`
		ExecutionOrder int    `json:"execution_order"`
		MaxRetries     int    `json:"max_retries"`
	}
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(in.PromptTitle) == "" {
		s.writeError(w, r, validationError("prompt_title is required"))
		return
	}
	if strings.TrimSpace(in.Content) == "" && strings.TrimSpace(in.PromptContent) == "" {
		s.writeError(w, r, validationError("content or prompt_content is required"))
		return
	}
	if in.Category != "" {
		if _, ok := s.registry.ParseCategory(in.Category); !ok {
			s.writeError(w, r, validationError("unknown category %q", in.Category))
			return
		}
	}
	sec, err := s.store.AddSection(r.Context(), r.PathValue("id"), store.NewSection{
		PromptTitle:    in.PromptTitle,
		Category:       in.Category,
		Content:        in.Content,
		PromptContent:  in.PromptContent,
		SystemPrompt:   in.SystemPrompt,
		ExecutionOrder: in.ExecutionOrder,
		MaxRetries:     in.MaxRetries,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sec)
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetProcesso(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	sections, err := s.store.ListSections(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handleProcessNext(w http.ResponseWriter, r *http.Request) {
	if s.processor == nil {
		s.writeError(w, r, newError(CodeUnavailable, "no generator configured", false))
		return
	}
	out, err := s.processor.ProcessNext(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, pipeline.ErrNothingPending):
		writeJSON(w, http.StatusOK, out)
	case err != nil && out.Section.ID != "":
		s.writeError(w, r, newError(CodeUnavailable, err.Error(), true))
	case err != nil:
		s.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) loadViews(ctx context.Context, id string) (store.Processo, []analysis.View, []store.Section, error) {
	p, err := s.store.GetProcesso(ctx, id)
	if err != nil {
		return store.Processo{}, nil, nil, err
	}
	views, sections, err := pipeline.Views(ctx, s.store, s.registry, id)
	if err != nil {
		return store.Processo{}, nil, nil, err
	}
	return p, views, sections, nil
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	p, views, _, err := s.loadViews(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := report.HTMLPage(p.Nome, s.now(), views)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "server.pdf")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("processo_id", id))
	p, views, sections, err := s.loadViews(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(views) == 0 {
		s.writeError(w, r, newError(CodeNotFound, "processo has no completed sections", false))
		return
	}

	at := s.now()
	fileName := pdf.FileName(p.Nome, at)
	key := pdfCacheKey(id, sections)
	if s.pdfCache != nil {
		if body, ok := s.pdfCache.Get(key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			writePDF(w, fileName, body)
			return
		}
	}
	body, err := s.engine.Render(ctx, pdf.Document{Name: p.Nome, Generated: at, Views: views})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.pdfCache != nil {
		s.pdfCache.Set(key, body)
	}
	writePDF(w, fileName, body)
}

// pdfCacheKey changes whenever a completed section is added or updated.
func pdfCacheKey(id string, sections []store.Section) string {
	var latest time.Time
	for _, sec := range sections {
		if sec.UpdatedAt.After(latest) {
			latest = sec.UpdatedAt
		}
	}
	return id + "|" + strconv.Itoa(len(sections)) + "|" + latest.UTC().Format(time.RFC3339Nano)
}
