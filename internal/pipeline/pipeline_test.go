package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/generator"
	"github.com/joelkehle/analysis-views/internal/store"
)

type generateFunc func(ctx context.Context, req generator.Request) (generator.Response, error)

func (f generateFunc) Generate(ctx context.Context, req generator.Request) (generator.Response, error) {
	return f(ctx, req)
}

type namedModel struct {
	name string
	fn   generateFunc
}

func (m namedModel) Model() string { return m.name }

func (m namedModel) Generate(ctx context.Context, req generator.Request) (generator.Response, error) {
	return m.fn(ctx, req)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pipeline.db"), store.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var responses = map[string]string{
	"visao":  "```json\n{\"visaoGeralProcesso\":{\"secoes\":[{\"titulo\":\"Identificação\",\"campos\":[{\"label\":\"Número\",\"valor\":\"123\"}]}]}}\n```",
	"riscos": `{"listaAlertas":[{"categoria":"Nulidade","descricaoRisco":"Citação inválida","gravidade":"Alta"}]}`,
	"livre":  "Texto livre sem estrutura.",
}

func byPrompt(calls *[]string, mu *sync.Mutex) generateFunc {
	return func(_ context.Context, req generator.Request) (generator.Response, error) {
		mu.Lock()
		*calls = append(*calls, req.Prompt)
		mu.Unlock()
		return generator.Response{Content: responses[req.Prompt], Model: "fake"}, nil
	}
}

func seed(t *testing.T, s *store.Store) store.Processo {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "Processo 123", "PETIÇÃO INICIAL")
	require.NoError(t, err)
	for _, sec := range []store.NewSection{
		{PromptTitle: "Riscos e Alertas", PromptContent: "riscos", ExecutionOrder: 2},
		{PromptTitle: "Seção qualquer", Category: "visao-geral-processo", PromptContent: "visao", ExecutionOrder: 1},
		{PromptTitle: "Observações", PromptContent: "livre", ExecutionOrder: 3},
	} {
		_, err := s.AddSection(ctx, p.ID, sec)
		require.NoError(t, err)
	}
	return p
}

func TestProcessNextInOrder(t *testing.T) {
	s := newTestStore(t)
	p := seed(t, s)
	ctx := context.Background()

	var (
		calls []string
		mu    sync.Mutex
	)
	proc := NewProcessor(s, byPrompt(&calls, &mu), nil, nil)

	out, err := proc.ProcessNext(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.KindStructured, out.Kind)
	assert.Equal(t, string(analysis.MethodDirect), out.Section.Method)
	assert.False(t, strings.HasPrefix(out.Section.Content, "```"), "fences are stripped")
	assert.False(t, out.Done)

	got, err := s.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusProcessing, got.Status)

	out, err = proc.ProcessNext(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, string(analysis.MethodArrayExtraction), out.Section.Method)

	out, err = proc.ProcessNext(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.KindRaw, out.Kind)
	assert.Equal(t, "raw", out.Section.Method)
	assert.True(t, out.Done)

	_, err = proc.ProcessNext(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNothingPending)

	assert.Equal(t, []string{"visao", "riscos", "livre"}, calls)
	got, err = s.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
}

func TestRunAllRetriesThenFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)
	bad, err := s.AddSection(ctx, p.ID, store.NewSection{PromptTitle: "Conclusões", PromptContent: "boom", ExecutionOrder: 1, MaxRetries: 2})
	require.NoError(t, err)
	_, err = s.AddSection(ctx, p.ID, store.NewSection{PromptTitle: "Observações", PromptContent: "livre", ExecutionOrder: 2})
	require.NoError(t, err)

	var attempts int
	gen := generateFunc(func(_ context.Context, req generator.Request) (generator.Response, error) {
		if req.Prompt == "boom" {
			attempts++
			return generator.Response{}, errors.New("status code: 500")
		}
		return generator.Response{Content: responses[req.Prompt]}, nil
	})

	n, err := NewProcessor(s, gen, nil, nil).RunAll(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, attempts)

	failed, err := s.GetSection(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "500")

	got, err := s.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, got.Status)
}

func TestModelFallbackUsesSecondModel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)
	sec, err := s.AddSection(ctx, p.ID, store.NewSection{PromptTitle: "Riscos e Alertas", PromptContent: "riscos"})
	require.NoError(t, err)

	primary := namedModel{name: "primary", fn: func(context.Context, generator.Request) (generator.Response, error) {
		return generator.Response{}, errors.New("overloaded")
	}}
	secondary := namedModel{name: "secondary", fn: func(_ context.Context, req generator.Request) (generator.Response, error) {
		return generator.Response{Content: responses[req.Prompt]}, nil
	}}

	out, err := NewProcessor(s, generator.NewChain(nil, primary, secondary), nil, nil).ProcessNext(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, out.Attempts, 2)
	assert.Equal(t, "overloaded", out.Attempts[0].Error)

	stored, err := s.GetSection(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, "secondary", stored.Model)
}

func TestCancelledGenerationReleasesSection(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreateProcesso(context.Background(), "P", "")
	require.NoError(t, err)
	sec, err := s.AddSection(context.Background(), p.ID, store.NewSection{PromptTitle: "Observações", PromptContent: "livre"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hangup := generateFunc(func(ctx context.Context, _ generator.Request) (generator.Response, error) {
		cancel()
		return generator.Response{}, ctx.Err()
	})
	out, err := NewProcessor(s, hangup, nil, nil).ProcessNext(ctx, p.ID)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, out.Done)

	got, err := s.GetSection(context.Background(), sec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPending, got.Status)
	assert.Equal(t, 0, got.RetryCount)

	var (
		calls []string
		mu    sync.Mutex
	)
	out, err = NewProcessor(s, byPrompt(&calls, &mu), nil, nil).ProcessNext(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, out.Done)

	proc, err := s.GetProcesso(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, proc.Status)
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	s := newTestStore(t)
	p := seed(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	hangup := generateFunc(func(ctx context.Context, _ generator.Request) (generator.Response, error) {
		cancel()
		return generator.Response{}, ctx.Err()
	})
	n, err := NewProcessor(s, hangup, nil, nil).RunAll(ctx, p.ID)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n)

	open, err := s.CountOpen(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, open)
}

func TestNothingClaimableIsNotDone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)
	_, err = s.AddSection(ctx, p.ID, store.NewSection{PromptTitle: "Observações", PromptContent: "livre"})
	require.NoError(t, err)

	// Another worker holds the only section.
	_, err = s.ClaimNextPending(ctx, p.ID)
	require.NoError(t, err)

	out, err := NewProcessor(s, generateFunc(nil), nil, nil).ProcessNext(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNothingPending)
	assert.False(t, out.Done)

	got, err := s.GetProcesso(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, store.StatusCompleted, got.Status)
}

func TestProcessNextUnknownProcesso(t *testing.T) {
	s := newTestStore(t)
	_, err := NewProcessor(s, generateFunc(nil), nil, nil).ProcessNext(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestViewsKeepExecutionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.CreateProcesso(ctx, "P", "")
	require.NoError(t, err)

	titles := []string{"Visão Geral", "Resumo Estratégico", "Riscos e Alertas", "Balanço Financeiro", "Conclusões e Perspectivas", "Notas"}
	for i, title := range titles {
		_, err := s.AddSection(ctx, p.ID, store.NewSection{PromptTitle: title, Content: `{"x":1}`, ExecutionOrder: i})
		require.NoError(t, err)
	}
	_, err = s.AddSection(ctx, p.ID, store.NewSection{PromptTitle: "Pendente", ExecutionOrder: 99})
	require.NoError(t, err)

	views, sections, err := Views(ctx, s, nil, p.ID)
	require.NoError(t, err)
	require.Len(t, views, len(titles))
	require.Len(t, sections, len(titles))
	for i, v := range views {
		assert.Equal(t, titles[i], v.Title)
	}
	assert.Equal(t, analysis.KindRaw, views[len(views)-1].Kind())
}
