// Package pipeline drives section generation for a processo and turns
// completed sections into views.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/generator"
	"github.com/joelkehle/analysis-views/internal/lenientjson"
	"github.com/joelkehle/analysis-views/internal/store"
)

var ErrNothingPending = errors.New("pipeline: nothing pending")

var tracer = otel.Tracer("github.com/joelkehle/analysis-views/internal/pipeline")

// Store is the persistence the processor needs.
type Store interface {
	GetProcesso(ctx context.Context, id string) (store.Processo, error)
	SetProcessoStatus(ctx context.Context, id string, status store.Status) error
	ListSections(ctx context.Context, processoID string) ([]store.Section, error)
	ClaimNextPending(ctx context.Context, processoID string) (store.Section, error)
	CompleteSection(ctx context.Context, id, content, model, method string) error
	FailSection(ctx context.Context, id string, cause error) (store.Section, error)
	ReleaseSection(ctx context.Context, id string) error
	CountOpen(ctx context.Context, processoID string) (int, error)
}

type Processor struct {
	store    Store
	gen      generator.Generator
	registry analysis.Registry
	logger   *zap.Logger
}

func NewProcessor(st Store, gen generator.Generator, reg analysis.Registry, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = analysis.DefaultRegistry()
	}
	return &Processor{store: st, gen: gen, registry: reg, logger: logger.Named("pipeline")}
}

// Outcome describes one ProcessNext call.
type Outcome struct {
	Section  store.Section        `json:"section"`
	Kind     analysis.ViewKind    `json:"kind,omitempty"`
	Attempts []generator.Attempt `json:"attempts,omitempty"`
	Done     bool                 `json:"done"`
}

// ProcessNext generates the next pending section of a processo. It returns
// ErrNothingPending when no section can be claimed; Done is set only once
// every section is settled and the processo is marked completed.
//
// Section and processo updates outlive ctx, so a caller that goes away
// mid-generation never strands a section in processing.
func (p *Processor) ProcessNext(ctx context.Context, processoID string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "Processor.ProcessNext",
		trace.WithAttributes(attribute.String("processo_id", processoID)))
	defer span.End()

	proc, err := p.store.GetProcesso(ctx, processoID)
	if err != nil {
		return Outcome{}, err
	}
	bookkeeping := context.WithoutCancel(ctx)
	sec, err := p.store.ClaimNextPending(ctx, processoID)
	if errors.Is(err, store.ErrNotFound) {
		done, err := p.finishIfSettled(bookkeeping, processoID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Done: done}, ErrNothingPending
	}
	if err != nil {
		return Outcome{}, err
	}
	if proc.Status == store.StatusPending {
		if err := p.store.SetProcessoStatus(bookkeeping, processoID, store.StatusProcessing); err != nil {
			return Outcome{}, err
		}
	}

	log := p.logger.With(
		zap.String("processo_id", processoID),
		zap.String("section_id", sec.ID),
		zap.String("prompt_title", sec.PromptTitle),
	)
	span.SetAttributes(attribute.String("section_id", sec.ID), attribute.String("prompt_title", sec.PromptTitle))

	resp, err := p.gen.Generate(ctx, generator.Request{
		SystemPrompt: sec.SystemPrompt,
		Prompt:       sec.PromptContent,
		DocumentText: proc.DocumentText,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		if ctx.Err() != nil {
			if rerr := p.store.ReleaseSection(bookkeeping, sec.ID); rerr != nil {
				return Outcome{}, errors.Join(err, rerr)
			}
			log.Info("generation interrupted, section released", zap.Error(err))
			sec.Status = store.StatusPending
			return Outcome{Section: sec, Attempts: resp.Attempts}, fmt.Errorf("generate %q: %w", sec.PromptTitle, err)
		}
		failed, ferr := p.store.FailSection(bookkeeping, sec.ID, err)
		if ferr != nil {
			return Outcome{}, errors.Join(err, ferr)
		}
		log.Warn("section generation failed",
			zap.Int("retry_count", failed.RetryCount),
			zap.String("status", string(failed.Status)),
			zap.Error(err))
		return Outcome{Section: failed, Attempts: resp.Attempts}, fmt.Errorf("generate %q: %w", sec.PromptTitle, err)
	}

	content := lenientjson.StripFences(resp.Content)
	view := p.selectView(sec, content)
	method := string(view.Result.Method)
	if view.Raw != nil {
		method = string(analysis.KindRaw)
		log.Info("section kept as raw text", zap.String("reason", view.Raw.Reason))
	}
	if err := p.store.CompleteSection(bookkeeping, sec.ID, content, resp.Model, method); err != nil {
		return Outcome{}, err
	}
	log.Info("section completed", zap.String("model", resp.Model), zap.String("method", method))

	done, err := p.finishIfSettled(bookkeeping, processoID)
	if err != nil {
		return Outcome{}, err
	}
	sec.Status = store.StatusCompleted
	sec.Content = content
	sec.Model = resp.Model
	sec.Method = method
	return Outcome{Section: sec, Kind: view.Kind(), Attempts: resp.Attempts, Done: done}, nil
}

// RunAll processes sections until none are pending. Generation failures
// are retried until the section's max_retries is spent; other errors stop the run.
func (p *Processor) RunAll(ctx context.Context, processoID string) (int, error) {
	completed := 0
	for {
		out, err := p.ProcessNext(ctx, processoID)
		switch {
		case errors.Is(err, ErrNothingPending):
			return completed, nil
		case err != nil && ctx.Err() != nil:
			return completed, ctx.Err()
		case err != nil && out.Section.ID != "":
			continue
		case err != nil:
			return completed, err
		}
		completed++
		if err := ctx.Err(); err != nil {
			return completed, err
		}
	}
}

func (p *Processor) selectView(sec store.Section, content string) analysis.View {
	tag, ok := p.registry.ParseCategory(sec.Category)
	if !ok {
		p.logger.Debug("no usable category tag, matching by title",
			zap.String("category", sec.Category), zap.String("prompt_title", sec.PromptTitle))
	}
	return p.registry.SelectTagged(tag, sec.PromptTitle, content)
}

func (p *Processor) settled(ctx context.Context, processoID string) (bool, error) {
	open, err := p.store.CountOpen(ctx, processoID)
	if err != nil {
		return false, err
	}
	return open == 0, nil
}

func (p *Processor) finishIfSettled(ctx context.Context, processoID string) (bool, error) {
	done, err := p.settled(ctx, processoID)
	if err != nil || !done {
		return false, err
	}
	return true, p.store.SetProcessoStatus(ctx, processoID, store.StatusCompleted)
}

// Views normalizes every completed section of a processo concurrently and
// returns the views in execution order.
func Views(ctx context.Context, st Store, reg analysis.Registry, processoID string) ([]analysis.View, []store.Section, error) {
	if reg == nil {
		reg = analysis.DefaultRegistry()
	}
	sections, err := st.ListSections(ctx, processoID)
	if err != nil {
		return nil, nil, err
	}
	var done []store.Section
	for _, s := range sections {
		if s.Status == store.StatusCompleted {
			done = append(done, s)
		}
	}

	views := make([]analysis.View, len(done))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, s := range done {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tag, _ := reg.ParseCategory(s.Category)
			views[i] = reg.SelectTagged(tag, s.PromptTitle, s.Content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return views, done, nil
}
