// Package generator produces analysis section content with an LLM.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/joelkehle/analysis-views/internal/generator")

var (
	ErrNoModels      = errors.New("generator: no models configured")
	ErrEmptyResponse = errors.New("generator: empty response")
	ErrEmptyPrompt   = errors.New("generator: empty prompt")
)

type Request struct {
	SystemPrompt string
	Prompt       string
	DocumentText string
	MaxTokens    int64
	Temperature  float64
}

type Attempt struct {
	Model    string        `json:"model"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

type Response struct {
	Content  string    `json:"content"`
	Model    string    `json:"model"`
	Attempts []Attempt `json:"attempts"`
}

type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// userText places the document ahead of the instructions.
func userText(req Request) string {
	prompt := strings.TrimSpace(req.Prompt)
	doc := strings.TrimSpace(req.DocumentText)
	if doc == "" {
		return prompt
	}
	return "<documento>\n" + doc + "\n</documento>\n\n" + prompt
}

// ModelGenerator generates with one fixed model.
type ModelGenerator interface {
	Generator
	Model() string
}

// Chain tries each model in order and returns the first success. Every
// attempt, failed or not, is recorded on the response.
type Chain struct {
	models []ModelGenerator
	logger *zap.Logger
}

func NewChain(logger *zap.Logger, models ...ModelGenerator) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{models: models, logger: logger.Named("generator")}
}

func (c *Chain) Models() []string {
	out := make([]string, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m.Model())
	}
	return out
}

func (c *Chain) Generate(ctx context.Context, req Request) (Response, error) {
	if len(c.models) == 0 {
		return Response{}, ErrNoModels
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Response{}, ErrEmptyPrompt
	}
	var (
		attempts []Attempt
		lastErr  error
	)
	for i, m := range c.models {
		if err := ctx.Err(); err != nil {
			return Response{Attempts: attempts}, err
		}
		start := time.Now()
		attemptCtx, span := tracer.Start(ctx, "generator.attempt")
		span.SetAttributes(attribute.String("model", m.Model()), attribute.Int("attempt", i+1))
		resp, err := m.Generate(attemptCtx, req)
		if err == nil && strings.TrimSpace(resp.Content) == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		at := Attempt{Model: m.Model(), Duration: time.Since(start)}
		if err != nil {
			at.Error = err.Error()
			attempts = append(attempts, at)
			lastErr = err
			if i+1 < len(c.models) {
				c.logger.Warn("model failed, falling back",
					zap.String("model", m.Model()),
					zap.String("next_model", c.models[i+1].Model()),
					zap.Error(err))
			}
			continue
		}
		attempts = append(attempts, at)
		return Response{Content: resp.Content, Model: m.Model(), Attempts: attempts}, nil
	}
	return Response{Attempts: attempts}, fmt.Errorf("all %d models failed: %w", len(c.models), lastErr)
}
