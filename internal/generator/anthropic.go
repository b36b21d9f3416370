package generator

import (
	"context"
	"errors"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultMaxTokens   = 16000
	defaultTemperature = 0.2
)

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

type AnthropicGenerator struct {
	messages    AnthropicMessager
	model       string
	maxTokens   int64
	temperature float64
}

type AnthropicOptions struct {
	MaxTokens   int64
	Temperature *float64
}

func NewAnthropicGenerator(apiKey, model string, opts AnthropicOptions) (*AnthropicGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("anthropic model not configured")
	}
	g := &AnthropicGenerator{
		messages:    newAnthropicClient(apiKey),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: defaultTemperature,
	}
	if g.maxTokens <= 0 {
		g.maxTokens = defaultMaxTokens
	}
	if opts.Temperature != nil {
		g.temperature = *opts.Temperature
	}
	return g, nil
}

// NewAnthropicChain builds one generator per model, in fallback order.
func NewAnthropicChain(apiKey string, models []string, opts AnthropicOptions) ([]ModelGenerator, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	out := make([]ModelGenerator, 0, len(models))
	for _, m := range models {
		g, err := NewAnthropicGenerator(apiKey, m, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (a *AnthropicGenerator) Model() string {
	return a.model
}

func (a *AnthropicGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	maxTokens := a.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	temperature := a.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   maxTokens,
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userText(req)))},
		Temperature: anthropic.Float(temperature),
	}
	if s := strings.TrimSpace(req.SystemPrompt); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}
	resp, err := a.messages.New(ctx, params)
	if err != nil {
		return Response{}, err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return Response{Content: sb.String(), Model: a.model}, nil
}
