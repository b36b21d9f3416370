package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/app"
	"github.com/joelkehle/analysis-views/internal/config"
	"github.com/joelkehle/analysis-views/internal/generator"
	"github.com/joelkehle/analysis-views/internal/lenientjson"
	"github.com/joelkehle/analysis-views/internal/pipeline"
	"github.com/joelkehle/analysis-views/internal/store"
)

// newGenerator builds the model chain from config. Tests replace it.
var newGenerator = func(cfg *config.Config, logger *zap.Logger) (generator.Generator, error) {
	if !cfg.GenerationEnabled() {
		return nil, fmt.Errorf("generation disabled: set ANTHROPIC_API_KEY and generator.models")
	}
	temp := cfg.Generator.Temperature
	models, err := generator.NewAnthropicChain(cfg.Anthropic.APIKey, cfg.Generator.Models, generator.AnthropicOptions{
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}
	return generator.NewChain(logger, models...), nil
}

func newGenerateCmd(c *cli) *cobra.Command {
	var (
		sf           sectionFlags
		documentPath string
		systemPath   string
		format       string
		width        int
	)
	cmd := &cobra.Command{
		Use:   "generate [prompt-file]",
		Short: "Run one analysis prompt against a document and render the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req := generator.Request{Prompt: prompt}
			if documentPath != "" {
				b, err := os.ReadFile(documentPath)
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}
				req.DocumentText = string(b)
			}
			if systemPath != "" {
				b, err := os.ReadFile(systemPath)
				if err != nil {
					return fmt.Errorf("read system prompt: %w", err)
				}
				req.SystemPrompt = string(b)
			}
			gen, err := newGenerator(c.cfg, c.logger)
			if err != nil {
				return err
			}
			resp, err := gen.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			v, err := sf.view(lenientjson.StripFences(resp.Content))
			if err != nil {
				return err
			}
			var out string
			if strings.EqualFold(format, "json") {
				b, err := encodeView(v, "json")
				if err != nil {
					return err
				}
				out = string(b)
			} else {
				out, err = renderView(v, format, width, "")
				if err != nil {
					return err
				}
			}
			if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			status(cmd, v.Raw == nil, "%s with %s after %d attempt(s), %s", v.Title, resp.Model, len(resp.Attempts), describe(v))
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&documentPath, "document", "d", "", "document text file placed ahead of the prompt")
	cmd.Flags().StringVar(&systemPath, "system", "", "system prompt file")
	cmd.Flags().StringVarP(&format, "format", "f", "terminal", "output format: terminal, markdown, html or json")
	cmd.Flags().IntVar(&width, "width", 100, "terminal wrap width")
	return cmd
}

func newProcessCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <processo-id>",
		Short: "Generate every pending section of a stored processo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(c.cfg.Store.Path, store.Config{})
			if err != nil {
				return err
			}
			defer st.Close()

			gen, err := newGenerator(c.cfg, c.logger)
			if err != nil {
				return err
			}
			p := pipeline.NewProcessor(st, gen, analysis.DefaultRegistry(), c.logger)
			start := time.Now()
			n, err := p.RunAll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sections, err := st.ListSections(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			failed := 0
			for _, sec := range sections {
				if sec.Status == store.StatusFailed {
					failed++
				}
			}
			status(cmd, failed == 0, "processo %s: %d generated, %d failed in %s", args[0], n, failed, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	return cmd
}

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			a, err := app.New(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}
