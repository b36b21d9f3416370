package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/docextract"
	"github.com/joelkehle/analysis-views/internal/store"
)

// promptPlan lists the prompts queued for a new processo.
type promptPlan struct {
	System   string       `yaml:"system"`
	Sections []planPrompt `yaml:"sections"`
}

type planPrompt struct {
	Title      string `yaml:"title"`
	Category   string `yaml:"category"`
	Prompt     string `yaml:"prompt"`
	PromptFile string `yaml:"prompt_file"`
	System     string `yaml:"system"`
	Order      int    `yaml:"order"`
	MaxRetries int    `yaml:"max_retries"`
}

func loadPlan(path string) (promptPlan, error) {
	var plan promptPlan
	b, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("read plan: %w", err)
	}
	if err := yaml.Unmarshal(b, &plan); err != nil {
		return plan, fmt.Errorf("decode plan %s: %w", path, err)
	}
	reg := analysis.DefaultRegistry()
	dir := filepath.Dir(path)
	for i := range plan.Sections {
		p := &plan.Sections[i]
		if strings.TrimSpace(p.Title) == "" {
			return plan, fmt.Errorf("plan section %d: title is required", i+1)
		}
		if p.Category != "" {
			if _, ok := reg.ParseCategory(p.Category); !ok {
				return plan, fmt.Errorf("plan section %q: unknown category %q", p.Title, p.Category)
			}
		}
		if p.PromptFile != "" {
			pf := p.PromptFile
			if !filepath.IsAbs(pf) {
				pf = filepath.Join(dir, pf)
			}
			b, err := os.ReadFile(pf)
			if err != nil {
				return plan, fmt.Errorf("plan section %q: %w", p.Title, err)
			}
			p.Prompt = string(b)
		}
		if strings.TrimSpace(p.Prompt) == "" {
			return plan, fmt.Errorf("plan section %q: prompt or prompt_file is required", p.Title)
		}
		if p.Order == 0 {
			p.Order = i + 1
		}
		if p.System == "" {
			p.System = plan.System
		}
	}
	return plan, nil
}

func newProcessoCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processo",
		Short: "Create and inspect stored processos",
	}
	cmd.AddCommand(newProcessoCreateCmd(c), newProcessoShowCmd(c))
	return cmd
}

func newProcessoCreateCmd(c *cli) *cobra.Command {
	var (
		name     string
		document string
		planPath string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a processo document and queue its analysis prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if document != "" {
				doc, err := docextract.File(cmd.Context(), document)
				if err != nil {
					return err
				}
				c.logger.Debug("document extracted",
					zap.String("method", string(doc.Method)),
					zap.Bool("truncated", doc.Truncated))
				text = doc.Text
				if name == "" {
					name = docextract.ProcessoNumber(text)
				}
			}
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required when the document carries no processo number")
			}
			var plan promptPlan
			if planPath != "" {
				var err error
				if plan, err = loadPlan(planPath); err != nil {
					return err
				}
			}

			st, err := store.Open(c.cfg.Store.Path, store.Config{})
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := st.CreateProcesso(cmd.Context(), name, text)
			if err != nil {
				return err
			}
			for _, sec := range plan.Sections {
				if _, err := st.AddSection(cmd.Context(), p.ID, store.NewSection{
					PromptTitle:    sec.Title,
					Category:       sec.Category,
					PromptContent:  sec.Prompt,
					SystemPrompt:   sec.System,
					ExecutionOrder: sec.Order,
					MaxRetries:     sec.MaxRetries,
				}); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			status(cmd, true, "processo %q created with %d queued section(s)", p.Nome, len(plan.Sections))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "processo name (defaults to the CNJ number found in the document)")
	cmd.Flags().StringVarP(&document, "document", "d", "", "processo document, PDF or plain text")
	cmd.Flags().StringVar(&planPath, "plan", "", "YAML file listing the prompts to queue")
	return cmd
}

func newProcessoShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <processo-id>",
		Short: "List the sections of a processo and their status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(c.cfg.Store.Path, store.Config{})
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := st.GetProcesso(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sections, err := st.ListSections(cmd.Context(), p.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", okStyle.Render(p.Nome), dimStyle.Render(string(p.Status)))
			for _, sec := range sections {
				line := fmt.Sprintf("%3d  %-10s %s", sec.ExecutionOrder, sec.Status, sec.PromptTitle)
				switch sec.Status {
				case store.StatusFailed:
					line = warnStyle.Render(line) + dimStyle.Render("  "+sec.Error)
				case store.StatusCompleted:
					line += dimStyle.Render("  " + sec.Model + " " + sec.Method)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
