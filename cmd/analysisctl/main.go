// Command analysisctl normalizes, renders and generates legal analysis
// sections from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/config"
	"github.com/joelkehle/analysis-views/internal/telemetry"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// cli holds state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "analysisctl",
		Short: "Normalize and render legal analysis sections",
		Long: `analysisctl turns LLM-produced legal analysis JSON into structured views.

Sections are read from a file argument or stdin. Titles pick the category
unless --category names one explicitly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newNormalizeCmd(c),
		newViewCmd(c),
		newPDFCmd(c),
		newGenerateCmd(c),
		newProcessCmd(c),
		newProcessoCmd(c),
		newServeCmd(c),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = strings.ToLower(c.logLevel)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	c.cfg = cfg
	if c.logger == nil {
		// The CLI logs to stderr in console form; stdout carries output.
		c.logger, err = telemetry.NewLogger(cfg.Log.Level, true)
		if err != nil {
			return err
		}
	}
	return nil
}

// sectionFlags select the category for a section read from input.
type sectionFlags struct {
	title    string
	category string
}

func (f *sectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "section display title")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "explicit category tag or slug")
}

func (f *sectionFlags) view(content string) (analysis.View, error) {
	if strings.TrimSpace(f.title) == "" && strings.TrimSpace(f.category) == "" {
		return analysis.View{}, fmt.Errorf("one of --title or --category is required")
	}
	reg := analysis.DefaultRegistry()
	tag, ok := reg.ParseCategory(f.category)
	if f.category != "" && !ok {
		return analysis.View{}, fmt.Errorf("unknown category %q", f.category)
	}
	return reg.SelectTagged(tag, f.title, content), nil
}

// readInput reads the named file, or stdin when the name is empty or "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}

func status(cmd *cobra.Command, ok bool, format string, args ...any) {
	mark := okStyle.Render("✓")
	if !ok {
		mark = warnStyle.Render("!")
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", mark, fmt.Sprintf(format, args...))
}

func describe(v analysis.View) string {
	if v.Raw != nil {
		return dimStyle.Render("raw: " + v.Raw.Reason)
	}
	return dimStyle.Render(fmt.Sprintf("%s via %s", v.Category, v.Result.Method))
}
