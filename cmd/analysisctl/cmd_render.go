package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/app"
	"github.com/joelkehle/analysis-views/internal/config"
	"github.com/joelkehle/analysis-views/internal/pdf"
	"github.com/joelkehle/analysis-views/internal/report"
)

func newNormalizeCmd(c *cli) *cobra.Command {
	var (
		sf     sectionFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Print the canonical record for a section",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := sf.view(content)
			if err != nil {
				return err
			}
			out, err := encodeView(v, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			status(cmd, v.Raw == nil, "%s", describe(v))
			return err
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	return cmd
}

func encodeView(v analysis.View, format string) ([]byte, error) {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return append(blob, '\n'), nil
	case "yaml", "yml":
		// Round trip through JSON so the yaml keys match the json tags.
		var generic any
		if err := json.Unmarshal(blob, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("format %q is not one of json, yaml", format)
	}
}

func newViewCmd(c *cli) *cobra.Command {
	var (
		sf     sectionFlags
		format string
		width  int
		style  string
	)
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Render a section for the terminal, as markdown or as HTML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := sf.view(content)
			if err != nil {
				return err
			}
			out, err := renderView(v, format, width, style)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "terminal", "output format: terminal, markdown or html")
	cmd.Flags().IntVar(&width, "width", 100, "terminal wrap width")
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty); empty detects the terminal")
	return cmd
}

func renderView(v analysis.View, format string, width int, style string) (string, error) {
	views := []analysis.View{v}
	switch strings.ToLower(format) {
	case "terminal", "term":
		tr := report.NewTerminalRenderer(width, style)
		if err := report.RenderAll(tr, views); err != nil {
			return "", err
		}
		return tr.String()
	case "markdown", "md":
		return report.MarkdownDocument(v.Title, time.Now(), views)
	case "html":
		return report.HTMLPage(v.Title, time.Now(), views)
	default:
		return "", fmt.Errorf("format %q is not one of terminal, markdown, html", format)
	}
}

func newPDFCmd(c *cli) *cobra.Command {
	var (
		sf     sectionFlags
		name   string
		engine string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "pdf [file]",
		Short: "Render a section to a PDF file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			v, err := sf.view(content)
			if err != nil {
				return err
			}
			pdfCfg := c.cfg.PDF
			if engine != "" {
				pdfCfg.Engine = strings.ToLower(engine)
			}
			if pdfCfg.Engine != config.EngineNative && pdfCfg.Engine != config.EngineChromium {
				return fmt.Errorf("engine %q is not one of native, chromium", engine)
			}
			if name == "" {
				name = v.Title
			}
			at := time.Now()
			body, err := app.NewEngine(pdfCfg).Render(cmd.Context(), pdf.Document{Name: name, Generated: at, Views: []analysis.View{v}})
			if err != nil {
				return err
			}
			if out == "" {
				out = pdf.FileName(name, at)
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			status(cmd, true, "wrote %s (%d bytes, %s)", out, len(body), pdfCfg.Engine)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "processo name used for the title and file name")
	cmd.Flags().StringVar(&engine, "engine", "", "pdf engine: native or chromium (defaults to pdf.engine)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to the generated file name)")
	return cmd
}
