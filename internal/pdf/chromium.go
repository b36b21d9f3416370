package pdf

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/joelkehle/analysis-views/internal/report"
)

const chromiumFooter = `<div style="width:100%;text-align:center;font-size:8px;color:#57534e;">` +
	`Página <span class="pageNumber"></span> de <span class="totalPages"></span></div>`

// ChromiumEngine prints the HTML rendering of a document with headless
// Chromium. Each category section starts on a new page.
type ChromiumEngine struct {
	chromePath string
	timeout    time.Duration
}

func NewChromiumEngine(chromePath string, timeout time.Duration) *ChromiumEngine {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromiumEngine{chromePath: chromePath, timeout: timeout}
}

func (e *ChromiumEngine) Render(ctx context.Context, doc Document) ([]byte, error) {
	htmlDoc, err := report.HTMLPage(documentTitle+" - "+doc.Name, doc.Generated, doc.Views, report.WithSectionPageBreaks())
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if e.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var out []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			b, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(chromiumFooter).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.55).
				WithMarginBottom(0.75).
				WithMarginLeft(0.55).
				WithMarginRight(0.55).
				Do(ctx)
			if err != nil {
				return err
			}
			out = b
			return nil
		}),
	); err != nil {
		return nil, fmt.Errorf("chromium print: %w", err)
	}
	return out, nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
