// Package docextract pulls plain text out of processo documents so it can
// be sent to the generator alongside each prompt.
package docextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxPDFBytes = 50 * 1024 * 1024
	// MaxTextBytes caps extracted text so one document cannot exhaust the
	// model context.
	MaxTextBytes = 400_000

	truncatedMarker = "\n\n[TEXTO TRUNCADO]"
	minRunLength    = 24
)

var ErrNoText = errors.New("docextract: no extractable text found")

// CNJ unified numbering: NNNNNNN-DD.AAAA.J.TR.OOOO
var cnjPattern = regexp.MustCompile(`\b\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}\b`)

type Method string

const (
	MethodPlain     Method = "plain"
	MethodPdfToText Method = "pdftotext"
	MethodBytes     Method = "byte-fallback"
)

type Result struct {
	Text      string `json:"text"`
	Method    Method `json:"method"`
	Truncated bool   `json:"truncated"`
}

// pdfToText is swapped in tests.
var pdfToText = func(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// File extracts text from a PDF or plain-text file. PDFs go through
// pdftotext when it is installed, then a printable-run scan of the raw
// bytes.
func File(ctx context.Context, path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	if !isPDFPath(path) {
		blob, err := os.ReadFile(path)
		if err != nil {
			return Result{}, err
		}
		if bytes.HasPrefix(blob, []byte("%PDF-")) {
			return pdfFile(ctx, path, info.Size(), blob)
		}
		return plain(blob)
	}
	return pdfFile(ctx, path, info.Size(), nil)
}

// Bytes extracts text from an in-memory document, spilling PDFs to a
// temporary file for pdftotext.
func Bytes(ctx context.Context, blob []byte) (Result, error) {
	if !bytes.HasPrefix(blob, []byte("%PDF-")) {
		return plain(blob)
	}
	if len(blob) > MaxPDFBytes {
		return Result{}, fmt.Errorf("docextract: pdf too large: %d bytes", len(blob))
	}
	f, err := os.CreateTemp("", "processo-*.pdf")
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(blob); err != nil {
		f.Close()
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, err
	}
	return pdfFile(ctx, f.Name(), int64(len(blob)), blob)
}

func pdfFile(ctx context.Context, path string, size int64, blob []byte) (Result, error) {
	if size > MaxPDFBytes {
		return Result{}, fmt.Errorf("docextract: pdf too large: %d bytes", size)
	}
	if text, err := pdfToText(ctx, path); err == nil && strings.TrimSpace(text) != "" {
		return truncate(text, MethodPdfToText), nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if blob == nil {
		var err error
		if blob, err = os.ReadFile(path); err != nil {
			return Result{}, err
		}
	}
	text := printableRuns(blob)
	if text == "" {
		return Result{}, ErrNoText
	}
	return truncate(text, MethodBytes), nil
}

func plain(blob []byte) (Result, error) {
	if !utf8.Valid(blob) {
		blob = bytes.ToValidUTF8(blob, []byte("�"))
	}
	if strings.TrimSpace(string(blob)) == "" {
		return Result{}, ErrNoText
	}
	return truncate(string(blob), MethodPlain), nil
}

func isPDFPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// printableRuns keeps runs of printable text long enough to be prose.
func printableRuns(blob []byte) string {
	var (
		runs []string
		b    strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); len(s) >= minRunLength {
			runs = append(runs, s)
		}
		b.Reset()
	}
	for _, c := range blob {
		r := rune(c)
		if r < utf8.RuneSelf && (unicode.IsPrint(r) || r == '\n' || r == '\t') {
			b.WriteByte(c)
			continue
		}
		flush()
	}
	flush()
	return strings.TrimSpace(strings.Join(runs, "\n"))
}

func truncate(text string, method Method) Result {
	text = strings.TrimSpace(text)
	if len(text) <= MaxTextBytes {
		return Result{Text: text, Method: method}
	}
	cut := MaxTextBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return Result{Text: text[:cut] + truncatedMarker, Method: method, Truncated: true}
}

// ProcessoNumber finds the first CNJ-formatted case number in the text.
func ProcessoNumber(text string) string {
	if len(text) > 20000 {
		text = text[:20000]
	}
	return cnjPattern.FindString(text)
}
