package docextract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noPdfToText(t *testing.T) {
	t.Helper()
	orig := pdfToText
	pdfToText = func(context.Context, string) (string, error) { return "", errors.New("not installed") }
	t.Cleanup(func() { pdfToText = orig })
}

func TestFilePlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peticao.txt")
	require.NoError(t, os.WriteFile(path, []byte("Petição inicial do processo 0001234-56.2023.8.26.0100"), 0o600))

	res, err := File(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, MethodPlain, res.Method)
	assert.Equal(t, "0001234-56.2023.8.26.0100", ProcessoNumber(res.Text))
}

func TestFilePDFUsesPdfToText(t *testing.T) {
	orig := pdfToText
	pdfToText = func(_ context.Context, path string) (string, error) {
		return "Sentença proferida em " + filepath.Ext(path), nil
	}
	t.Cleanup(func() { pdfToText = orig })

	path := filepath.Join(t.TempDir(), "autos.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%%EOF"), 0o600))

	res, err := File(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, MethodPdfToText, res.Method)
	assert.Equal(t, "Sentença proferida em .pdf", res.Text)
}

func TestBytesFallsBackToPrintableRuns(t *testing.T) {
	noPdfToText(t)
	blob := []byte("%PDF-1.4\n\x00\x01O réu foi citado por edital em março de 2023 conforme os autos.\x00\x02%%EOF")

	res, err := Bytes(context.Background(), blob)
	require.NoError(t, err)
	assert.Equal(t, MethodBytes, res.Method)
	assert.Contains(t, res.Text, "foi citado por edital")
}

func TestBytesWithoutText(t *testing.T) {
	noPdfToText(t)
	_, err := Bytes(context.Background(), []byte("%PDF-1.4\x00\x01\x02"))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = Bytes(context.Background(), []byte("   \n"))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	text := strings.Repeat("ç", MaxTextBytes)
	res := truncate(text, MethodPlain)
	require.True(t, res.Truncated)
	body := strings.TrimSuffix(res.Text, truncatedMarker)
	assert.LessOrEqual(t, len(body), MaxTextBytes)
	assert.Equal(t, 0, len(body)%2)
}

func TestProcessoNumberAbsent(t *testing.T) {
	assert.Empty(t, ProcessoNumber("sem número"))
}
