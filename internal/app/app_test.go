package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/joelkehle/analysis-views/internal/config"
	"github.com/joelkehle/analysis-views/internal/pdf"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANALYSIS_STORE_PATH", filepath.Join(t.TempDir(), "app.db"))
	t.Setenv("ANALYSIS_LOG_LEVEL", "error")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewWithoutGeneration(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	assert.Nil(t, a.Processor)
	assert.Nil(t, a.Generator)
	assert.IsType(t, pdf.NativeEngine{}, a.Engine)

	rec := httptest.NewRecorder()
	a.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, gjson.Get(rec.Body.String(), "generation").Bool())
}

func TestNewWithGeneration(t *testing.T) {
	cfg := testConfig(t)
	cfg.Anthropic.APIKey = "sk-test"
	cfg.Generator.Models = []string{"primary", "secondary"}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	require.NotNil(t, a.Processor)
	assert.Equal(t, []string{"primary", "secondary"}, a.Generator.Models())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.PDF.Engine = "latex"
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewEngine(t *testing.T) {
	assert.IsType(t, pdf.NativeEngine{}, NewEngine(config.PDFConfig{Engine: config.EngineNative}))
	assert.IsType(t, &pdf.ChromiumEngine{}, NewEngine(config.PDFConfig{Engine: config.EngineChromium}))
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", gjson.GetBytes(body, "status").String())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
