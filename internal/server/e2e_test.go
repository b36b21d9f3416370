//go:build integration

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/cache"
	"github.com/joelkehle/analysis-views/internal/generator"
	"github.com/joelkehle/analysis-views/internal/pdf"
	"github.com/joelkehle/analysis-views/internal/pipeline"
	"github.com/joelkehle/analysis-views/internal/server"
	"github.com/joelkehle/analysis-views/internal/store"
)

// minimalPDF is a one-page PDF whose content stream carries a CNJ number.
func minimalPDF() []byte {
	return []byte(`%PDF-1.0
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]
   /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>
endobj
4 0 obj
<< /Length 210 >>
stream
BT
/F1 12 Tf
72 720 Td
(Processo 0004321-10.2021.8.26.0224 - Acao de cobranca) Tj
0 -20 Td
(O autor requer o pagamento de valores em atraso desde 2020.) Tj
ET
endstream
endobj
5 0 obj
<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>
endobj
trailer
<< /Size 6 /Root 1 0 R >>
%%EOF`)
}

// client disables keep-alives so no idle connections outlive the test.
var client = &http.Client{Timeout: 10 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}

// cannedGenerator answers each prompt with a fixed section.
type cannedGenerator struct {
	documents []string
}

func (g *cannedGenerator) Generate(_ context.Context, req generator.Request) (generator.Response, error) {
	g.documents = append(g.documents, req.DocumentText)
	var content string
	switch {
	case strings.Contains(req.Prompt, "riscos"):
		content = "```json\n" + `{"riscosAlertasProcessuais":{"secoes":[{"titulo":"Alertas","listaAlertas":[{"categoria":"Prescrição","descricaoRisco":"Parcelas anteriores a 2021","gravidade":"Alta"}]}]}}` + "\n```"
	default:
		content = `{"visaoGeralProcesso":{"secoes":[{"titulo":"Partes","campos":[{"label":"Autor","valor":"Empresa X"}]}]}}`
	}
	return generator.Response{Content: content, Model: "canned", Attempts: []generator.Attempt{{Model: "canned"}}}, nil
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	resp, err := client.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestE2EProcessoAnalysis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(filepath.Join(t.TempDir(), "e2e.db"), store.Config{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	gen := &cannedGenerator{}
	reg := analysis.DefaultRegistry()
	pdfCache := cache.New[[]byte](cache.Config{TTL: time.Minute})
	defer pdfCache.Close()

	h := server.NewServer(server.Deps{
		Store:     st,
		Processor: pipeline.NewProcessor(st, gen, reg, zap.NewNop()),
		Engine:    pdf.NativeEngine{},
		PDFCache:  pdfCache,
		Registry:  reg,
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: h}
	go srv.Serve(ln)
	defer srv.Shutdown(ctx)
	baseURL := "http://" + ln.Addr().String()

	// --- 1. Upload the processo document ---
	resp, err := client.Post(baseURL+"/v1/processos", "application/pdf", bytes.NewReader(minimalPDF()))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload returned %d: %s", resp.StatusCode, body)
	}
	var proc store.Processo
	decode(t, resp, &proc)
	if proc.Nome != "0004321-10.2021.8.26.0224" {
		t.Fatalf("nome = %q, want the CNJ number from the document", proc.Nome)
	}

	// --- 2. Queue two prompts ---
	for i, title := range []string{"Visão Geral do Processo", "Riscos e Alertas Processuais"} {
		resp := postJSON(t, baseURL+"/v1/processos/"+proc.ID+"/sections", map[string]any{
			"prompt_title":    title,
			"prompt_content":  "Analise os " + strings.ToLower(strings.Fields(title)[0]) + " do processo.",
			"execution_order": i + 1,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add section %q returned %d", title, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// --- 3. Process until nothing is pending ---
	for i := 0; ; i++ {
		if i > 5 {
			t.Fatal("process-next did not settle")
		}
		resp := postJSON(t, baseURL+"/v1/processos/"+proc.ID+"/process-next", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("process-next returned %d", resp.StatusCode)
		}
		var out pipeline.Outcome
		decode(t, resp, &out)
		if out.Done {
			break
		}
	}
	if len(gen.documents) != 2 || !strings.Contains(gen.documents[0], "pagamento de valores") {
		t.Fatalf("generator did not receive the document text: %q", gen.documents)
	}

	resp, err = client.Get(baseURL + "/v1/processos/" + proc.ID)
	if err != nil {
		t.Fatalf("get processo: %v", err)
	}
	decode(t, resp, &proc)
	if proc.Status != store.StatusCompleted {
		t.Fatalf("processo status = %q", proc.Status)
	}

	// --- 4. View and PDF ---
	resp, err = client.Get(baseURL + "/v1/processos/" + proc.ID + "/view")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	for _, want := range []string{"Empresa X", "Parcelas anteriores a 2021"} {
		if !bytes.Contains(page, []byte(want)) {
			t.Errorf("view missing %q", want)
		}
	}

	resp, err = client.Get(baseURL + "/v1/processos/" + proc.ID + "/pdf")
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Fatalf("pdf returned %d with %d bytes", resp.StatusCode, len(body))
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "wis_legal_0004321-10_2021_8_26_0224_analise_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
