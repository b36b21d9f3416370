package resolve

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestResolveExactInCandidateOrder(t *testing.T) {
	doc := gjson.Parse(`{"dados":{"n":1},"riscosAlertas":{"n":2}}`)
	m := Resolve(doc, []string{"riscosAlertas", "dados"})
	require.True(t, m.Found())
	assert.Equal(t, TierExact, m.Tier)
	assert.Equal(t, "riscosAlertas", m.Key)
	assert.Equal(t, int64(2), m.Value.Get("n").Int())
}

func TestResolveExactSkipsNull(t *testing.T) {
	doc := gjson.Parse(`{"riscosAlertas":null,"dados":{"n":1}}`)
	m := Resolve(doc, []string{"riscosAlertas", "dados"})
	assert.Equal(t, "dados", m.Key)
	assert.Equal(t, TierExact, m.Tier)
}

func TestResolveRiscosAlertasSubtree(t *testing.T) {
	doc := gjson.Parse(`{"a":1,"riscos_alertas":{"x":1}}`)

	m := Resolve(doc, []string{"riscosAlertasProcessuais", "riscos_alertas"})
	require.True(t, m.Found())
	assert.Equal(t, "riscos_alertas", m.Key)
	assert.JSONEq(t, `{"x":1}`, m.Value.Raw)

	fuzzy := Resolve(doc, []string{"riscosAlertasProcessuais"})
	require.True(t, fuzzy.Found())
	assert.Equal(t, TierFuzzy, fuzzy.Tier)
	assert.Equal(t, "riscos_alertas", fuzzy.Key)
	assert.JSONEq(t, `{"x":1}`, fuzzy.Value.Raw)
}

func TestResolveFuzzyDocumentOrder(t *testing.T) {
	doc := gjson.Parse(`{"visao-geral":{"n":1},"VisaoGeralProcesso":{"n":2}}`)
	m := Resolve(doc, []string{"visaoGeralProcessoCompleta"})
	require.Equal(t, TierFuzzy, m.Tier)
	assert.Equal(t, "visao-geral", m.Key)
}

func TestResolveFuzzyEitherDirection(t *testing.T) {
	doc := gjson.Parse(`{"balanco_financeiro_detalhado":{"n":1}}`)
	m := Resolve(doc, []string{"nada", "balancoFinanceiro"})
	assert.Equal(t, TierFuzzy, m.Tier)
	assert.Equal(t, "balanco_financeiro_detalhado", m.Key)
}

func TestResolveFuzzyIgnoresScalarsAndEmptyNames(t *testing.T) {
	doc := gjson.Parse(`{"r":"texto","_":{"n":1},"outro":{"n":2}}`)
	m := Resolve(doc, []string{"riscos", "-"})
	assert.False(t, m.Found())
}

func TestResolveSingleKeyWrapper(t *testing.T) {
	m := Resolve(gjson.Parse(`{"qualquerCoisa":{"titulo":"T","secoes":[]}}`), []string{"visaoGeralProcesso"})
	require.Equal(t, TierSingleKey, m.Tier)
	assert.Equal(t, "T", m.Value.Get("titulo").String())

	assert.False(t, Resolve(gjson.Parse(`{"x":[1,2]}`), []string{"y"}).Found())
	assert.False(t, Resolve(gjson.Parse(`{"x":"s"}`), []string{"y"}).Found())
}

func TestResolveNoMatch(t *testing.T) {
	for _, in := range []string{`{}`, `[]`, `"x"`, `null`, `{"x":{"b":1},"y":{"d":2}}`} {
		m := Resolve(gjson.Parse(in), []string{"riscos"})
		assert.False(t, m.Found(), in)
		assert.Equal(t, "", m.Key)
		assert.Equal(t, "none", m.Tier.String())
	}
}

var riskSignatures = [][]string{
	{"categoria", "descricaoRisco", "gravidade"},
	{"tipo", "risco", "impacto"},
}

func TestFindArrayBySignatureNested(t *testing.T) {
	doc := gjson.Parse(`{"wrapper":{"unrelated":1,"deep":{"items":[{"categoria":"nulidade","descricaoRisco":"x","gravidade":"alta"}]}}}`)
	arr, ok := FindArrayBySignature(doc, riskSignatures)
	require.True(t, ok)
	require.Len(t, arr.Array(), 1)
	assert.Equal(t, "nulidade", arr.Array()[0].Get("categoria").String())
}

func TestFindArrayBySignatureHalfMatch(t *testing.T) {
	// two of three fields, one of them by substring
	doc := gjson.Parse(`{"lista":[{"Categoria":"a","gravidadeNivel":"b"}]}`)
	_, ok := FindArrayBySignature(doc, riskSignatures)
	assert.True(t, ok)

	doc = gjson.Parse(`{"lista":[{"categoria":"a","outro":"b"}]}`)
	_, ok = FindArrayBySignature(doc, riskSignatures)
	assert.False(t, ok)
}

func TestFindArrayBySignatureSkipsNonMatchingArrays(t *testing.T) {
	doc := gjson.Parse(`{"tags":["a","b"],"vazio":[],"outros":[{"nome":"x"}],"alvo":[{"tipo":"t","risco":"r"}]}`)
	arr, ok := FindArrayBySignature(doc, riskSignatures)
	require.True(t, ok)
	assert.Equal(t, "t", arr.Array()[0].Get("tipo").String())
}

func TestFindArrayBySignatureDescendsIntoArrays(t *testing.T) {
	doc := gjson.Parse(`{"grupos":[{"itens":[{"categoria":"c","gravidade":"g"}]}]}`)
	arr, ok := FindArrayBySignature(doc, riskSignatures)
	require.True(t, ok)
	assert.Equal(t, "c", arr.Array()[0].Get("categoria").String())
}

func nestArray(depth int) string {
	inner := `[{"categoria":"c","descricaoRisco":"d","gravidade":"g"}]`
	return strings.Repeat(`{"n":`, depth) + inner + strings.Repeat(`}`, depth)
}

func TestFindArrayBySignatureDepthBound(t *testing.T) {
	_, ok := FindArrayBySignature(gjson.Parse(nestArray(MaxSignatureDepth)), riskSignatures)
	assert.True(t, ok, "array at the depth limit must be found")

	_, ok = FindArrayBySignature(gjson.Parse(nestArray(MaxSignatureDepth+1)), riskSignatures)
	assert.False(t, ok, "array past the depth limit must be ignored")
}

func TestFindArrayBySignatureRejectsScalars(t *testing.T) {
	_, ok := FindArrayBySignature(gjson.Parse(`"texto"`), riskSignatures)
	assert.False(t, ok)
	_, ok = FindArrayBySignature(gjson.Result{}, riskSignatures)
	assert.False(t, ok)
}
