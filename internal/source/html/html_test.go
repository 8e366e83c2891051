package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wastemap/internal/infra/textx"
)

func TestLines_PreBlocks(t *testing.T) {
	doc := "<html><body><h1>Report</h1><pre>\nGermany\n45.2%\n</pre><p>ignored</p><pre>Type3\n12,345 tons\n</pre></body></html>"

	got, err := Source{}.Lines([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Germany", "45.2%", "Type3", "12,345 tons"}, got)
}

func TestLines_BodyFallback(t *testing.T) {
	doc := "<html><body>Germany\n<b>45.2%</b>\nType3</body></html>"

	got, err := Source{}.Lines([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Germany", "45.2%", "Type3"}, got)
}

func TestLines_EntitiesDecoded(t *testing.T) {
	got, err := Source{}.Lines([]byte("<pre>C&ocirc;te d&#39;Ivoire</pre>"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Côte d'Ivoire"}, got)
}

func TestLines_CRLFInsidePre(t *testing.T) {
	got, err := Source{}.Lines([]byte("<pre>a\r\nb\r\n</pre>"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLines_MatchesTextSplit(t *testing.T) {
	body := "Germany\n\nType3\n12,345 tons"
	got, err := Source{}.Lines([]byte("<pre>"+body+"</pre>"), "")
	require.NoError(t, err)
	assert.Equal(t, textx.SplitLines(body), got)
}

func TestLines_Empty(t *testing.T) {
	_, err := (Source{}).Lines(nil, "")
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "html", Source{}.Name())
}
