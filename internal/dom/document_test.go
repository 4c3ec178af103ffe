package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head><title>Acme Careers | Jobs</title>
<meta property="og:site_name" content="Acme">
<style>.x { color: red }</style>
</head>
<body>
  <h1 class="title">  Senior Engineer  </h1>
  <div class="location"><span>Berlin</span>, Germany</div>
  <script>var tracking = "do not read me";</script>
  <p>Build things.</p>
</body>
</html>`

func TestLookup_TextAndAttr(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	el, ok, err := doc.Lookup("h1.title")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Senior Engineer", el.Text())

	meta, ok, err := doc.Lookup(`meta[property="og:site_name"]`)
	require.NoError(t, err)
	require.True(t, ok)
	content, exists := meta.Attr("content")
	assert.True(t, exists)
	assert.Equal(t, "Acme", content)
}

func TestLookup_ReturnsFirstMatch(t *testing.T) {
	doc, err := Parse(`<body><h2>First</h2><h2>Second</h2></body>`)
	require.NoError(t, err)

	el, ok, err := doc.Lookup("h2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "First", el.Text())
}

func TestLookup_Absent(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	el, ok, err := doc.Lookup(".does-not-exist")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, el)
}

func TestLookup_InvalidSelector(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	for _, sel := range []string{"h1[", "::::", "div >"} {
		t.Run(sel, func(t *testing.T) {
			_, ok, err := doc.Lookup(sel)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestTitle(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)
	assert.Equal(t, "Acme Careers | Jobs", doc.Title())
}

func TestVisibleText_SkipsScriptsAndStyles(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	text := doc.VisibleText()
	assert.Contains(t, text, "Senior Engineer")
	assert.Contains(t, text, "Build things.")
	assert.NotContains(t, text, "do not read me")
	assert.NotContains(t, text, "color: red")
}

func TestVisibleText_DoesNotMutateDocument(t *testing.T) {
	doc, err := Parse(samplePage)
	require.NoError(t, err)

	_ = doc.VisibleText()

	_, ok, err := doc.Lookup("script")
	require.NoError(t, err)
	assert.True(t, ok, "script element should still be present after reading visible text")
}
