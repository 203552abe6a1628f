package tools

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `
<html>
<head><title>Product Listing</title></head>
<body>
  <h1>Products</h1>
  <form action="/search" method="GET">
    <input name="q" type="text">
    <select name="category"></select>
  </form>
  <div class="product-card"><span>Widget A</span></div>
  <div class="product-card"><span>Widget B</span></div>
  <div class="product-card"><span>Widget C</span></div>
  <div class="product-card"><span>Widget D</span></div>
  <a href="/products/1">Widget A</a>
</body>
</html>`

func TestSummarizeDocument(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleHTML))
	require.NoError(t, err)

	summary := summarizeDocument(doc, 200)
	assert.Equal(t, "Product Listing", summary.Title)
	assert.Contains(t, summary.Headings, "Products")
	require.Len(t, summary.Forms, 1)
	assert.Equal(t, "/search", summary.Forms[0].Action)
	assert.Len(t, summary.Forms[0].Fields, 2)
	assert.Contains(t, summary.Links, "/products/1")
}

func TestFindRepeatedElementsDetectsCards(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sampleHTML))
	require.NoError(t, err)

	elements := findRepeatedElements(doc)
	var found bool
	for _, e := range elements {
		if e.Selector == ".product-card" {
			found = true
			assert.Equal(t, 4, e.Count)
		}
	}
	assert.True(t, found, "expected .product-card to be detected as repeated")
}
