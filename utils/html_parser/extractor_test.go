package html_parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractArticleText(t *testing.T) {
	t.Run("should return plain text input unchanged", func(t *testing.T) {
		text := "Already plain text without any markup."

		assert.Equal(t, text, ExtractArticleText(text))
	})

	t.Run("should return empty for empty input", func(t *testing.T) {
		assert.Equal(t, "", ExtractArticleText(""))
		assert.Equal(t, "", ExtractArticleText("   \n  "))
	})

	t.Run("should strip non-content elements and keep paragraphs", func(t *testing.T) {
		html := `<html><head><script>var x=1;</script></head><body>
<nav>Menu</nav>
<p>First paragraph of the article body.</p>
<p>Second paragraph with more detail.</p>
<footer>Contact us</footer>
</body></html>`

		text := ExtractArticleText(html)

		assert.Contains(t, text, "First paragraph")
		assert.Contains(t, text, "Second paragraph")
		assert.NotContains(t, text, "var x=1")
		assert.NotContains(t, text, "Menu")
		assert.NotContains(t, text, "Contact us")
	})

	t.Run("should separate paragraphs with blank lines", func(t *testing.T) {
		html := `<body><p>One.</p><p>Two.</p></body>`

		text := ExtractArticleText(html)

		assert.Equal(t, 2, len(strings.Split(text, "\n\n")))
	})
}

func TestStripTags(t *testing.T) {
	t.Run("should remove markup and normalize whitespace", func(t *testing.T) {
		assert.Equal(t, "Hello world", StripTags("<b>Hello</b>\n   <i>world</i>"))
	})
}

func TestExtractTitle(t *testing.T) {
	t.Run("should prefer the title tag", func(t *testing.T) {
		html := `<html><head><title>Page Title</title><meta property="og:title" content="OG Title"></head><body><h1>Heading</h1></body></html>`

		assert.Equal(t, "Page Title", ExtractTitle(html))
	})

	t.Run("should fall back to og title then h1", func(t *testing.T) {
		og := `<html><head><meta property="og:title" content="OG Title"></head><body><h1>Heading</h1></body></html>`
		assert.Equal(t, "OG Title", ExtractTitle(og))

		h1 := `<html><body><h1>Heading</h1></body></html>`
		assert.Equal(t, "Heading", ExtractTitle(h1))
	})

	t.Run("should return empty for plain text", func(t *testing.T) {
		assert.Equal(t, "", ExtractTitle("no markup here"))
	})
}
