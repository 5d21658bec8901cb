package html_parser

import (
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// ExtractArticleText converts raw article HTML into plain text paragraphs.
// Non-content elements (script/style/navigation/media) are removed before
// go-readability extracts the main content; paragraphs in the result are
// separated by blank lines so downstream paragraph counting works.
func ExtractArticleText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Short-circuit if the payload is already plain text.
	if !strings.Contains(trimmed, "<") {
		return trimmed
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed)); err == nil {
		doc.Find("head, script, style, noscript, aside, nav, header, footer").Remove()
		doc.Find("iframe, embed, object, video, audio, canvas, form").Remove()
		doc.Find("[class*='social'], [class*='share'], [class*='comment'], [id*='comment']").Remove()

		if cleaned, err := doc.Html(); err == nil && cleaned != "" {
			trimmed = cleaned
		}
	}

	article, err := readability.FromReader(strings.NewReader(trimmed), nil)
	if err == nil {
		var htmlBuf strings.Builder
		if err := article.RenderHTML(&htmlBuf); err == nil {
			if text := extractParagraphs(htmlBuf.String()); len(text) >= 200 {
				return text
			}
		}
		// Readability output too short, sometimes it catches only the
		// title or metadata; fall back to simple extraction.
	}

	return extractParagraphs(trimmed)
}

// extractParagraphs pulls text from block elements while preserving
// paragraph structure. Paragraphs are separated by double newlines.
func extractParagraphs(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return StripTags(html)
	}

	var paragraphs []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeWhitespace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return StripTags(html)
	}
	return strings.Join(paragraphs, "\n\n")
}

// StripTags removes all HTML tags and returns whitespace-normalized plain
// text.
func StripTags(raw string) string {
	p := bluemonday.StrictPolicy()
	return normalizeWhitespace(p.Sanitize(raw))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ExtractTitle extracts the article title from HTML content. Priority
// order: <title> tag, og:title meta tag, first <h1> tag.
func ExtractTitle(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.Contains(trimmed, "<") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return ""
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
