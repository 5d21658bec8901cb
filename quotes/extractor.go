// Package quotes detects and scores quoted or attributed statements in
// article text.
package quotes

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"article-enricher/domain"
)

// Config bounds which candidate quotes survive filtering.
type Config struct {
	MinLength     int
	MaxLength     int
	MinImportance float64
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		MinLength:     20,
		MaxLength:     500,
		MinImportance: 0.2,
	}
}

// Extractor runs three independent extraction strategies over the same text
// and unions their results.
type Extractor struct {
	cfg Config
}

// NewExtractor creates a quote extractor.
func NewExtractor(cfg Config) *Extractor {
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultConfig().MinLength
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultConfig().MaxLength
	}
	return &Extractor{cfg: cfg}
}

const attributionVerbs = `said|says|told|stated|announced|explained|added|noted|warned|claimed|argued|declared|confirmed|denied|suggested|insisted|remarked`

var (
	// "..." said Some Name  /  "...", Some Name said
	directQuoteRe = regexp.MustCompile(
		`[“"]([^”"]+)[”"][,\s]*(?:(?:` + attributionVerbs + `)\s+((?:[A-Z][\w’'.-]*\s?){1,4})|((?:[A-Z][\w’'.-]*\s?){1,4})(?:` + attributionVerbs + `))?`)

	// Any quoted span, for in-paragraph dialogue detection.
	quotedSpanRe = regexp.MustCompile(`[“"]([^”"]+)[”"]`)

	// Name verb that ... (no surrounding quote marks)
	reportedRe = regexp.MustCompile(
		`((?:[A-Z][\w’'.-]*\s){1,3})(?:` + attributionVerbs + `)\s+that\s+([^.!?]+[.!?])`)

	// According to Name, ...
	paraphraseRe = regexp.MustCompile(
		`[Aa]ccording to ((?:[A-Z][\w’'.-]*\s?){1,4}),\s*([^.!?]+[.!?])`)

	// Capitalized-name + attribution-verb, searched around a quoted span to
	// infer the speaker of dialogue.
	speakerBeforeRe = regexp.MustCompile(`((?:[A-Z][\w’'.-]*\s?){1,4})(?:` + attributionVerbs + `)[^“"”]*$`)
	speakerAfterRe  = regexp.MustCompile(`^[,\s]*(?:` + attributionVerbs + `)\s+((?:[A-Z][\w’'.-]*\s?){1,4})`)
	afterNameVerbRe = regexp.MustCompile(`^[,\s]*((?:[A-Z][\w’'.-]*\s?){1,4})(?:` + attributionVerbs + `)`)
)

// Extract returns the deduplicated, filtered and scored quotes found in
// text. Running it twice on identical text yields the same set.
func (e *Extractor) Extract(text string) []domain.Quote {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	paragraphs := paragraphOffsets(text)

	var candidates []domain.Quote
	candidates = append(candidates, e.extractDirect(text)...)
	candidates = append(candidates, e.extractDialogue(text)...)
	candidates = append(candidates, e.extractAttributionFirst(text)...)

	candidates = dedupe(candidates)

	for i := range candidates {
		candidates[i].ParagraphIndex = paragraphIndexAt(paragraphs, candidates[i].StartOffset)
		candidates[i].Context = contextWindow(text, candidates[i].StartOffset, candidates[i].EndOffset)
	}

	scoreCandidates(candidates, len(text))

	filtered := candidates[:0]
	for _, q := range candidates {
		n := len(q.Text)
		if n < e.cfg.MinLength || n > e.cfg.MaxLength {
			continue
		}
		if q.Importance < e.cfg.MinImportance {
			continue
		}
		filtered = append(filtered, q)
	}

	markKeyQuotes(filtered)

	return filtered
}

// extractDirect finds punctuation-delimited quotes optionally followed by an
// attribution verb clause.
func (e *Extractor) extractDirect(text string) []domain.Quote {
	var out []domain.Quote
	for _, m := range directQuoteRe.FindAllStringSubmatchIndex(text, -1) {
		quoteText := text[m[2]:m[3]]
		speaker := ""
		if m[4] >= 0 {
			speaker = strings.TrimSpace(text[m[4]:m[5]])
		} else if m[6] >= 0 {
			speaker = strings.TrimSpace(text[m[6]:m[7]])
		}
		out = append(out, domain.Quote{
			Text:        strings.TrimSpace(quoteText),
			Speaker:     speaker,
			Type:        domain.QuoteDirect,
			StartOffset: m[2],
			EndOffset:   m[3],
		})
	}
	return out
}

// extractDialogue finds any quoted span within a paragraph and infers the
// speaker from a capitalized-name + attribution-verb pattern immediately
// before or after the span.
func (e *Extractor) extractDialogue(text string) []domain.Quote {
	var out []domain.Quote
	for _, m := range quotedSpanRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		speaker := findNearbySpeaker(text, m[0], m[1])
		out = append(out, domain.Quote{
			Text:        strings.TrimSpace(text[start:end]),
			Speaker:     speaker,
			Type:        domain.QuoteDirect,
			StartOffset: start,
			EndOffset:   end,
		})
	}
	return out
}

// extractAttributionFirst finds `Name verb that ...` and `According to
// Name, ...` statements without surrounding quote marks.
func (e *Extractor) extractAttributionFirst(text string) []domain.Quote {
	var out []domain.Quote
	for _, m := range reportedRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, domain.Quote{
			Text:        strings.TrimSpace(text[m[4]:m[5]]),
			Speaker:     strings.TrimSpace(text[m[2]:m[3]]),
			Type:        domain.QuoteReported,
			StartOffset: m[4],
			EndOffset:   m[5],
		})
	}
	for _, m := range paraphraseRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, domain.Quote{
			Text:        strings.TrimSpace(text[m[4]:m[5]]),
			Speaker:     strings.TrimSpace(text[m[2]:m[3]]),
			Type:        domain.QuoteParaphrase,
			StartOffset: m[4],
			EndOffset:   m[5],
		})
	}
	return out
}

// findNearbySpeaker searches up to 80 characters before and after a quoted
// span for an attribution pattern.
func findNearbySpeaker(text string, spanStart, spanEnd int) string {
	before := text[maxInt(0, spanStart-80):spanStart]
	if m := speakerBeforeRe.FindStringSubmatch(before); m != nil {
		return strings.TrimSpace(m[1])
	}

	after := text[spanEnd:minInt(len(text), spanEnd+80)]
	if m := speakerAfterRe.FindStringSubmatch(after); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := afterNameVerbRe.FindStringSubmatch(after); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// dedupe drops quotes whose whitespace/case-normalized text was already
// seen. The first occurrence wins so attributed variants from strategy (a)
// take precedence over the bare dialogue span.
func dedupe(quotes []domain.Quote) []domain.Quote {
	seen := make(map[string]int, len(quotes))
	out := quotes[:0]
	for _, q := range quotes {
		key := normalizeQuoteText(q.Text)
		if key == "" {
			continue
		}
		if idx, ok := seen[key]; ok {
			// Keep the variant that carries a speaker.
			if out[idx].Speaker == "" && q.Speaker != "" {
				out[idx].Speaker = q.Speaker
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, q)
	}
	return out
}

func normalizeQuoteText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// paragraphOffsets returns the starting character offset of each paragraph
// via a cumulative length walk.
func paragraphOffsets(text string) []int {
	var offsets []int
	pos := 0
	for _, block := range strings.Split(text, "\n\n") {
		offsets = append(offsets, pos)
		pos += len(block) + 2
	}
	return offsets
}

func paragraphIndexAt(offsets []int, charOffset int) int {
	idx := 0
	for i, start := range offsets {
		if charOffset >= start {
			idx = i
		}
	}
	return idx
}

// contextWindow returns a 100-150 character window around the span,
// ellipsis-marked when truncated.
func contextWindow(text string, start, end int) string {
	const pad = 50

	from := maxInt(0, start-pad)
	to := minInt(len(text), end+pad)

	// Widen a short window toward 100 characters where text allows.
	for to-from < 100 && (from > 0 || to < len(text)) {
		if from > 0 {
			from--
		}
		if to < len(text) {
			to++
		}
	}
	if to-from > 150 {
		to = from + 150
	}

	// Snap to rune boundaries so the slice cannot split a character.
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	ctx := strings.TrimSpace(text[from:to])
	if from > 0 {
		ctx = "…" + ctx
	}
	if to < len(text) {
		ctx += "…"
	}
	return ctx
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
