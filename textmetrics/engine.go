// Package textmetrics computes word/sentence/paragraph statistics and
// readability scores from raw article text.
package textmetrics

import (
	"math"
	"strings"
	"unicode"

	"article-enricher/domain"
)

// DefaultWordsPerMinute is the reading rate used when none is configured.
const DefaultWordsPerMinute = 200

// Complexity sub-factor weights. Each sub-factor is normalized into [0,1]
// before weighting and the final score is clamped to [0,1].
const (
	weightWordLength    = 0.30
	weightSentenceLen   = 0.25
	weightVocabRarity   = 0.25
	weightPunctuation   = 0.10
	weightTechnicalTerm = 0.10
)

// Engine derives text metrics and readability scores. It has no
// dependencies and never fails; empty input yields zero-valued metrics.
type Engine struct {
	wordsPerMinute int
}

// NewEngine creates a metrics engine. wordsPerMinute <= 0 selects the
// default rate of 200.
func NewEngine(wordsPerMinute int) *Engine {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	return &Engine{wordsPerMinute: wordsPerMinute}
}

// Analyze computes the full content analysis for the given text.
func (e *Engine) Analyze(text string) domain.ContentAnalysis {
	metrics := ComputeMetrics(text)
	readability := ComputeReadability(text, metrics)

	readingTime := 0
	if metrics.WordCount > 0 {
		readingTime = int(math.Ceil(float64(metrics.WordCount) / float64(e.wordsPerMinute)))
	}

	return domain.ContentAnalysis{
		Metrics:            metrics,
		Readability:        readability,
		ReadingTimeMinutes: readingTime,
		DifficultyLabel:    DifficultyLabel(readability.FleschReadingEase),
		ComplexityLabel:    ComplexityLabel(readability.ComplexityScore),
	}
}

// ComputeMetrics computes the raw text statistics.
func ComputeMetrics(text string) domain.TextMetrics {
	words := Words(text)
	if len(words) == 0 {
		return domain.TextMetrics{}
	}

	charCount := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			charCount++
		}
	}

	syllables := 0
	for _, w := range words {
		syllables += CountSyllables(w)
	}

	sentences := SentenceCount(text)
	avgWords := float64(len(words))
	if sentences > 0 {
		avgWords = float64(len(words)) / float64(sentences)
	}

	return domain.TextMetrics{
		WordCount:           len(words),
		SentenceCount:       sentences,
		ParagraphCount:      ParagraphCount(text),
		CharacterCount:      charCount,
		SyllableCount:       syllables,
		AvgWordsPerSentence: avgWords,
		AvgWordLength:       float64(charCount) / float64(len(words)),
	}
}

// ComputeReadability derives the clamped readability scores from the text
// and its metrics.
func ComputeReadability(text string, m domain.TextMetrics) domain.ReadabilityScores {
	if m.WordCount == 0 {
		return domain.ReadabilityScores{}
	}

	sentences := m.SentenceCount
	if sentences < 1 {
		sentences = 1
	}

	wordsPerSentence := float64(m.WordCount) / float64(sentences)
	syllablesPerWord := float64(m.SyllableCount) / float64(m.WordCount)

	flesch := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	grade := 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59

	return domain.ReadabilityScores{
		FleschReadingEase:  clamp(flesch, 0, 100),
		FleschKincaidGrade: math.Max(grade, 0),
		ComplexityScore:    complexityScore(text, m),
	}
}

// Words splits text into non-empty whitespace-delimited tokens.
func Words(text string) []string {
	return strings.Fields(text)
}

// SentenceCount splits on sentence terminators and counts only segments
// containing at least one letter.
func SentenceCount(text string) int {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	count := 0
	for _, seg := range segments {
		if strings.ContainsFunc(seg, unicode.IsLetter) {
			count++
		}
	}
	return count
}

// ParagraphCount splits on blank lines. A non-empty text has at least one
// paragraph.
func ParagraphCount(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	if count < 1 {
		count = 1
	}
	return count
}

// CountSyllables estimates syllables with a deterministic heuristic: words
// of three characters or fewer count as one; a trailing silent "e" is
// stripped; contiguous vowel clusters each count once; minimum one.
func CountSyllables(word string) int {
	w := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if len(w) <= 3 {
		return 1
	}

	if strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") {
		w = w[:len(w)-1]
	}

	count := 0
	prevVowel := false
	for _, r := range w {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if count < 1 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// complexityScore is a weighted sum of five normalized sub-factors.
func complexityScore(text string, m domain.TextMetrics) float64 {
	words := Words(text)
	if len(words) == 0 {
		return 0
	}

	// Average word length mapped so 3 chars -> 0 and 7+ chars -> 1.
	wordLength := clamp((m.AvgWordLength-3)/4, 0, 1)

	// Average sentence length mapped so 5 words -> 0 and 30+ words -> 1.
	sentenceLen := clamp((m.AvgWordsPerSentence-5)/25, 0, 1)

	rare := 0
	technical := 0
	punct := 0
	for i, w := range words {
		letters := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if len(letters) >= 7 {
			rare++
		}
		// Capitalized terms not at a sentence start suggest proper nouns
		// or technical vocabulary.
		if i > 0 && letters != "" {
			first := []rune(letters)[0]
			if unicode.IsUpper(first) && !sentenceStart(words[i-1]) {
				technical++
			}
		}
		for _, r := range w {
			if unicode.IsPunct(r) {
				punct++
			}
		}
	}

	vocabRarity := clamp(float64(rare)/float64(len(words)), 0, 1)
	punctDensity := clamp(float64(punct)/float64(len(words))/0.3, 0, 1)
	technicalDensity := clamp(float64(technical)/float64(len(words))/0.2, 0, 1)

	score := weightWordLength*wordLength +
		weightSentenceLen*sentenceLen +
		weightVocabRarity*vocabRarity +
		weightPunctuation*punctDensity +
		weightTechnicalTerm*technicalDensity

	return clamp(score, 0, 1)
}

// sentenceStart reports whether the preceding token ends a sentence.
func sentenceStart(prev string) bool {
	return strings.HasSuffix(prev, ".") || strings.HasSuffix(prev, "!") || strings.HasSuffix(prev, "?")
}

// DifficultyLabel maps a Flesch Reading Ease score into its standard band.
func DifficultyLabel(flesch float64) string {
	switch {
	case flesch >= 90:
		return "very_easy"
	case flesch >= 80:
		return "easy"
	case flesch >= 70:
		return "fairly_easy"
	case flesch >= 60:
		return "standard"
	case flesch >= 50:
		return "fairly_difficult"
	case flesch >= 30:
		return "difficult"
	default:
		return "very_difficult"
	}
}

// ComplexityLabel bands the complexity score.
func ComplexityLabel(score float64) string {
	switch {
	case score < 0.25:
		return "low"
	case score < 0.5:
		return "moderate"
	case score < 0.75:
		return "high"
	default:
		return "very_high"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
