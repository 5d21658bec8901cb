// Package stance computes sentiment/stance, political-lean bias and
// subjectivity for article text using local lexical heuristics, optionally
// refined by an external provider.
package stance

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"article-enricher/domain"
)

// Subjectivity sub-factor weights plus a fixed baseline of 0.1.
const (
	weightEmotional     = 0.30
	weightOpinionRatio  = 0.30
	weightStrongOpinion = 0.20
	weightLoadedTerms   = 0.10
	subjectivityBase    = 0.10
)

// stanceThreshold is the normalized keyword-balance cutoff for calling a
// text positive or negative rather than neutral.
const stanceThreshold = 0.2

// SentimentProvider is the external sentiment/bias refinement contract.
// Implementations are remote calls; failure is a fallback trigger, not an
// error condition.
type SentimentProvider interface {
	AnalyzeSentimentBias(ctx context.Context, text string) (*domain.StanceAnalysis, error)
}

// Scorer analyzes stance, bias and subjectivity. When a provider is set it
// is consulted first under a strict timeout; any failure, timeout or
// low-confidence/garbled output falls back silently to the local heuristic.
type Scorer struct {
	provider SentimentProvider
	logger   *slog.Logger
	timeout  time.Duration
}

// NewScorer creates a stance scorer. provider may be nil to run purely on
// local heuristics.
func NewScorer(provider SentimentProvider, timeout time.Duration, logger *slog.Logger) *Scorer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scorer{
		provider: provider,
		logger:   logger,
		timeout:  timeout,
	}
}

// Analyze never fails: provider degradation is absorbed here.
func (s *Scorer) Analyze(ctx context.Context, text string) domain.StanceAnalysis {
	if s.provider != nil {
		providerCtx, cancel := context.WithTimeout(ctx, s.timeout)
		result, err := s.provider.AnalyzeSentimentBias(providerCtx, text)
		cancel()

		if err == nil && usable(result) {
			refined := *result
			refined.Method = "provider"
			// Subjectivity stays local: the provider contract does not
			// carry it.
			refined.Subjectivity = AnalyzeLocal(text).Subjectivity
			return refined
		}
		if err != nil {
			s.logger.DebugContext(ctx, "sentiment provider unavailable, using local heuristic", "error", err)
		}
	}

	return AnalyzeLocal(text)
}

// usable rejects garbled or low-confidence provider output.
func usable(r *domain.StanceAnalysis) bool {
	if r == nil {
		return false
	}
	switch r.Stance {
	case domain.StancePositive, domain.StanceNegative, domain.StanceNeutral:
	default:
		return false
	}
	if r.StanceConfidence < 0.4 || r.StanceConfidence > 1 {
		return false
	}
	if r.BiasScore < -1 || r.BiasScore > 1 {
		return false
	}
	if r.BiasConfidence < 0 || r.BiasConfidence > 1 {
		return false
	}
	return true
}

// AnalyzeLocal runs the rule-based computation over the five fixed
// lexicons.
func AnalyzeLocal(text string) domain.StanceAnalysis {
	words := tokenize(text)
	lower := strings.ToLower(text)

	result := domain.StanceAnalysis{
		Stance:           domain.StanceNeutral,
		StanceConfidence: 0.5,
		BiasConfidence:   0.5,
		Method:           "lexicon",
	}
	if len(words) == 0 {
		result.Subjectivity = clamp01(subjectivityBase)
		return result
	}

	// Stance: positive/negative keyword balance.
	pos := countMatches(words, positiveWords)
	neg := countMatches(words, negativeWords)
	if pos+neg > 0 {
		score := float64(pos-neg) / float64(pos+neg)
		margin := score
		if margin < 0 {
			margin = -margin
		}
		switch {
		case score > stanceThreshold:
			result.Stance = domain.StancePositive
			result.StanceConfidence = clamp01(0.5 + margin/2)
		case score < -stanceThreshold:
			result.Stance = domain.StanceNegative
			result.StanceConfidence = clamp01(0.5 + margin/2)
		default:
			result.StanceConfidence = clamp01(1 - margin)
		}
	}

	// Bias: left vs right loaded-term counts, normalized to [-1,1].
	// Zero evidence yields bias 0 at 0.5 confidence.
	left := countPhrases(lower, leftLeaningTerms)
	right := countPhrases(lower, rightLeaningTerms)
	if left+right > 0 {
		result.BiasScore = clampRange(float64(right-left)/float64(right+left), -1, 1)
		result.BiasConfidence = clampRange(0.5+float64(left+right)*0.02, 0.5, 0.9)
	}

	result.Subjectivity = subjectivity(text, words, lower)

	return result
}

// subjectivity sums four weighted sub-factors plus the fixed baseline.
func subjectivity(text string, words []string, lower string) float64 {
	wordCount := float64(len(words))

	emotional := clamp01(float64(countMatches(words, emotionalWords)) / wordCount / 0.1)
	strong := clamp01(float64(countMatches(words, strongOpinionAdverbs)) / wordCount / 0.05)

	loaded := countPhrases(lower, leftLeaningTerms) + countPhrases(lower, rightLeaningTerms)
	loadedRatio := clamp01(float64(loaded) / wordCount / 0.05)

	// Opinion-vs-factual statement ratio, at sentence granularity.
	factual, subjective := 0, 0
	for _, sentence := range splitSentences(lower) {
		if containsAny(sentence, factualCues) {
			factual++
		}
		if containsAny(sentence, subjectiveCues) {
			subjective++
		}
	}
	opinionRatio := 0.5
	if factual+subjective > 0 {
		opinionRatio = float64(subjective) / float64(factual+subjective)
	}

	score := subjectivityBase +
		weightEmotional*emotional +
		weightOpinionRatio*opinionRatio +
		weightStrongOpinion*strong +
		weightLoadedTerms*loadedRatio

	return clamp01(score)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

func countMatches(words []string, vocab []string) int {
	set := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		set[v] = struct{}{}
	}
	count := 0
	for _, w := range words {
		if _, ok := set[w]; ok {
			count++
		}
	}
	return count
}

func countPhrases(lower string, phrases []string) int {
	count := 0
	for _, p := range phrases {
		count += strings.Count(lower, p)
	}
	return count
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
