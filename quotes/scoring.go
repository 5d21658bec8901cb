package quotes

import (
	"math"
	"sort"
	"strings"

	"article-enricher/domain"
)

// Fixed title vocabulary used for the speaker-title bonus.
var speakerTitles = []string{
	"president", "senator", "representative", "governor", "mayor",
	"minister", "secretary", "chancellor", "ambassador", "chief",
	"ceo", "cfo", "cto", "chairman", "chairwoman", "director",
	"professor", "dr.", "dr ", "spokesperson", "spokesman", "spokeswoman",
	"analyst", "official", "general", "judge", "attorney",
}

// Significance vocabulary: words signalling that a statement matters.
var significanceWords = []string{
	"critical", "important", "significant", "major", "breakthrough",
	"unprecedented", "historic", "crucial", "key", "essential",
	"urgent", "landmark", "decisive", "milestone",
}

// Emotional intensity vocabulary.
var intensityWords = []string{
	"outraged", "thrilled", "devastated", "shocked", "furious",
	"delighted", "alarmed", "stunned", "horrified", "ecstatic",
	"terrified", "overjoyed", "appalled", "elated",
}

var positiveWords = []string{
	"good", "great", "excellent", "positive", "success", "successful",
	"win", "improve", "improved", "growth", "benefit", "strong",
	"hope", "hopeful", "progress", "achievement", "support", "praise",
}

var negativeWords = []string{
	"bad", "poor", "terrible", "negative", "failure", "failed",
	"lose", "loss", "decline", "crisis", "threat", "weak",
	"fear", "concern", "problem", "risk", "damage", "criticize",
}

// scoreCandidates computes importance and sentiment for every candidate.
// Speaker repetition is counted across the whole candidate set first.
func scoreCandidates(quotes []domain.Quote, textLen int) {
	speakerCount := make(map[string]int)
	for _, q := range quotes {
		if q.Speaker != "" {
			speakerCount[strings.ToLower(q.Speaker)]++
		}
	}

	for i := range quotes {
		quotes[i].Importance = importanceScore(&quotes[i], speakerCount, textLen)
		quotes[i].Sentiment = sentimentScore(quotes[i].Text)
	}
}

// importanceScore sums the fixed bonuses and clamps to [0,1].
func importanceScore(q *domain.Quote, speakerCount map[string]int, textLen int) float64 {
	score := 0.0

	// Length band: 50-200 characters is optimal.
	n := len(q.Text)
	switch {
	case n >= 50 && n <= 200:
		score += 0.30
	case (n >= 20 && n < 50) || (n > 200 && n <= 300):
		score += 0.15
	}

	lowerQuote := strings.ToLower(q.Text)

	if q.Speaker != "" {
		score += 0.15

		speakerAndContext := strings.ToLower(q.Speaker + " " + q.Context)
		for _, title := range speakerTitles {
			if strings.Contains(speakerAndContext, title) {
				score += 0.15
				break
			}
		}

		if speakerCount[strings.ToLower(q.Speaker)] > 1 {
			score += 0.10
		}
	}

	// Early-article position bonus.
	if q.ParagraphIndex <= 2 || (textLen > 0 && q.StartOffset < textLen/5) {
		score += 0.10
	}

	score += keywordBonus(lowerQuote, significanceWords, 0.05, 0.15)
	score += keywordBonus(lowerQuote, intensityWords, 0.05, 0.10)

	return clamp01(score)
}

// keywordBonus adds per-hit bonuses up to a cap.
func keywordBonus(text string, vocab []string, perHit, cap float64) float64 {
	bonus := 0.0
	for _, w := range vocab {
		if strings.Contains(text, w) {
			bonus += perHit
			if bonus >= cap {
				return cap
			}
		}
	}
	return bonus
}

// sentimentScore is a simple positive/negative keyword-count ratio clamped
// to [-1,1].
func sentimentScore(text string) float64 {
	lower := strings.ToLower(text)

	pos, neg := 0, 0
	for _, w := range positiveWords {
		pos += strings.Count(lower, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(lower, w)
	}

	total := pos + neg
	if total == 0 {
		return 0
	}

	score := float64(pos-neg) / float64(total)
	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// markKeyQuotes marks every quote scoring >= 0.7 as key, plus enough
// top-ranked quotes to reach min(5, ceil(20% of quote count)).
func markKeyQuotes(quotes []domain.Quote) {
	if len(quotes) == 0 {
		return
	}

	target := int(math.Ceil(float64(len(quotes)) * 0.2))
	if target > 5 {
		target = 5
	}

	ranked := make([]*domain.Quote, len(quotes))
	for i := range quotes {
		ranked[i] = &quotes[i]
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	marked := 0
	for _, q := range ranked {
		if q.Importance >= 0.7 {
			q.IsKeyQuote = true
			marked++
		}
	}
	for _, q := range ranked {
		if marked >= target {
			break
		}
		if !q.IsKeyQuote {
			q.IsKeyQuote = true
			marked++
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
