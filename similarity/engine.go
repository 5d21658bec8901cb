// Package similarity scores pairwise article similarity and classifies
// relationship type and strength.
package similarity

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"article-enricher/domain"
)

// Fixed sub-score weights. The source-diversity bonus is added on top and
// the overall score is clamped to [0,1].
const (
	weightEntity   = 0.30
	weightTag      = 0.25
	weightTitle    = 0.20
	weightContent  = 0.15
	weightTemporal = 0.10

	diversityBonus = 0.10

	// temporalHalfLifeDays controls the exp(-days/7) decay.
	temporalDecayDays = 7.0
)

// Config bounds the candidate pool and result set.
type Config struct {
	RecencyWindow time.Duration
	MinSimilarity float64
	MaxResults    int
	PreferRecent  bool
}

// DefaultConfig returns the similarity defaults.
func DefaultConfig() Config {
	return Config{
		RecencyWindow: 30 * 24 * time.Hour,
		MinSimilarity: 0.4,
		MaxResults:    10,
	}
}

// Engine computes relationships from the perspective of one source article.
// Results are directional: sim(A,B) is not guaranteed to equal sim(B,A).
type Engine struct {
	cfg Config
}

// NewEngine creates a similarity engine.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	if cfg.RecencyWindow <= 0 {
		cfg.RecencyWindow = DefaultConfig().RecencyWindow
	}
	return &Engine{cfg: cfg}
}

// Subscores are the normalized per-factor similarity components.
type Subscores struct {
	Entity    float64
	Tag       float64
	Title     float64
	Content   float64
	Temporal  float64
	Diversity float64
}

// FindRelated scores every candidate against the target, drops candidates
// below the minimum similarity, ranks the survivors and truncates to the
// configured maximum.
func (e *Engine) FindRelated(target domain.CandidateArticle, pool []domain.CandidateArticle) []domain.ArticleRelationship {
	var relationships []domain.ArticleRelationship

	for _, candidate := range pool {
		if candidate.Article == nil || candidate.Article.ID == target.Article.ID {
			continue
		}
		if e.cfg.RecencyWindow > 0 {
			gap := target.Article.PublishedAt.Sub(candidate.Article.PublishedAt)
			if gap < 0 {
				gap = -gap
			}
			if gap > e.cfg.RecencyWindow {
				continue
			}
		}

		sub, overall := e.Score(target, candidate)
		if overall < e.cfg.MinSimilarity {
			continue
		}

		relationships = append(relationships, e.buildRelationship(target, candidate, sub, overall))
	}

	sort.SliceStable(relationships, func(i, j int) bool {
		return e.rankScore(relationships[i]) > e.rankScore(relationships[j])
	})

	if len(relationships) > e.cfg.MaxResults {
		relationships = relationships[:e.cfg.MaxResults]
	}
	return relationships
}

// rankScore blends similarity (80%) with confidence (20%) when the
// prefer-recent flag is set, otherwise ranks by raw similarity.
func (e *Engine) rankScore(r domain.ArticleRelationship) float64 {
	if e.cfg.PreferRecent {
		return 0.8*r.Similarity + 0.2*r.Confidence
	}
	return r.Similarity
}

// Score computes the five normalized sub-scores and the weighted overall
// similarity for one candidate.
func (e *Engine) Score(target, candidate domain.CandidateArticle) (Subscores, float64) {
	var sub Subscores

	sub.Entity = weightedSetSimilarity(entityItems(target.Entities), entityItems(candidate.Entities))
	sub.Tag = weightedSetSimilarity(tagItems(target.Tags), tagItems(candidate.Tags))
	sub.Title = textSimilarity(target.Article.Title, candidate.Article.Title)
	sub.Content = textSimilarity(target.Article.BestText(), candidate.Article.BestText())
	sub.Temporal = temporalRelevance(target.Article.PublishedAt, candidate.Article.PublishedAt)
	if !strings.EqualFold(target.Article.Source, candidate.Article.Source) {
		sub.Diversity = diversityBonus
	}

	overall := weightEntity*sub.Entity +
		weightTag*sub.Tag +
		weightTitle*sub.Title +
		weightContent*sub.Content +
		weightTemporal*sub.Temporal +
		sub.Diversity

	return sub, clamp01(overall)
}

func (e *Engine) buildRelationship(target, candidate domain.CandidateArticle, sub Subscores, overall float64) domain.ArticleRelationship {
	return domain.ArticleRelationship{
		ArticleID:        target.Article.ID,
		RelatedArticleID: candidate.Article.ID,
		Type:             classifyType(target, candidate, sub, overall),
		Strength:         ClassifyStrength(overall),
		Similarity:       overall,
		ContentOverlap:   sub.Content,
		SharedEntities:   sharedKeys(entityItems(target.Entities), entityItems(candidate.Entities)),
		SharedTags:       sharedKeys(tagItems(target.Tags), tagItems(candidate.Tags)),
		DetectionMethod:  "multi_factor",
		Confidence:       confidence(sub),
	}
}

// classifyType applies the fixed decision ladder: update for near-duplicate
// coverage where one article grew substantially, similar above 0.6,
// followup for close-in-time entity overlap, else similar.
func classifyType(target, candidate domain.CandidateArticle, sub Subscores, overall float64) domain.RelationshipType {
	days := daysApart(target.Article.PublishedAt, candidate.Article.PublishedAt)

	if overall > 0.8 && days <= 3 && wordCountsDiverge(target.Article, candidate.Article) {
		return domain.RelationUpdate
	}
	if overall > 0.6 {
		return domain.RelationSimilar
	}
	if days <= 7 && sub.Entity > 0.7 {
		return domain.RelationFollowup
	}
	return domain.RelationSimilar
}

// wordCountsDiverge reports whether the word counts differ by more than 30%
// of the larger count.
func wordCountsDiverge(a, b *domain.Article) bool {
	wa := len(strings.Fields(a.BestText()))
	wb := len(strings.Fields(b.BestText()))

	larger := wa
	if wb > larger {
		larger = wb
	}
	if larger == 0 {
		return false
	}

	diff := wa - wb
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) > 0.3*float64(larger)
}

// ClassifyStrength is a pure, monotonic banding of the similarity score.
func ClassifyStrength(score float64) domain.RelationshipStrength {
	switch {
	case score >= 0.8:
		return domain.StrengthStrong
	case score >= 0.6:
		return domain.StrengthModerate
	default:
		return domain.StrengthWeak
	}
}

// confidence averages the four content sub-scores and adds +0.1 for every
// contributing factor beyond the first (sub-score > 0.3), clamped to
// [0.3, 0.95].
func confidence(sub Subscores) float64 {
	avg := (sub.Entity + sub.Tag + sub.Title + sub.Content) / 4

	contributing := 0
	for _, v := range []float64{sub.Entity, sub.Tag, sub.Title, sub.Content} {
		if v > 0.3 {
			contributing++
		}
	}
	if contributing > 1 {
		avg += 0.1 * float64(contributing-1)
	}

	if avg < 0.3 {
		return 0.3
	}
	if avg > 0.95 {
		return 0.95
	}
	return avg
}

// temporalRelevance decays exponentially with the publication gap
// (half-life about 4.85 days).
func temporalRelevance(a, b time.Time) float64 {
	return math.Exp(-daysApart(a, b) / temporalDecayDays)
}

func daysApart(a, b time.Time) float64 {
	gap := a.Sub(b)
	if gap < 0 {
		gap = -gap
	}
	return gap.Hours() / 24
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

// weightedItem carries the text key and relevance weight of an entity or
// tag for the dual Jaccard/weighted-overlap formula.
type weightedItem struct {
	key    string
	weight float64
}

func entityItems(entities []domain.Entity) []weightedItem {
	items := make([]weightedItem, 0, len(entities))
	for _, e := range entities {
		items = append(items, weightedItem{key: strings.ToLower(e.Text), weight: e.Importance})
	}
	return items
}

func tagItems(tags []domain.Tag) []weightedItem {
	items := make([]weightedItem, 0, len(tags))
	for _, t := range tags {
		items = append(items, weightedItem{key: strings.ToLower(t.Label), weight: t.Confidence})
	}
	return items
}

// weightedSetSimilarity averages (a) Jaccard over the key sets and (b) the
// weight of matched keys divided by the total weight across both sets.
func weightedSetSimilarity(a, b []weightedItem) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	aWeights := itemWeights(a)
	bWeights := itemWeights(b)

	intersection := 0
	matchedWeight := 0.0
	for key, wa := range aWeights {
		if wb, ok := bWeights[key]; ok {
			intersection++
			matchedWeight += wa + wb
		}
	}

	union := len(aWeights) + len(bWeights) - intersection
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(intersection) / float64(union)
	}

	totalWeight := 0.0
	for _, w := range aWeights {
		totalWeight += w
	}
	for _, w := range bWeights {
		totalWeight += w
	}
	weighted := 0.0
	if totalWeight > 0 {
		weighted = matchedWeight / totalWeight
	}

	return (jaccard + weighted) / 2
}

func itemWeights(items []weightedItem) map[string]float64 {
	weights := make(map[string]float64, len(items))
	for _, it := range items {
		if existing, ok := weights[it.key]; !ok || it.weight > existing {
			weights[it.key] = it.weight
		}
	}
	return weights
}

func sharedKeys(a, b []weightedItem) []string {
	bKeys := make(map[string]struct{}, len(b))
	for _, it := range b {
		bKeys[it.key] = struct{}{}
	}

	var shared []string
	seen := make(map[string]struct{})
	for _, it := range a {
		if _, ok := bKeys[it.key]; !ok {
			continue
		}
		if _, dup := seen[it.key]; dup {
			continue
		}
		seen[it.key] = struct{}{}
		shared = append(shared, it.key)
	}
	sort.Strings(shared)
	return shared
}

// textSimilarity is unigram Jaccard weighted 0.7 plus bigram Jaccard
// weighted 0.3 over alphanumeric lower-cased token sequences.
func textSimilarity(a, b string) float64 {
	ta := tokenizeAlnum(a)
	tb := tokenizeAlnum(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	return 0.7*setJaccard(unigrams(ta), unigrams(tb)) + 0.3*setJaccard(bigrams(ta), bigrams(tb))
}

func tokenizeAlnum(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func unigrams(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func bigrams(tokens []string) map[string]struct{} {
	set := make(map[string]struct{})
	for i := 0; i+1 < len(tokens); i++ {
		set[tokens[i]+" "+tokens[i+1]] = struct{}{}
	}
	return set
}

func setJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
