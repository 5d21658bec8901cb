package domain

// TextMetrics holds raw text statistics, recomputed on every run.
type TextMetrics struct {
	WordCount           int     `json:"word_count"`
	SentenceCount       int     `json:"sentence_count"`
	ParagraphCount      int     `json:"paragraph_count"`
	CharacterCount      int     `json:"character_count"`
	SyllableCount       int     `json:"syllable_count"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
	AvgWordLength       float64 `json:"avg_word_length"`
}

// ReadabilityScores holds the derived readability values. Every field is
// clamped to its documented range before being returned.
type ReadabilityScores struct {
	FleschReadingEase  float64 `json:"flesch_reading_ease"`  // 0..100
	FleschKincaidGrade float64 `json:"flesch_kincaid_grade"` // >= 0
	ComplexityScore    float64 `json:"complexity_score"`     // 0..1
}

// ContentAnalysis bundles the output of the content analysis step.
type ContentAnalysis struct {
	DifficultyLabel    string            `json:"difficulty_label"`
	ComplexityLabel    string            `json:"complexity_label"`
	Metrics            TextMetrics       `json:"metrics"`
	Readability        ReadabilityScores `json:"readability"`
	ReadingTimeMinutes int               `json:"reading_time_minutes"`
}

// QuoteType classifies how a quote appears in the text.
type QuoteType string

const (
	QuoteDirect     QuoteType = "direct"
	QuoteReported   QuoteType = "reported"
	QuoteParaphrase QuoteType = "paraphrase"
)

// Quote is an extracted attributed statement. Quotes for an article are
// fully replaced on each run.
type Quote struct {
	Text           string    `json:"text"`
	Speaker        string    `json:"speaker,omitempty"`
	Context        string    `json:"context"`
	Type           QuoteType `json:"type"`
	StartOffset    int       `json:"start_offset"`
	EndOffset      int       `json:"end_offset"`
	ParagraphIndex int       `json:"paragraph_index"`
	Importance     float64   `json:"importance"` // 0..1
	Sentiment      float64   `json:"sentiment"`  // -1..1
	IsKeyQuote     bool      `json:"is_key_quote"`
}

// Entity is a named entity span returned by the NLP provider. Importance is
// the persisted relevance weight used by the similarity engine.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Importance float64 `json:"importance"`
}

// Tag is a topical label with a zero-shot classification confidence.
type Tag struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Stance is the overall sentiment polarity of an article.
type Stance string

const (
	StancePositive Stance = "positive"
	StanceNegative Stance = "negative"
	StanceNeutral  Stance = "neutral"
)

// StanceAnalysis is the stance/bias/subjectivity record, upserted per
// article.
type StanceAnalysis struct {
	Stance           Stance  `json:"stance"`
	StanceConfidence float64 `json:"stance_confidence"` // 0..1
	BiasScore        float64 `json:"bias_score"`        // -1 (left) .. +1 (right)
	BiasConfidence   float64 `json:"bias_confidence"`   // 0..1
	Subjectivity     float64 `json:"subjectivity"`      // 0..1
	Method           string  `json:"method"`            // "provider" or "lexicon"
}

// RelationshipType classifies how two articles relate.
type RelationshipType string

const (
	RelationSimilar       RelationshipType = "similar"
	RelationFollowup      RelationshipType = "followup"
	RelationContradiction RelationshipType = "contradiction"
	RelationUpdate        RelationshipType = "update"
)

// RelationshipStrength bands the similarity score.
type RelationshipStrength string

const (
	StrengthWeak     RelationshipStrength = "weak"
	StrengthModerate RelationshipStrength = "moderate"
	StrengthStrong   RelationshipStrength = "strong"
)

// ArticleRelationship is a directional relationship computed from the
// perspective of ArticleID. Not guaranteed symmetric.
type ArticleRelationship struct {
	ArticleID        string               `json:"article_id"`
	RelatedArticleID string               `json:"related_article_id"`
	Type             RelationshipType     `json:"type"`
	Strength         RelationshipStrength `json:"strength"`
	DetectionMethod  string               `json:"detection_method"`
	SharedEntities   []string             `json:"shared_entities"`
	SharedTags       []string             `json:"shared_tags"`
	Similarity       float64              `json:"similarity"`      // 0..1
	ContentOverlap   float64              `json:"content_overlap"` // 0..1
	Confidence       float64              `json:"confidence"`      // 0.3..0.95
}
