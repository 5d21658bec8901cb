package stance

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"article-enricher/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type fakeProvider struct {
	result *domain.StanceAnalysis
	err    error
	calls  int
}

func (f *fakeProvider) AnalyzeSentimentBias(_ context.Context, _ string) (*domain.StanceAnalysis, error) {
	f.calls++
	return f.result, f.err
}

func TestAnalyzeLocal(t *testing.T) {
	t.Run("should detect positive stance from keyword balance", func(t *testing.T) {
		result := AnalyzeLocal("The economy saw strong growth and great progress with clear benefit for workers.")

		assert.Equal(t, domain.StancePositive, result.Stance)
		assert.Greater(t, result.StanceConfidence, 0.5)
		assert.Equal(t, "lexicon", result.Method)
	})

	t.Run("should detect negative stance from keyword balance", func(t *testing.T) {
		result := AnalyzeLocal("The crisis deepened as the failure caused widespread damage and loss.")

		assert.Equal(t, domain.StanceNegative, result.Stance)
		assert.Greater(t, result.StanceConfidence, 0.5)
	})

	t.Run("should default to neutral with no sentiment evidence", func(t *testing.T) {
		result := AnalyzeLocal("The committee met on Tuesday to review the quarterly schedule.")

		assert.Equal(t, domain.StanceNeutral, result.Stance)
		assert.Equal(t, 0.5, result.StanceConfidence)
	})

	t.Run("should return zero bias at half confidence without loaded terms", func(t *testing.T) {
		result := AnalyzeLocal("The city council approved the new transit schedule on Monday.")

		assert.Equal(t, 0.0, result.BiasScore)
		assert.Equal(t, 0.5, result.BiasConfidence)
	})

	t.Run("should lean right when right-leaning terms dominate", func(t *testing.T) {
		result := AnalyzeLocal("Advocates of the free market praised the tax relief plan and border security measures.")

		assert.Greater(t, result.BiasScore, 0.0)
		assert.GreaterOrEqual(t, result.BiasConfidence, 0.5)
	})

	t.Run("should lean left when left-leaning terms dominate", func(t *testing.T) {
		result := AnalyzeLocal("The rally focused on the climate crisis, wealth inequality and universal healthcare.")

		assert.Less(t, result.BiasScore, 0.0)
	})

	t.Run("should cap bias confidence at 0.9", func(t *testing.T) {
		text := ""
		for i := 0; i < 30; i++ {
			text += "free market tax relief border security conservative "
		}
		result := AnalyzeLocal(text)

		assert.Equal(t, 0.9, result.BiasConfidence)
	})

	t.Run("should score subjective commentary above factual reporting", func(t *testing.T) {
		factual := "According to the report, output rose 3 percent. Officials said records show steady demand. The study found no anomalies."
		opinion := "Clearly this is an appalling, disgraceful decision. I think it must be reversed. Frankly, it seems utterly shocking."

		factualResult := AnalyzeLocal(factual)
		opinionResult := AnalyzeLocal(opinion)

		assert.Greater(t, opinionResult.Subjectivity, factualResult.Subjectivity)
	})

	t.Run("should keep subjectivity in unit range for empty text", func(t *testing.T) {
		result := AnalyzeLocal("")

		assert.InDelta(t, 0.1, result.Subjectivity, 1e-9)
		assert.Equal(t, domain.StanceNeutral, result.Stance)
	})
}

func TestScorerAnalyze(t *testing.T) {
	t.Run("should use provider output when usable", func(t *testing.T) {
		provider := &fakeProvider{result: &domain.StanceAnalysis{
			Stance:           domain.StancePositive,
			StanceConfidence: 0.92,
			BiasScore:        0.4,
			BiasConfidence:   0.8,
		}}
		scorer := NewScorer(provider, time.Second, testLogger())

		result := scorer.Analyze(context.Background(), "Officials said the plan brings strong growth.")

		require.Equal(t, 1, provider.calls)
		assert.Equal(t, domain.StancePositive, result.Stance)
		assert.Equal(t, 0.92, result.StanceConfidence)
		assert.Equal(t, "provider", result.Method)
	})

	t.Run("should compute subjectivity locally even with provider output", func(t *testing.T) {
		provider := &fakeProvider{result: &domain.StanceAnalysis{
			Stance:           domain.StanceNeutral,
			StanceConfidence: 0.9,
			Subjectivity:     0.99,
		}}
		scorer := NewScorer(provider, time.Second, testLogger())

		text := "The committee met on Tuesday to review the schedule."
		result := scorer.Analyze(context.Background(), text)

		assert.Equal(t, AnalyzeLocal(text).Subjectivity, result.Subjectivity)
	})

	t.Run("should fall back to lexicon when provider errors", func(t *testing.T) {
		provider := &fakeProvider{err: errors.New("connection refused")}
		scorer := NewScorer(provider, time.Second, testLogger())

		result := scorer.Analyze(context.Background(), "The crisis caused widespread damage and loss.")

		assert.Equal(t, "lexicon", result.Method)
		assert.Equal(t, domain.StanceNegative, result.Stance)
	})

	t.Run("should fall back when provider confidence is too low", func(t *testing.T) {
		provider := &fakeProvider{result: &domain.StanceAnalysis{
			Stance:           domain.StancePositive,
			StanceConfidence: 0.2,
		}}
		scorer := NewScorer(provider, time.Second, testLogger())

		result := scorer.Analyze(context.Background(), "Strong growth and great progress.")

		assert.Equal(t, "lexicon", result.Method)
	})

	t.Run("should fall back when provider stance is garbled", func(t *testing.T) {
		provider := &fakeProvider{result: &domain.StanceAnalysis{
			Stance:           domain.Stance("enthusiastic"),
			StanceConfidence: 0.9,
		}}
		scorer := NewScorer(provider, time.Second, testLogger())

		result := scorer.Analyze(context.Background(), "Plain text without sentiment.")

		assert.Equal(t, "lexicon", result.Method)
	})

	t.Run("should run purely local without a provider", func(t *testing.T) {
		scorer := NewScorer(nil, time.Second, testLogger())

		result := scorer.Analyze(context.Background(), "Strong growth and great progress.")

		assert.Equal(t, "lexicon", result.Method)
		assert.Equal(t, domain.StancePositive, result.Stance)
	})
}
