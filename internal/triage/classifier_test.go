package triage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grievance_desk/backend/internal/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	rules, err := DefaultRuleset()
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	return NewClassifier(rules).WithClock(func() time.Time { return fixed })
}

func TestExtractKeywordsOrdering(t *testing.T) {
	stop := wordSet([]string{"this"})
	text := "Garbage, garbage! This street has garbage and a broken street lamp; lamp lamp."

	got := ExtractKeywords(text, stop)

	assert.Equal(t, []string{"garbage", "lamp", "street", "broken"}, got)
}

func TestExtractKeywordsIsStable(t *testing.T) {
	text := "alpha beta gamma delta alpha gamma epsilon zeta theta iota kappa lambda sigma omega"
	first := ExtractKeywords(text, nil)
	second := ExtractKeywords(text, nil)

	assert.Equal(t, first, second)
	assert.Len(t, first, 10)
	assert.Equal(t, []string{"alpha", "gamma", "beta", "delta"}, first[:4])
}

func TestExtractKeywordsEmpty(t *testing.T) {
	got := ExtractKeywords("", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, ExtractKeywords("a an the of", nil))
}

func TestClassifyBurstPipeScenario(t *testing.T) {
	c := newTestClassifier(t)

	res, err := c.Classify(
		"Water pipe burst emergency flooding",
		"This is urgent: an emergency on our street, water everywhere since morning.",
		models.CategoryWaterSupply,
	)

	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, res.Sentiment)
	assert.GreaterOrEqual(t, res.UrgencyScore, 95)
	assert.Equal(t, 100, res.UrgencyScore)
	assert.Equal(t, "municipal", res.SuggestedUnit)
	assert.Equal(t, "water", res.Keywords[0])
	assert.Equal(t, "2024.1", res.RulesetVersion)
}

func TestClassifyNegativeBeatsPositive(t *testing.T) {
	c := newTestClassifier(t)

	res, err := c.Classify("Thanks but the service is terrible", "", models.CategoryEducation)

	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, res.Sentiment)
	assert.Equal(t, 70, res.UrgencyScore)
}

func TestClassifyPositive(t *testing.T) {
	c := newTestClassifier(t)

	res, err := c.Classify("Great help from the clinic staff", "Thank you all", models.CategoryOther)

	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, res.Sentiment)
	assert.Equal(t, 40, res.UrgencyScore)
	assert.Equal(t, "health", res.SuggestedUnit)
}

func TestClassifyUnitTieFallsBackToCategoryDefault(t *testing.T) {
	c := newTestClassifier(t)

	res, err := c.Classify("school near the hospital", "", models.CategoryPolice)

	require.NoError(t, err)
	assert.Equal(t, "police", res.SuggestedUnit)
}

func TestClassifyConfidence(t *testing.T) {
	c := newTestClassifier(t)

	short, err := c.Classify("Noise", "", models.CategoryOther)
	require.NoError(t, err)
	assert.InDelta(t, 0.52, short.Confidence, 1e-9)

	long := strings.Repeat("drainage overflow blocked near market ", 10)
	res, err := c.Classify("Drainage", long, models.CategoryOther)
	require.NoError(t, err)
	// 0.5 + 0.1 + 0.1 + 5 keywords * 0.02
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)

	floored, err := c.Classify("Noise", "", models.CategoryHealthcare)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, floored.Confidence, 1e-9)
}

func TestClassifyBoundsForAllCategories(t *testing.T) {
	c := newTestClassifier(t)
	texts := []struct{ title, desc string }{
		{"", ""},
		{"urgent emergency terrible", "dangerous fire accident, worst failure"},
		{"thanks", "great excellent helpful"},
		{"Pothole", strings.Repeat("pothole road street ", 40)},
	}
	for _, cat := range models.Categories {
		for _, tc := range texts {
			res, err := c.Classify(tc.title, tc.desc, cat)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.UrgencyScore, 0)
			assert.LessOrEqual(t, res.UrgencyScore, 100)
			assert.GreaterOrEqual(t, res.Confidence, 0.0)
			assert.LessOrEqual(t, res.Confidence, 1.0)
			assert.LessOrEqual(t, len(res.Keywords), 10)
		}
	}
}

func TestClassifyUnknownCategoryDefaults(t *testing.T) {
	c := newTestClassifier(t)

	res, err := c.Classify("Burst pipe", "urgent", models.Category("parks"))

	require.ErrorIs(t, err, ErrClassificationDefaulted)
	assert.Equal(t, models.SentimentNeutral, res.Sentiment)
	assert.Equal(t, 50, res.UrgencyScore)
	assert.Empty(t, res.Keywords)
	assert.Equal(t, "municipal", res.SuggestedUnit)
	assert.Equal(t, 0.5, res.Confidence)
}

func TestParseRulesetRejectsMissingUnits(t *testing.T) {
	_, err := ParseRuleset([]byte("version: x\nfallback_unit: municipal\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default unit")
}
