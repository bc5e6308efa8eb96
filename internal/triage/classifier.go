package triage

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/utils"
)

// ErrClassificationDefaulted is soft: the returned result holds the default
// values and is safe to store.
var ErrClassificationDefaulted = errors.New("classification defaulted")

const (
	baseUrgency       = 50
	negativeBoost     = 20
	positivePenalty   = 10
	urgentBoost       = 30
	baseConfidence    = 0.5
	mediumTextLength  = 100
	longTextLength    = 300
	lengthBonus       = 0.1
	perKeywordBonus   = 0.02
	maxKeywordBonus   = 0.2
	defaultConfidence = 0.5
)

// Analyzer turns grievance text into a triage result.
type Analyzer interface {
	Classify(title, description string, category models.Category) (models.TriageResult, error)
}

type unitMatcher struct {
	code     string
	keywords map[string]struct{}
}

// Classifier is the rule-based Analyzer. It is safe for concurrent use.
type Classifier struct {
	rules    Ruleset
	stop     map[string]struct{}
	negative map[string]struct{}
	positive map[string]struct{}
	urgent   map[string]struct{}
	units    []unitMatcher
	now      func() time.Time
}

func NewClassifier(rules Ruleset) *Classifier {
	c := &Classifier{
		rules:    rules,
		stop:     wordSet(rules.StopWords),
		negative: wordSet(rules.Negative),
		positive: wordSet(rules.Positive),
		urgent:   wordSet(rules.Urgent),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, u := range rules.Units {
		c.units = append(c.units, unitMatcher{code: u.Code, keywords: wordSet(u.Keywords)})
	}
	return c
}

// WithClock replaces the time source used to stamp results.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

func (c *Classifier) Version() string {
	return c.rules.Version
}

// Keywords runs keyword extraction with the ruleset's stop words.
func (c *Classifier) Keywords(text string) []string {
	return ExtractKeywords(text, c.stop)
}

func (c *Classifier) Classify(title, description string, category models.Category) (result models.TriageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = c.defaultResult(category)
			err = fmt.Errorf("%w: %v", ErrClassificationDefaulted, r)
		}
	}()

	if !category.Valid() {
		return c.defaultResult(category), fmt.Errorf("%w: unknown category %q", ErrClassificationDefaulted, category)
	}

	text := strings.ToLower(title + " " + description)
	tokens := Tokenize(text)
	keywords := ExtractKeywords(text, c.stop)

	sentiment := models.SentimentNeutral
	switch {
	case containsAny(tokens, c.negative):
		sentiment = models.SentimentNegative
	case containsAny(tokens, c.positive):
		sentiment = models.SentimentPositive
	}

	urgency := baseUrgency
	switch sentiment {
	case models.SentimentNegative:
		urgency += negativeBoost
	case models.SentimentPositive:
		urgency -= positivePenalty
	}
	if containsAny(tokens, c.urgent) {
		urgency += urgentBoost
	}
	urgency += c.rules.CategoryOffsets[category]
	urgency = utils.ClampInt(urgency, 0, 100)

	confidence := baseConfidence
	length := utf8.RuneCountInString(text)
	if length > mediumTextLength {
		confidence += lengthBonus
	}
	if length > longTextLength {
		confidence += lengthBonus
	}
	confidence += math.Min(maxKeywordBonus, perKeywordBonus*float64(len(keywords)))
	confidence = math.Max(confidence, c.rules.CategoryFloors[category])
	confidence = utils.RoundTo(utils.ClampFloat(confidence, 0, 1), 2)

	return models.TriageResult{
		Sentiment:      sentiment,
		UrgencyScore:   urgency,
		Keywords:       keywords,
		SuggestedUnit:  c.suggestUnit(tokens, category),
		Confidence:     confidence,
		RulesetVersion: c.rules.Version,
		AnalyzedAt:     c.now(),
	}, nil
}

// suggestUnit picks the unit whose keywords occur most often. A tie for the
// top score, or no match at all, falls back to the category's default unit.
func (c *Classifier) suggestUnit(tokens []string, category models.Category) string {
	best := ""
	bestScore := 0
	tied := false
	for _, u := range c.units {
		score := 0
		for _, tok := range tokens {
			if _, ok := u.keywords[tok]; ok {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tied = u.code, score, false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return c.rules.DefaultUnit(category)
	}
	return best
}

func (c *Classifier) defaultResult(category models.Category) models.TriageResult {
	return models.TriageResult{
		Sentiment:      models.SentimentNeutral,
		UrgencyScore:   baseUrgency,
		Keywords:       []string{},
		SuggestedUnit:  c.rules.DefaultUnit(category),
		Confidence:     defaultConfidence,
		RulesetVersion: c.rules.Version,
		AnalyzedAt:     c.now(),
	}
}

func containsAny(tokens []string, set map[string]struct{}) bool {
	for _, tok := range tokens {
		if _, ok := set[tok]; ok {
			return true
		}
	}
	return false
}
