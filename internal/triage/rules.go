package triage

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/grievance_desk/backend/internal/models"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Ruleset is the static lookup data behind classification: lexicons,
// per-category tables and unit keyword lists. It is loaded once and
// compiled into a Classifier; the Classifier never mutates it.
type Ruleset struct {
	Version         string                      `yaml:"version"`
	FallbackUnit    string                      `yaml:"fallback_unit"`
	StopWords       []string                    `yaml:"stop_words"`
	Negative        []string                    `yaml:"negative"`
	Positive        []string                    `yaml:"positive"`
	Urgent          []string                    `yaml:"urgent"`
	CategoryOffsets map[models.Category]int     `yaml:"category_offsets"`
	CategoryFloors  map[models.Category]float64 `yaml:"category_floors"`
	CategoryUnits   map[models.Category]string  `yaml:"category_units"`
	Units           []UnitKeywords              `yaml:"units"`
}

type UnitKeywords struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRuleset returns the ruleset embedded at build time.
func DefaultRuleset() (Ruleset, error) {
	return ParseRuleset(defaultRulesYAML)
}

// LoadRuleset reads a ruleset from path. An empty path yields the embedded
// default.
func LoadRuleset(path string) (Ruleset, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRuleset()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("read ruleset: %w", err)
	}
	return ParseRuleset(b)
}

func ParseRuleset(b []byte) (Ruleset, error) {
	var r Ruleset
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Ruleset{}, fmt.Errorf("parse ruleset: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Ruleset{}, err
	}
	return r, nil
}

// Validate checks that every known category has a default unit and that the
// fallback unit is set.
func (r Ruleset) Validate() error {
	if strings.TrimSpace(r.Version) == "" {
		return errors.New("ruleset: version is required")
	}
	if strings.TrimSpace(r.FallbackUnit) == "" {
		return errors.New("ruleset: fallback_unit is required")
	}
	for _, c := range models.Categories {
		if strings.TrimSpace(r.CategoryUnits[c]) == "" {
			return fmt.Errorf("ruleset: no default unit for category %q", c)
		}
	}
	seen := map[string]bool{}
	for _, u := range r.Units {
		if u.Code == "" {
			return errors.New("ruleset: unit without code")
		}
		if seen[u.Code] {
			return fmt.Errorf("ruleset: duplicate unit %q", u.Code)
		}
		seen[u.Code] = true
	}
	return nil
}

// DefaultUnit returns the unit a category falls back to when the text
// itself does not point anywhere.
func (r Ruleset) DefaultUnit(c models.Category) string {
	if u, ok := r.CategoryUnits[c]; ok && u != "" {
		return u
	}
	return r.FallbackUnit
}

func wordSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}
