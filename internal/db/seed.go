package db

import (
	"context"
	"fmt"

	"github.com/grievance_desk/backend/internal/models"
)

// Seeder is the write side needed to load a unit directory.
type Seeder interface {
	UpsertUnit(ctx context.Context, u models.Unit) error
	UpsertOfficer(ctx context.Context, o models.Officer) error
}

// DemoUnits mirrors the default category table of the triage ruleset.
// No unit accepts "other".
func DemoUnits() []models.Unit {
	return []models.Unit{
		{Code: "municipal", Name: "Municipal Services", Active: true, Categories: []models.Category{
			models.CategoryInfrastructure, models.CategorySanitation, models.CategoryWaterSupply,
		}},
		{Code: "electricity", Name: "Electricity Board", Active: true, Categories: []models.Category{models.CategoryElectricity}},
		{Code: "transport", Name: "Transport Department", Active: true, Categories: []models.Category{models.CategoryTransportation}},
		{Code: "health", Name: "Health Department", Active: true, Categories: []models.Category{models.CategoryHealthcare}},
		{Code: "education", Name: "Education Department", Active: true, Categories: []models.Category{models.CategoryEducation}},
		{Code: "police", Name: "Police Department", Active: true, Categories: []models.Category{models.CategoryPolice}},
	}
}

func DemoOfficers() []models.Officer {
	var out []models.Officer
	for _, u := range DemoUnits() {
		for i := 1; i <= 2; i++ {
			out = append(out, models.Officer{
				ID:     fmt.Sprintf("%s-officer-%d", u.Code, i),
				Name:   fmt.Sprintf("%s Officer %d", u.Name, i),
				Unit:   u.Code,
				Active: true,
			})
		}
	}
	return out
}

// SeedDemo loads the demo directory. Units go first so officers can join
// their rosters.
func SeedDemo(ctx context.Context, s Seeder) error {
	for _, u := range DemoUnits() {
		if err := s.UpsertUnit(ctx, u); err != nil {
			return fmt.Errorf("seed unit %s: %w", u.Code, err)
		}
	}
	for _, o := range DemoOfficers() {
		if err := s.UpsertOfficer(ctx, o); err != nil {
			return fmt.Errorf("seed officer %s: %w", o.ID, err)
		}
	}
	return nil
}
