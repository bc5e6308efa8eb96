package models

import (
	"encoding/json"
	"time"
)

type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategorySanitation     Category = "sanitation"
	CategoryWaterSupply    Category = "water_supply"
	CategoryElectricity    Category = "electricity"
	CategoryTransportation Category = "transportation"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategoryPolice         Category = "police"
	CategoryOther          Category = "other"
)

var Categories = []Category{
	CategoryInfrastructure,
	CategorySanitation,
	CategoryWaterSupply,
	CategoryElectricity,
	CategoryTransportation,
	CategoryHealthcare,
	CategoryEducation,
	CategoryPolice,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities from low (0) to urgent (3); unknown values rank -1.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return -1
	}
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusRejected   Status = "rejected"
)

var Statuses = []Status{
	StatusPending,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
	StatusRejected,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

type Grievance struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description"`
	Category            Category      `json:"category"`
	Priority            Priority      `json:"priority"`
	Status              Status        `json:"status"`
	CitizenID           string        `json:"citizen_id"`
	AssignedOfficer     *string       `json:"assigned_officer"`
	Unit                string        `json:"unit"`
	Triage              *TriageResult `json:"triage,omitempty"`
	Updates             []UpdateEntry `json:"updates"`
	Feedback            *Feedback     `json:"feedback,omitempty"`
	ResolutionTimeHours *int          `json:"resolution_time_hours"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
	ResolvedAt          *time.Time    `json:"resolved_at"`
}

// Clone returns a copy that shares no mutable state with g.
func (g Grievance) Clone() Grievance {
	out := g
	if g.AssignedOfficer != nil {
		v := *g.AssignedOfficer
		out.AssignedOfficer = &v
	}
	if g.Triage != nil {
		t := *g.Triage
		t.Keywords = append([]string{}, g.Triage.Keywords...)
		out.Triage = &t
	}
	if g.Feedback != nil {
		f := *g.Feedback
		out.Feedback = &f
	}
	if g.ResolutionTimeHours != nil {
		v := *g.ResolutionTimeHours
		out.ResolutionTimeHours = &v
	}
	if g.ResolvedAt != nil {
		v := *g.ResolvedAt
		out.ResolvedAt = &v
	}
	out.Updates = make([]UpdateEntry, len(g.Updates))
	copy(out.Updates, g.Updates)
	return out
}

type TriageResult struct {
	Sentiment      Sentiment `json:"sentiment"`
	UrgencyScore   int       `json:"urgency_score"`
	Keywords       []string  `json:"keywords"`
	SuggestedUnit  string    `json:"suggested_unit"`
	Confidence     float64   `json:"confidence"`
	RulesetVersion string    `json:"ruleset_version"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// UpdateEntry is one line of a grievance's history. A nil Actor marks a
// system-generated entry.
type UpdateEntry struct {
	Message   string    `json:"message"`
	Actor     *string   `json:"actor"`
	Status    *Status   `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Officer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Unit   string `json:"unit"`
	Active bool   `json:"active"`
}

type Unit struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Active     bool       `json:"active"`
	Officers   []string   `json:"officers"`
}

func (u Unit) Accepts(c Category) bool {
	for _, cat := range u.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary"`
}
