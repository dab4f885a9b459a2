// Package models defines the data structures for the Roomy matching engine.
package models

import (
	"encoding/json"
	"time"
)

// MatchType tags what kind of candidate a match refers to.
type MatchType string

const (
	MatchTypeDorm     MatchType = "dorm"
	MatchTypeRoom     MatchType = "room"
	MatchTypeRoommate MatchType = "roommate"
)

// ScoredMatch is a candidate annotated with its scores and explanations.
// It is built fresh for every request and never persisted.
type ScoredMatch struct {
	Type        MatchType
	CandidateID string

	Dorm     *Dorm
	Room     *RoomWithDorm
	Roommate *RoommateView

	Score                float64
	SubScores            map[string]float64
	PersonalityBreakdown map[string]float64
	PersonalityScore     *float64
	BudgetWarning        string

	// Context used by the explanation generator.
	EligibleRooms int
	PlaceName     string
	SpotsLeft     int
	Fallback      bool

	Explanations       []string
	Explanation        string
	PersonalityVisible bool
	TierMessage        string
}

// MarshalJSON flattens the candidate fields next to the match annotations.
func (m *ScoredMatch) MarshalJSON() ([]byte, error) {
	out := map[string]any{}

	var candidate any
	switch {
	case m.Dorm != nil:
		candidate = m.Dorm
	case m.Room != nil:
		candidate = m.Room
	case m.Roommate != nil:
		candidate = m.Roommate
	}
	if candidate != nil {
		raw, err := json.Marshal(candidate)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}

	subScores := make(map[string]any, len(m.SubScores)+1)
	for k, v := range m.SubScores {
		subScores[k] = v
	}
	if len(m.PersonalityBreakdown) > 0 {
		subScores["personality_breakdown"] = m.PersonalityBreakdown
	}

	out["type"] = m.Type
	out["score"] = m.Score
	out["subScores"] = subScores
	out["explanations"] = nonNil(m.Explanations)
	out["explanation"] = m.Explanation
	out["personality_visible"] = m.PersonalityVisible
	if m.Type == MatchTypeRoommate {
		out["personality_score"] = m.PersonalityScore
	}
	if m.BudgetWarning != "" {
		out["budgetWarning"] = m.BudgetWarning
	}
	if m.TierMessage != "" {
		out["tier_message"] = m.TierMessage
	}
	return json.Marshal(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Fallback describes how an empty primary result was handled.
type Fallback struct {
	Type           string   `json:"type"`
	Message        string   `json:"message"`
	FiltersRelaxed []string `json:"filters_relaxed,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

// TierInfo summarizes the tier the request was served with.
type TierInfo struct {
	CurrentTier        PlanTier `json:"current_tier"`
	PersonalityEnabled bool     `json:"personality_enabled"`
	MatchLimit         int      `json:"match_limit"`
}

// MatchResponse is the body returned for the matching modes.
type MatchResponse struct {
	AIMode          string         `json:"ai_mode"`
	MatchTier       PlanTier       `json:"match_tier"`
	PersonalityUsed bool           `json:"personality_used"`
	InsightsBanner  string         `json:"insights_banner"`
	Matches         []*ScoredMatch `json:"matches"`
	Fallback        *Fallback      `json:"fallback"`
	TierInfo        TierInfo       `json:"tier_info"`
}

// MatchLog is a best-effort analytics record of one matching request.
type MatchLog struct {
	RequestID    string         `json:"request_id" db:"request_id"`
	StudentID    string         `json:"student_id" db:"student_id"`
	Mode         string         `json:"mode" db:"mode"`
	Tier         PlanTier       `json:"tier" db:"tier"`
	MatchCount   int            `json:"match_count" db:"match_count"`
	FallbackType string         `json:"fallback_type,omitempty" db:"fallback_type"`
	Rejections   map[string]int `json:"rejections,omitempty" db:"rejections"`
	DurationMs   int64          `json:"duration_ms" db:"duration_ms"`
	Error        string         `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
