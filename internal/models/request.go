// Package models defines the data structures for the Roomy matching engine.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Mode selects which fetchers a matching request runs.
type Mode string

const (
	ModeDorm     Mode = "dorm"
	ModeRoommate Mode = "roommate"
	ModeCombined Mode = "combined"
	ModeRooms    Mode = "rooms"
)

// IsValid checks if the mode is one of the supported modes.
func (m Mode) IsValid() bool {
	switch m {
	case ModeDorm, ModeRoommate, ModeCombined, ModeRooms:
		return true
	}
	return false
}

// Action routes auxiliary requests that bypass the matching pipeline.
type Action string

const (
	ActionRecordFeedback     Action = "record_feedback"
	ActionGetAggregateScores Action = "get_aggregate_scores"
)

// MatchRequest is the JSON body of the match endpoint.
type MatchRequest struct {
	Mode               Mode            `json:"mode"`
	MatchTier          string          `json:"match_tier,omitempty"`
	PersonalityEnabled *bool           `json:"personality_enabled,omitempty"`
	Limit              int             `json:"limit,omitempty"`
	Context            *RequestContext `json:"context,omitempty"`
	ExcludeIDs         []string        `json:"exclude_ids,omitempty"`
	Action             Action          `json:"action,omitempty"`

	// record_feedback payload
	AIAction     string `json:"ai_action,omitempty"`
	TargetID     string `json:"target_id,omitempty"`
	HelpfulScore int    `json:"helpful_score,omitempty"`
	FeedbackText string `json:"feedback_text,omitempty"`
}

// RequestContext carries per-request overrides of profile defaults.
type RequestContext struct {
	Budget     *float64   `json:"budget,omitempty"`
	Area       StringList `json:"area,omitempty"`
	University string     `json:"university,omitempty"`
}

// StringList decodes from either a JSON string or an array of strings.
type StringList []string

// UnmarshalJSON accepts "x" as well as ["x", "y"].
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			*l = nil
			return nil
		}
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Feedback is a student's rating of an AI suggestion.
type Feedback struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	AIAction     string    `json:"ai_action" db:"ai_action"`
	TargetID     string    `json:"target_id" db:"target_id"`
	HelpfulScore int       `json:"helpful_score" db:"helpful_score"`
	FeedbackText string    `json:"feedback_text,omitempty" db:"feedback_text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// FeedbackCreate represents the data needed to record feedback.
type FeedbackCreate struct {
	UserID       string `json:"user_id" validate:"required"`
	AIAction     string `json:"ai_action" validate:"required"`
	TargetID     string `json:"target_id" validate:"required"`
	HelpfulScore int    `json:"helpful_score" validate:"gte=1,lte=5"`
	FeedbackText string `json:"feedback_text,omitempty"`
}

// ScoreTotals aggregates helpful scores for one key.
type ScoreTotals struct {
	Total   int     `json:"total"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// AggregateScores groups feedback totals per action and per target.
type AggregateScores struct {
	ByAction map[string]*ScoreTotals `json:"by_action"`
	ByTarget map[string]*ScoreTotals `json:"by_target"`
}

// AggregateFeedback folds feedback rows into per-action and per-target totals.
func AggregateFeedback(rows []*Feedback) *AggregateScores {
	agg := &AggregateScores{
		ByAction: map[string]*ScoreTotals{},
		ByTarget: map[string]*ScoreTotals{},
	}
	add := func(m map[string]*ScoreTotals, key string, score int) {
		t, ok := m[key]
		if !ok {
			t = &ScoreTotals{}
			m[key] = t
		}
		t.Total += score
		t.Count++
		t.Average = float64(t.Total) / float64(t.Count)
	}
	for _, f := range rows {
		add(agg.ByAction, f.AIAction, f.HelpfulScore)
		add(agg.ByTarget, f.TargetID, f.HelpfulScore)
	}
	return agg
}
