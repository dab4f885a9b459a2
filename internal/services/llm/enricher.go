// Package llm implements the optional enrichment stage that re-ranks matches
// and writes a one-line explanation per match plus an insights banner.
package llm

import (
	"context"
	"fmt"
	"strings"

	"roomy-ai-core/internal/models"
)

// Request is the input of one enrichment call.
type Request struct {
	Mode    models.Mode
	Tier    models.PlanTier
	Student *models.Student
	Matches []*models.ScoredMatch
}

// Enrichment is what an enricher adds to a scored result.
type Enrichment struct {
	// Order lists candidate ids best first. Empty keeps the scored order.
	Order []string `json:"ranking"`
	// Explanations maps candidate id to a one-line reasoning.
	Explanations map[string]string `json:"explanations"`
	Insights     string            `json:"insights"`
}

// Enricher re-ranks matches and explains them. Implementations may fail;
// callers degrade to Degraded on any error.
type Enricher interface {
	Enrich(ctx context.Context, req *Request) (*Enrichment, error)
}

// Degraded is the enricher used when no model is configured or a call fails.
// It never errors.
type Degraded struct{}

// Enrich returns templated explanations and the generic banner.
func (Degraded) Enrich(_ context.Context, req *Request) (*Enrichment, error) {
	return Degrade(req), nil
}

// Degrade builds the templated enrichment for a request.
func Degrade(req *Request) *Enrichment {
	e := &Enrichment{
		Explanations: make(map[string]string, len(req.Matches)),
		Insights:     GenericInsights(req.Mode),
	}
	for _, m := range req.Matches {
		e.Explanations[m.CandidateID] = TemplateExplanation(m)
	}
	return e
}

// TemplateExplanation is the one-line reasoning used without a model.
func TemplateExplanation(m *models.ScoredMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.0f%% match", m.Score)
	if m.Fallback {
		b.WriteString(" with relaxed filters")
	}
	if len(m.Explanations) > 0 {
		n := len(m.Explanations)
		if n > 2 {
			n = 2
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(m.Explanations[:n], ". "))
	}
	b.WriteString(".")
	return b.String()
}

// GenericInsights is the banner shown when no model insight is available.
func GenericInsights(mode models.Mode) string {
	switch mode {
	case models.ModeRoommate:
		return "Roommate matches are ranked by lifestyle, cleanliness, study habits and budget."
	case models.ModeCombined:
		return "Dorms and roommates are ranked by how well they fit your budget, location and lifestyle."
	case models.ModeRooms:
		return "Rooms are ranked by budget fit, location and your preferred room type."
	default:
		return "Dorms are ranked by budget fit, location, room type and amenities."
	}
}

// Apply reorders matches by the enrichment ranking and sets each match's
// explanation. Ids the ranking omits keep their relative order after the
// ranked ones; unknown ids are ignored. It returns the insights banner.
func Apply(req *Request, e *Enrichment) ([]*models.ScoredMatch, string) {
	matches := req.Matches
	if len(e.Order) > 0 {
		byID := make(map[string]*models.ScoredMatch, len(matches))
		for _, m := range matches {
			byID[m.CandidateID] = m
		}
		ordered := make([]*models.ScoredMatch, 0, len(matches))
		for _, id := range e.Order {
			if m, ok := byID[id]; ok {
				ordered = append(ordered, m)
				delete(byID, id)
			}
		}
		for _, m := range matches {
			if _, ok := byID[m.CandidateID]; ok {
				ordered = append(ordered, m)
			}
		}
		matches = ordered
	}

	for _, m := range matches {
		if text := strings.TrimSpace(e.Explanations[m.CandidateID]); text != "" {
			m.Explanation = text
		} else {
			m.Explanation = TemplateExplanation(m)
		}
	}

	insights := strings.TrimSpace(e.Insights)
	if insights == "" {
		insights = GenericInsights(req.Mode)
	}
	return matches, insights
}
