// Package explain turns match scores into short, ranked reason strings.
package explain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/scoring"
)

// MaxReasons caps the number of reasons attached to a match.
const MaxReasons = 4

const (
	genericPrimary   = "Matches your core preferences"
	genericSecondary = "Recommended by Roomy AI"
)

// Generator builds explanations. It is safe for concurrent use.
type Generator struct {
	thresholds scoring.Thresholds
}

// NewGenerator creates a generator using the given personality thresholds.
func NewGenerator(th scoring.Thresholds) *Generator {
	return &Generator{thresholds: th}
}

// Explain returns up to MaxReasons reasons for a match, most important first.
// Personality reasons only appear for non-basic tiers with personality enabled.
func (g *Generator) Explain(m *models.ScoredMatch, student *models.Student, tier models.PlanTier, usePersonality bool) []string {
	var reasons []string
	switch m.Type {
	case models.MatchTypeDorm:
		reasons = g.dormReasons(m, student)
	case models.MatchTypeRoom:
		reasons = g.roomReasons(m, student)
	case models.MatchTypeRoommate:
		reasons = g.roommateReasons(m, student, tier, usePersonality)
	}

	switch len(reasons) {
	case 0:
		reasons = []string{genericPrimary, genericSecondary}
	case 1:
		reasons = append(reasons, genericSecondary)
	}
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	return reasons
}

func (g *Generator) dormReasons(m *models.ScoredMatch, student *models.Student) []string {
	d := m.Dorm
	if d == nil {
		return nil
	}
	var reasons []string
	if r := budgetReason(d.Price(), student.Budget); r != "" {
		reasons = append(reasons, r)
	}
	if r := locationReason(d.University, d.Area, student); r != "" {
		reasons = append(reasons, r)
	}
	if r := genderPolicyReason(d.GenderPreference); r != "" {
		reasons = append(reasons, r)
	}
	if m.EligibleRooms > 0 {
		reasons = append(reasons, plural(m.EligibleRooms, "room")+" available for you")
	}
	if shared := overlap(student.PreferredAmenities, d.Amenities); len(shared) > 0 {
		reasons = append(reasons, "Has your preferred amenities: "+strings.Join(shared, ", "))
	}
	return reasons
}

func (g *Generator) roomReasons(m *models.ScoredMatch, student *models.Student) []string {
	r := m.Room
	if r == nil || r.Dorm == nil {
		return nil
	}
	var reasons []string
	if s := budgetReason(r.Price, student.Budget); s != "" {
		reasons = append(reasons, s)
	}
	if s := locationReason(r.Dorm.University, r.Dorm.Area, student); s != "" {
		reasons = append(reasons, s)
	}
	if s := genderPolicyReason(r.Dorm.GenderPreference); s != "" {
		reasons = append(reasons, s)
	}
	if free := r.FreeSpots(); free > 0 {
		reasons = append(reasons, fmt.Sprintf("%s room with %s left", displayType(r.Type), plural(free, "spot")))
	}
	return reasons
}

func (g *Generator) roommateReasons(m *models.ScoredMatch, student *models.Student, tier models.PlanTier, usePersonality bool) []string {
	c := m.Roommate
	if c == nil {
		return nil
	}
	var reasons []string

	if c.University != "" && strings.EqualFold(c.University, student.University) {
		reasons = append(reasons, "Also studies at "+c.University)
	}
	if c.Major != "" && strings.EqualFold(c.Major, student.Major) {
		reasons = append(reasons, "Same major: "+c.Major)
	}
	if c.YearOfStudy != nil && student.YearOfStudy != nil && *c.YearOfStudy == *student.YearOfStudy {
		reasons = append(reasons, fmt.Sprintf("Both in year %d", *c.YearOfStudy))
	}
	if m.SubScores[scoring.SubBudget] >= 80 && student.Budget > 0 && c.Budget > 0 {
		reasons = append(reasons, "Similar monthly budget")
	}
	if shared := overlap(student.FavoriteAreas, c.FavoriteAreas); len(shared) > 0 {
		reasons = append(reasons, "Both interested in "+strings.Join(shared, ", "))
	}
	switch {
	case m.PlaceName != "" && student.SeekingRoommateForCurrentPlace():
		reasons = append(reasons, "Looking for a place like yours at "+m.PlaceName)
	case m.PlaceName != "":
		reasons = append(reasons, "Has a place at "+m.PlaceName)
	case student.AccommodationStatus == models.AccommodationNeedDorm && c.AccommodationStatus == models.AccommodationNeedDorm:
		reasons = append(reasons, "Both looking for a dorm together")
	}
	if m.SpotsLeft > 0 {
		reasons = append(reasons, "Your room still has "+plural(m.SpotsLeft, "spot")+" open")
	}

	if tier == models.TierBasic {
		reasons = append(reasons, "Gender-compatible match")
		return reasons
	}
	if usePersonality && len(m.PersonalityBreakdown) > 0 {
		reasons = append(reasons, g.personalityReasons(m.PersonalityBreakdown)...)
	}
	return reasons
}

type personalityPhrase struct {
	axis   string
	strong string
	normal string
}

var personalityPhrases = []personalityPhrase{
	{scoring.AxisSleepSchedule, "Perfectly aligned sleep schedules", "Compatible sleep schedules"},
	{scoring.AxisCleanliness, "Same standards of cleanliness", "Similar cleanliness habits"},
	{scoring.AxisNoise, "Identical noise preferences", "Comfortable with similar noise levels"},
	{scoring.AxisSocialStyle, "Very similar social style", "Compatible social styles"},
	{scoring.AxisGuests, "Same approach to guests", "Similar guest habits"},
	{scoring.AxisPets, "Fully aligned on pets", "Compatible about pets"},
}

func (g *Generator) personalityReasons(breakdown map[string]float64) []string {
	var reasons []string
	for _, p := range personalityPhrases {
		v, ok := breakdown[p.axis]
		if !ok || v <= g.thresholds.PersonalityStrong {
			continue
		}
		if v > g.thresholds.PersonalityVeryStrong {
			reasons = append(reasons, p.strong)
		} else {
			reasons = append(reasons, p.normal)
		}
	}
	return reasons
}

func budgetReason(price, budget float64) string {
	if budget <= 0 || price <= 0 {
		return ""
	}
	if price <= budget {
		return fmt.Sprintf("Fits your budget at $%.0f/month", price)
	}
	return fmt.Sprintf("$%.0f above your budget", price-budget)
}

func locationReason(university, area string, student *models.Student) string {
	target := student.TargetUniversity()
	if target != "" && strings.Contains(strings.ToLower(university), strings.ToLower(target)) {
		return "Close to " + target
	}
	if scoring.AreaMatches(area, student.FavoriteAreas) {
		return "In your favorite area: " + area
	}
	return ""
}

func genderPolicyReason(policy *string) string {
	if policy == nil {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(*policy)) {
	case "male":
		return "Male-only residence"
	case "female":
		return "Female-only residence"
	case "mixed", "any":
		return "Open to all genders"
	}
	return ""
}

func overlap(wanted, offered []string) []string {
	var shared []string
	for _, w := range wanted {
		for _, o := range offered {
			if w != "" && strings.Contains(strings.ToLower(o), strings.ToLower(strings.TrimSpace(w))) {
				shared = append(shared, strings.TrimSpace(w))
				break
			}
		}
	}
	return shared
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func displayType(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return "Shared"
	}
	r, size := utf8.DecodeRuneInString(t)
	return string(unicode.ToUpper(r)) + t[size:]
}
