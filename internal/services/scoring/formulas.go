package scoring

import (
	"math"

	"roomy-ai-core/internal/models"
)

// Sub-score keys.
const (
	SubLocation     = "location"
	SubBudget       = "budget"
	SubRoomType     = "room_type"
	SubAmenities    = "amenities"
	SubAIHeuristics = "ai_heuristics"
	SubLifestyle    = "lifestyle"
	SubCleanliness  = "cleanliness"
	SubStudyFocus   = "study_focus"
	SubPersonality  = "personality"
)

// DormInput carries the attributes the dorm formula needs.
type DormInput struct {
	Price              float64
	Budget             float64
	University         string
	Area               string
	TargetUniversity   string
	FavoriteAreas      []string
	PreferredRoomTypes []string
	OfferedRoomTypes   []string
	PreferredAmenities []string
	Amenities          []string
}

// ScoreDorm computes the dorm sub-scores and their weighted total.
func (w Weights) ScoreDorm(in DormInput) (float64, map[string]float64) {
	sub := map[string]float64{
		SubLocation:     LocationScore(in.University, in.Area, in.TargetUniversity, in.FavoriteAreas),
		SubBudget:       BudgetScore(in.Price, in.Budget),
		SubRoomType:     RoomTypeScore(in.PreferredRoomTypes, in.OfferedRoomTypes),
		SubAmenities:    AmenitiesScore(in.PreferredAmenities, in.Amenities),
		SubAIHeuristics: w.Thresholds.AIHeuristicsScore,
	}
	d := w.Dorm
	total := sub[SubLocation]*d.Location +
		sub[SubBudget]*d.Budget +
		sub[SubRoomType]*d.RoomType +
		sub[SubAmenities]*d.Amenities +
		sub[SubAIHeuristics]*d.AIHeuristics
	return Clamp(total, 0, 100), sub
}

// RoomInput carries the attributes the per-room score needs.
type RoomInput struct {
	Price              float64
	Budget             float64
	RoomType           string
	DormArea           string
	DormUniversity     string
	TargetUniversity   string
	FavoriteAreas      []string
	PreferredRoomTypes []string
}

// ScoreRoom computes the additive per-room score starting from the base.
func (w Weights) ScoreRoom(in RoomInput) (float64, map[string]float64) {
	r := w.Room
	score := r.Base

	if in.Budget > 0 {
		percentDiff := math.Abs(in.Budget-in.Price) / in.Budget
		if in.Price <= in.Budget {
			score += r.MaxBudgetSwing * (1 - 0.5*math.Min(percentDiff, 1))
		} else {
			score -= math.Min(r.MaxBudgetSwing, percentDiff*r.MaxBudgetSwing*5)
		}
	}
	if AreaMatches(in.DormArea, in.FavoriteAreas) {
		score += r.AreaMatch
	}
	if in.TargetUniversity != "" && containsFold(in.DormUniversity, in.TargetUniversity) {
		score += r.UniversityMatch
	}
	if HasRoomTypePreference(in.PreferredRoomTypes) && RoomTypeScore(in.PreferredRoomTypes, []string{in.RoomType}) > 50 {
		score += r.RoomTypeMatch
	}

	sub := map[string]float64{
		SubBudget:   BudgetScore(in.Price, in.Budget),
		SubLocation: LocationScore(in.DormUniversity, in.DormArea, in.TargetUniversity, in.FavoriteAreas),
		SubRoomType: RoomTypeScore(in.PreferredRoomTypes, []string{in.RoomType}),
	}
	return Clamp(score, 0, 100), sub
}

// RoommateSubScores computes the sub-scores that never need the survey.
func RoommateSubScores(student, candidate *models.Student) map[string]float64 {
	return map[string]float64{
		SubLifestyle:   LifestyleScore(student, candidate),
		SubCleanliness: CleanlinessScore(student.CleanlinessLevel, candidate.CleanlinessLevel),
		SubStudyFocus:  StudyFocusScore(student, candidate),
		SubBudget:      BudgetClosenessScore(student.Budget, candidate.Budget),
	}
}

// RoommateBasicScore is the weighted roommate score without personality data.
func (w Weights) RoommateBasicScore(sub map[string]float64) float64 {
	b := w.RoommateBasic
	total := sub[SubLifestyle]*b.Lifestyle +
		sub[SubCleanliness]*b.Cleanliness +
		sub[SubStudyFocus]*b.StudyFocus +
		sub[SubBudget]*b.Budget
	return Clamp(total, 0, 100)
}

// RoommatePersonalityScore is the weighted roommate score when both parties
// completed the survey. Breakdown values are 0-1 and are scaled to 0-100.
func (w Weights) RoommatePersonalityScore(sub, breakdown map[string]float64) float64 {
	p := w.RoommatePersonality
	total := sub[SubLifestyle]*p.Lifestyle +
		sub[SubCleanliness]*p.Cleanliness +
		100*breakdown[AxisSleepSchedule]*p.Sleep +
		100*breakdown[AxisNoise]*p.Noise +
		100*breakdown[AxisSocialStyle]*p.Social +
		100*breakdown[AxisPets]*p.Pets +
		100*breakdown[AxisGuests]*p.Guests +
		sub[SubBudget]*p.Budget
	return Clamp(total, 0, 100)
}

// FeedbackBoost converts historical helpful scores into a score adjustment.
func (w Weights) FeedbackBoost(helpfulScores []int) float64 {
	if len(helpfulScores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range helpfulScores {
		sum += s
	}
	avg := float64(sum) / float64(len(helpfulScores))
	return (avg - w.Thresholds.FeedbackNeutral) * w.Thresholds.FeedbackFactor
}

// WithinBudget reports whether price fits under budget*(1+tolerance).
// A missing budget admits every price.
func WithinBudget(price, budget, tolerance float64) bool {
	if budget <= 0 {
		return true
	}
	return price <= budget*(1+tolerance)
}
