// Package scoring implements the compatibility sub-scores, weighted formulas
// and hard safety rules used by the matcher.
package scoring

// DormWeights weights the dorm sub-scores. They sum to 1.
type DormWeights struct {
	Location     float64 `json:"location"`
	Budget       float64 `json:"budget"`
	RoomType     float64 `json:"room_type"`
	Amenities    float64 `json:"amenities"`
	AIHeuristics float64 `json:"ai_heuristics"`
}

// RoomAdjustments are the additive bonuses of the per-room score.
type RoomAdjustments struct {
	Base            float64 `json:"base"`
	MaxBudgetSwing  float64 `json:"max_budget_swing"`
	AreaMatch       float64 `json:"area_match"`
	UniversityMatch float64 `json:"university_match"`
	RoomTypeMatch   float64 `json:"room_type_match"`
}

// RoommateBasicWeights weights roommate sub-scores without personality data.
type RoommateBasicWeights struct {
	Lifestyle   float64 `json:"lifestyle"`
	Cleanliness float64 `json:"cleanliness"`
	StudyFocus  float64 `json:"study_focus"`
	Budget      float64 `json:"budget"`
}

// RoommatePersonalityWeights weights roommate sub-scores when both parties took the survey.
type RoommatePersonalityWeights struct {
	Lifestyle   float64 `json:"lifestyle"`
	Cleanliness float64 `json:"cleanliness"`
	Sleep       float64 `json:"sleep"`
	Noise       float64 `json:"noise"`
	Social      float64 `json:"social"`
	Pets        float64 `json:"pets"`
	Guests      float64 `json:"guests"`
	Budget      float64 `json:"budget"`
}

// Thresholds collects the tolerances and cut-offs used around the formulas.
type Thresholds struct {
	// Budget ceiling is budget*(1+tolerance).
	PrimaryBudgetTolerance  float64 `json:"primary_budget_tolerance"`
	FallbackBudgetTolerance float64 `json:"fallback_budget_tolerance"`

	// AIHeuristicsScore is the constant placeholder sub-score.
	AIHeuristicsScore float64 `json:"ai_heuristics_score"`

	// Final score moves by (avg helpful score - FeedbackNeutral) * FeedbackFactor.
	FeedbackNeutral float64 `json:"feedback_neutral"`
	FeedbackFactor  float64 `json:"feedback_factor"`

	// Personality reasons appear above Strong and use the stronger phrase above VeryStrong.
	PersonalityStrong     float64 `json:"personality_strong"`
	PersonalityVeryStrong float64 `json:"personality_very_strong"`

	// Scores assigned to relaxed fallback matches.
	FallbackDormScore   float64 `json:"fallback_dorm_score"`
	FallbackRoommateMin float64 `json:"fallback_roommate_min"`
	FallbackRoommateMax float64 `json:"fallback_roommate_max"`
}

// Weights is the complete scoring configuration.
type Weights struct {
	Dorm                DormWeights                `json:"dorm"`
	Room                RoomAdjustments            `json:"room"`
	RoommateBasic       RoommateBasicWeights       `json:"roommate_basic"`
	RoommatePersonality RoommatePersonalityWeights `json:"roommate_personality"`
	Thresholds          Thresholds                 `json:"thresholds"`
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		Dorm: DormWeights{
			Location:     0.30,
			Budget:       0.25,
			RoomType:     0.15,
			Amenities:    0.10,
			AIHeuristics: 0.20,
		},
		Room: RoomAdjustments{
			Base:            50,
			MaxBudgetSwing:  30,
			AreaMatch:       15,
			UniversityMatch: 15,
			RoomTypeMatch:   10,
		},
		RoommateBasic: RoommateBasicWeights{
			Lifestyle:   0.40,
			Cleanliness: 0.30,
			StudyFocus:  0.20,
			Budget:      0.10,
		},
		RoommatePersonality: RoommatePersonalityWeights{
			Lifestyle:   0.35,
			Cleanliness: 0.20,
			Sleep:       0.10,
			Noise:       0.10,
			Social:      0.10,
			Pets:        0.05,
			Guests:      0.05,
			Budget:      0.05,
		},
		Thresholds: Thresholds{
			PrimaryBudgetTolerance:  0.10,
			FallbackBudgetTolerance: 0.20,
			AIHeuristicsScore:       60,
			FeedbackNeutral:         3,
			FeedbackFactor:          5,
			PersonalityStrong:       0.75,
			PersonalityVeryStrong:   0.9,
			FallbackDormScore:       60,
			FallbackRoommateMin:     40,
			FallbackRoommateMax:     100,
		},
	}
}
