package scoring

import (
	"strings"

	"roomy-ai-core/internal/models"
)

// Personality axis keys used in breakdown maps.
const (
	AxisSleepSchedule    = "sleep_schedule"
	AxisCleanliness      = "cleanliness"
	AxisNoise            = "noise"
	AxisSocialStyle      = "social_style"
	AxisSmoking          = "smoking"
	AxisCooking          = "cooking"
	AxisStudyTime        = "study_time"
	AxisSleepSensitivity = "sleep_sensitivity"
	AxisGuests           = "guests"
	AxisPets             = "pets"
)

// ordinalAxis maps categorical answers onto an ordered scale and scores
// pairs by how many steps apart they are.
type ordinalAxis struct {
	order []string
	// byDistance[d] is the score for answers d steps apart; the last entry
	// covers every larger distance.
	byDistance []float64
}

var (
	sleepScheduleAxis = ordinalAxis{
		order:      []string{"early", "regular", "late"},
		byDistance: []float64{1.0, 0.6, 0.2},
	}
	cleanlinessAxis = ordinalAxis{
		order:      []string{"very_clean", "clean", "moderate", "relaxed"},
		byDistance: []float64{1.0, 0.7, 0.4, 0.1},
	}
	noiseAxis = ordinalAxis{
		order:      []string{"very_quiet", "quiet", "moderate", "lively"},
		byDistance: []float64{1.0, 0.7, 0.4, 0.2},
	}
	socialAxis = ordinalAxis{
		order:      []string{"introvert", "ambivert", "extrovert"},
		byDistance: []float64{1.0, 0.7, 0.3},
	}
	cookingAxis = ordinalAxis{
		order:      []string{"never", "rarely", "sometimes", "often", "daily"},
		byDistance: []float64{1.0, 0.8, 0.5, 0.3},
	}
	studyTimeAxis = ordinalAxis{
		order:      []string{"morning", "afternoon", "evening", "night"},
		byDistance: []float64{1.0, 0.7, 0.4, 0.2},
	}
	sleepSensitivityAxis = ordinalAxis{
		order:      []string{"light", "medium", "heavy"},
		byDistance: []float64{1.0, 0.6, 0.3},
	}
	guestsAxis = ordinalAxis{
		order:      []string{"rarely", "sometimes", "often"},
		byDistance: []float64{1.0, 0.6, 0.2},
	}
)

// neutral is returned when either side did not answer.
const neutral = 0.5

func (a ordinalAxis) score(x, y string) float64 {
	i, j := a.position(x), a.position(y)
	if i < 0 || j < 0 {
		return neutral
	}
	d := i - j
	if d < 0 {
		d = -d
	}
	if d >= len(a.byDistance) {
		d = len(a.byDistance) - 1
	}
	return a.byDistance[d]
}

func (a ordinalAxis) position(v string) int {
	v = normalizeAnswer(v)
	for i, o := range a.order {
		if o == v {
			return i
		}
	}
	return -1
}

func normalizeAnswer(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.ReplaceAll(v, " ", "_")
	return strings.ReplaceAll(v, "-", "_")
}

// SleepScheduleCompatibility scores early/regular/late sleepers (0-1).
func SleepScheduleCompatibility(a, b string) float64 { return sleepScheduleAxis.score(a, b) }

// CleanlinessCompatibility scores cleanliness answers (0-1).
func CleanlinessCompatibility(a, b string) float64 { return cleanlinessAxis.score(a, b) }

// NoiseCompatibility compares both parties' noise tolerance (0-1).
func NoiseCompatibility(a, b string) float64 { return noiseAxis.score(a, b) }

// SocialStyleCompatibility compares intro/extroversion (0-1).
func SocialStyleCompatibility(a, b string) float64 { return socialAxis.score(a, b) }

// CookingCompatibility compares cooking frequency (0-1).
func CookingCompatibility(a, b string) float64 { return cookingAxis.score(a, b) }

// StudyTimeCompatibility compares preferred study times (0-1).
func StudyTimeCompatibility(a, b string) float64 { return studyTimeAxis.score(a, b) }

// SleepSensitivityCompatibility compares how lightly both parties sleep (0-1).
func SleepSensitivityCompatibility(a, b string) float64 { return sleepSensitivityAxis.score(a, b) }

// GuestsCompatibility compares how often both parties host guests (0-1).
func GuestsCompatibility(a, b string) float64 { return guestsAxis.score(a, b) }

// SmokingCompatibility is 1 only when neither party smokes. This is a soft
// signal; the hard reject lives in CheckDealbreakers.
func SmokingCompatibility(a, b string) float64 {
	if isNo(a) && isNo(b) {
		return 1
	}
	return 0
}

// PetsCompatibility is 0 when one party is allergic and the other has pets.
func PetsCompatibility(a, b string) float64 {
	a, b = normalizeAnswer(a), normalizeAnswer(b)
	if a == "" || b == "" {
		return neutral
	}
	if (a == "allergic" && b == "has_pets") || (a == "has_pets" && b == "allergic") {
		return 0
	}
	if a == b {
		return 1
	}
	return 0.6
}

func isNo(v string) bool {
	switch normalizeAnswer(v) {
	case "no", "never", "non_smoker":
		return true
	}
	return false
}

// PersonalityBreakdown scores every personality axis for a pair of students.
func PersonalityBreakdown(a, b models.Personality) map[string]float64 {
	return map[string]float64{
		AxisSleepSchedule:    SleepScheduleCompatibility(a.SleepSchedule, b.SleepSchedule),
		AxisCleanliness:      CleanlinessCompatibility(a.Cleanliness, b.Cleanliness),
		AxisNoise:            NoiseCompatibility(a.NoiseTolerance, b.NoiseTolerance),
		AxisSocialStyle:      SocialStyleCompatibility(a.SocialStyle, b.SocialStyle),
		AxisSmoking:          SmokingCompatibility(a.Smoking, b.Smoking),
		AxisCooking:          CookingCompatibility(a.CookingFrequency, b.CookingFrequency),
		AxisStudyTime:        StudyTimeCompatibility(a.StudyTime, b.StudyTime),
		AxisSleepSensitivity: SleepSensitivityCompatibility(a.SleepSensitivity, b.SleepSensitivity),
		AxisGuests:           GuestsCompatibility(a.Guests, b.Guests),
		AxisPets:             PetsCompatibility(a.Pets, b.Pets),
	}
}

// PersonalityAverage is the mean over all axes of a breakdown (0-100).
func PersonalityAverage(breakdown map[string]float64) float64 {
	if len(breakdown) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range breakdown {
		sum += v
	}
	return 100 * sum / float64(len(breakdown))
}
