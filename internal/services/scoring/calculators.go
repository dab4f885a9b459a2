package scoring

import (
	"math"
	"strings"

	"roomy-ai-core/internal/models"
)

// BudgetScore rates a monthly price against the student's budget (0-100).
// Within budget the score never drops below 70; above budget it falls with
// the overage and bottoms out at 20.
func BudgetScore(price, budget float64) float64 {
	if budget <= 0 {
		return 50
	}
	percentDiff := math.Abs(budget-price) / budget
	if price <= budget {
		return math.Max(70, 100-percentDiff*30)
	}
	return math.Max(20, 50-percentDiff*100)
}

// LocationScore rewards the target university and favorite areas.
func LocationScore(candidateUniversity, candidateArea, targetUniversity string, favoriteAreas []string) float64 {
	score := 50.0
	if targetUniversity != "" && containsFold(candidateUniversity, targetUniversity) {
		score += 35
	}
	if AreaMatches(candidateArea, favoriteAreas) {
		score += 15
	}
	return math.Min(score, 100)
}

// AreaMatches reports whether the area matches any of the wanted areas.
func AreaMatches(area string, wanted []string) bool {
	if strings.TrimSpace(area) == "" {
		return false
	}
	for _, w := range wanted {
		if strings.TrimSpace(w) == "" {
			continue
		}
		if containsFold(area, w) || containsFold(w, area) {
			return true
		}
	}
	return false
}

// RoomTypeScore compares preferred room types with those the dorm offers.
func RoomTypeScore(preferred, offered []string) float64 {
	if !HasRoomTypePreference(preferred) {
		return 50
	}
	matches := 0
	for _, p := range preferred {
		for _, o := range offered {
			if containsFold(o, p) || containsFold(p, o) {
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 40
	}
	return math.Min(100, 80+10*float64(matches))
}

// HasRoomTypePreference reports whether the student picked anything other than "Any".
func HasRoomTypePreference(preferred []string) bool {
	for _, p := range preferred {
		p = strings.TrimSpace(p)
		if p != "" && !strings.EqualFold(p, "any") {
			return true
		}
	}
	return false
}

// AmenitiesScore is 40 plus 60 times the share of wanted amenities the dorm has.
func AmenitiesScore(preferred, offered []string) float64 {
	if len(preferred) == 0 {
		return 50
	}
	if len(offered) == 0 {
		return 30
	}
	found := 0
	for _, p := range preferred {
		for _, o := range offered {
			if containsFold(o, p) {
				found++
				break
			}
		}
	}
	return 40 + 60*float64(found)/float64(len(preferred))
}

// LifestyleScore compares noise and social habits plus budget closeness of two students.
func LifestyleScore(a, b *models.Student) float64 {
	score := 50.0
	if a.HabitNoise != nil && b.HabitNoise != nil {
		score += 20 * (1 - scaleDiff(*a.HabitNoise, *b.HabitNoise))
	}
	if a.HabitSocial != nil && b.HabitSocial != nil {
		score += 15 * (1 - scaleDiff(*a.HabitSocial, *b.HabitSocial))
	}
	if a.Budget > 0 && b.Budget > 0 {
		score += 15 * (1 - math.Abs(a.Budget-b.Budget)/math.Max(a.Budget, b.Budget))
	}
	return Clamp(score, 0, 100)
}

// scaleDiff normalizes a difference on the 1-5 scale to 0..1.
func scaleDiff(a, b int) float64 {
	return math.Min(math.Abs(float64(a-b))/4, 1)
}

// CleanlinessScore compares cleanliness levels on a 1-5 scale.
func CleanlinessScore(a, b *int) float64 {
	if a == nil || b == nil {
		return 50
	}
	return math.Max(30, 100-20*math.Abs(float64(*a-*b)))
}

// StudyFocusScore rewards a shared university and a close year of study.
func StudyFocusScore(a, b *models.Student) float64 {
	score := 50.0
	if a.University != "" && strings.EqualFold(strings.TrimSpace(a.University), strings.TrimSpace(b.University)) {
		score += 30
	}
	if a.YearOfStudy != nil && b.YearOfStudy != nil {
		diff := math.Min(math.Abs(float64(*a.YearOfStudy-*b.YearOfStudy)), 4)
		score += 20 * (1 - diff/4)
	}
	return Clamp(score, 0, 100)
}

// BudgetClosenessScore compares two students' budgets (0-100).
func BudgetClosenessScore(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 50
	}
	return 100 * (1 - math.Abs(a-b)/math.Max(a, b))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func containsFold(s, sub string) bool {
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), sub)
}
