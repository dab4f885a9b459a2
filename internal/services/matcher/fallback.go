package matcher

import (
	"context"

	"roomy-ai-core/internal/models"
)

// Fallback descriptor types.
const (
	FallbackDormNoMatch     = "dorm_no_match"
	FallbackRoomNoMatch     = "room_no_match"
	FallbackRoommateNoMatch = "roommate_no_match"
	FallbackCombinedNoMatch = "combined_no_match"
	FallbackNoMatches       = "no_matches"
)

// Relaxed filter names reported in fallback descriptors.
const (
	relaxedBudget     = "budget"
	relaxedArea       = "area"
	relaxedRoomType   = "room_type"
	relaxedUniversity = "university"
)

// FallbackDormMatches re-runs the dorm search with a wider budget ceiling and
// no area or room-type filters. Gender, capacity and university filters stay.
// Results carry the fixed fallback score.
func (f *Fetcher) FallbackDormMatches(ctx context.Context, student *models.Student, rc *models.RequestContext, excludeIDs []string, limit int) (*FetchResult, error) {
	th := f.weights.Thresholds
	c := newCriteria(student, rc, excludeIDs, th.PrimaryBudgetTolerance).relaxed(th.FallbackBudgetTolerance)
	return f.fetchDorms(ctx, student, c, limit, true)
}

// FallbackRoomMatches is the relaxed variant of FetchRoomMatches.
func (f *Fetcher) FallbackRoomMatches(ctx context.Context, student *models.Student, rc *models.RequestContext, excludeIDs []string, limit int) (*FetchResult, error) {
	th := f.weights.Thresholds
	c := newCriteria(student, rc, excludeIDs, th.PrimaryBudgetTolerance).relaxed(th.FallbackBudgetTolerance)
	return f.fetchRooms(ctx, student, c, limit, true)
}

// FallbackRoommateMatches re-runs the roommate search without the university
// and area filters. Gender, dealbreakers and the seeking requirement stay.
func (f *Fetcher) FallbackRoommateMatches(ctx context.Context, student *models.Student, limit int, excludeIDs []string) (*FetchResult, error) {
	return f.fetchRoommates(ctx, student, roommateSearch{
		fallback: true,
		exclude:  toSet(excludeIDs),
	}, limit)
}

// RelaxedFallback describes a fallback that produced matches.
func RelaxedFallback(mode models.Mode) *models.Fallback {
	switch mode {
	case models.ModeRoommate:
		return &models.Fallback{
			Type:           FallbackRoommateNoMatch,
			Message:        "No exact roommate matches found. Showing students with broader university and area preferences.",
			FiltersRelaxed: []string{relaxedUniversity, relaxedArea},
		}
	case models.ModeRooms:
		return &models.Fallback{
			Type:           FallbackRoomNoMatch,
			Message:        "No exact room matches found. Showing similar rooms with a wider budget and any area or room type.",
			FiltersRelaxed: []string{relaxedBudget, relaxedArea, relaxedRoomType},
		}
	case models.ModeCombined:
		return &models.Fallback{
			Type:           FallbackCombinedNoMatch,
			Message:        "No exact matches found. Showing similar dorms and roommates with relaxed filters.",
			FiltersRelaxed: []string{relaxedBudget, relaxedArea, relaxedRoomType, relaxedUniversity},
		}
	default:
		return &models.Fallback{
			Type:           FallbackDormNoMatch,
			Message:        "No exact dorm matches found. Showing similar dorms with a wider budget and any area or room type.",
			FiltersRelaxed: []string{relaxedBudget, relaxedArea, relaxedRoomType},
		}
	}
}

// NoMatchesFallback describes a request where even the relaxed search was empty.
func NoMatchesFallback(mode models.Mode, student *models.Student) *models.Fallback {
	var suggestions []string
	if mode != models.ModeRoommate {
		suggestions = append(suggestions,
			"Increase your monthly budget",
			"Add more preferred areas to your profile",
			"Set your preferred room type to Any",
		)
	}
	if mode == models.ModeRoommate || mode == models.ModeCombined {
		if !student.PersonalityTestCompleted {
			suggestions = append(suggestions, "Complete the personality test to improve roommate matching")
		}
		if !student.NeedsRoommate() {
			suggestions = append(suggestions, "Turn on roommate search in your profile")
		}
	}
	suggestions = append(suggestions, "Check back soon, new listings and students join every week")
	return &models.Fallback{
		Type:        FallbackNoMatches,
		Message:     "We couldn't find any matches right now, even with relaxed filters.",
		Suggestions: suggestions,
	}
}
