package scoring

import (
	"strings"

	"roomy-ai-core/internal/models"
)

// RejectReason names why a candidate was dropped.
type RejectReason string

const (
	RejectExcluded           RejectReason = "excluded"
	RejectNotListed          RejectReason = "not_listed"
	RejectGender             RejectReason = "gender"
	RejectDormGenderPolicy   RejectReason = "dorm_gender_policy"
	RejectDealbreakerSmoking RejectReason = "dealbreaker_smoking"
	RejectDealbreakerDrink   RejectReason = "dealbreaker_drinking"
	RejectOverBudget         RejectReason = "over_budget"
	RejectArea               RejectReason = "area"
	RejectUniversity         RejectReason = "university"
	RejectNoFreeRoom         RejectReason = "no_free_room"
	RejectSingleRoom         RejectReason = "single_room"
	RejectRoomType           RejectReason = "room_type"
	RejectNotSeeking         RejectReason = "not_seeking_roommate"
	RejectSelf               RejectReason = "self"
)

// Rejection records a hard reject of one candidate.
type Rejection struct {
	CandidateID string       `json:"candidate_id"`
	Reason      RejectReason `json:"reason"`
}

// Outcome is the result of evaluating one candidate: either an accepted
// match or a rejection, never both.
type Outcome struct {
	Match     *models.ScoredMatch
	Rejection *Rejection
}

// Accept wraps an accepted match.
func Accept(m *models.ScoredMatch) Outcome {
	return Outcome{Match: m}
}

// Reject wraps a rejection.
func Reject(candidateID string, reason RejectReason) Outcome {
	return Outcome{Rejection: &Rejection{CandidateID: candidateID, Reason: reason}}
}

// Accepted reports whether the outcome carries a match.
func (o Outcome) Accepted() bool {
	return o.Match != nil
}

// GenderAllowedInDorm reports whether a student of the given gender may live
// in a dorm with the given gender policy. Unset, "mixed" and "any" admit everyone.
func GenderAllowedInDorm(studentGender string, policy *string) bool {
	if policy == nil {
		return true
	}
	p := strings.ToLower(strings.TrimSpace(*policy))
	switch p {
	case "", "mixed", "any":
		return true
	}
	g := strings.ToLower(strings.TrimSpace(studentGender))
	return g != "" && g == p
}

// GendersMatch reports whether two students have the same gender, ignoring case.
func GendersMatch(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// CheckDealbreakers applies the student's explicit dealbreakers to a candidate.
// It returns the reject reason, or "" when the candidate passes.
func CheckDealbreakers(student, candidate *models.Student) RejectReason {
	if student.HasDealbreaker(models.DealbreakerSmoking) && isYes(candidate.Personality.Smoking) {
		return RejectDealbreakerSmoking
	}
	if student.HasDealbreaker(models.DealbreakerDrinking) && isYes(candidate.Personality.Drinking) {
		return RejectDealbreakerDrink
	}
	return ""
}

func isYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}
