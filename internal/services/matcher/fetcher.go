package matcher

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/scoring"
	"roomy-ai-core/internal/utils"
)

// Fetcher produces scored candidate lists for a student.
type Fetcher struct {
	dorms    DormStore
	students StudentStore
	feedback FeedbackStore
	weights  scoring.Weights
	logger   *zap.Logger
}

// NewFetcher creates a new candidate fetcher. feedback may be nil, which disables the boost.
func NewFetcher(dorms DormStore, students StudentStore, feedback FeedbackStore, weights scoring.Weights) *Fetcher {
	return &Fetcher{
		dorms:    dorms,
		students: students,
		feedback: feedback,
		weights:  weights,
		logger:   utils.GetLogger().Named("fetcher"),
	}
}

// FetchResult holds the accepted matches and every hard reject.
type FetchResult struct {
	Matches    []*models.ScoredMatch
	Rejections []scoring.Rejection
}

func (r *FetchResult) add(o scoring.Outcome) {
	if o.Accepted() {
		r.Matches = append(r.Matches, o.Match)
		return
	}
	if o.Rejection != nil {
		r.Rejections = append(r.Rejections, *o.Rejection)
	}
}

// RejectionCounts tallies rejections by reason.
func (r *FetchResult) RejectionCounts() map[string]int {
	counts := map[string]int{}
	for _, rej := range r.Rejections {
		counts[string(rej.Reason)]++
	}
	return counts
}

// sortAndLimit orders matches by descending score with the candidate id as tie-breaker.
func (r *FetchResult) sortAndLimit(limit int) {
	sort.SliceStable(r.Matches, func(i, j int) bool {
		if r.Matches[i].Score != r.Matches[j].Score {
			return r.Matches[i].Score > r.Matches[j].Score
		}
		return r.Matches[i].CandidateID < r.Matches[j].CandidateID
	})
	if limit > 0 && len(r.Matches) > limit {
		r.Matches = r.Matches[:limit]
	}
}

// criteria is the effective search for one request after applying overrides.
type criteria struct {
	budget           float64
	tolerance        float64
	targetUniversity string
	favoriteAreas    []string
	// Hard filters; empty means unfiltered.
	filterAreas      []string
	filterUniversity string
	filterRoomTypes  bool
	excludeSingles   bool
	exclude          map[string]struct{}
}

func newCriteria(student *models.Student, rc *models.RequestContext, excludeIDs []string, tolerance float64) criteria {
	c := criteria{
		budget:           student.Budget,
		tolerance:        tolerance,
		targetUniversity: student.TargetUniversity(),
		favoriteAreas:    student.FavoriteAreas,
		filterRoomTypes:  scoring.HasRoomTypePreference(student.PreferredRoomTypes),
		excludeSingles:   !scoring.HasRoomTypePreference(student.PreferredRoomTypes) && student.NeedsRoommate(),
		exclude:          toSet(excludeIDs),
	}
	if rc != nil {
		if rc.Budget != nil && *rc.Budget > 0 {
			c.budget = *rc.Budget
		}
		if len(rc.Area) > 0 {
			c.filterAreas = rc.Area
			c.favoriteAreas = rc.Area
		}
		if u := strings.TrimSpace(rc.University); u != "" {
			c.filterUniversity = u
			c.targetUniversity = u
		}
	}
	return c
}

// withRequestContext returns the student as the dorm and room fetchers see
// them: budget, favorite areas and target university replaced by the request
// overrides.
func withRequestContext(student *models.Student, rc *models.RequestContext) *models.Student {
	if rc == nil {
		return student
	}
	c := newCriteria(student, rc, nil, 0)
	effective := *student
	effective.Budget = c.budget
	effective.FavoriteAreas = c.favoriteAreas
	effective.PreferredUniversity = c.targetUniversity
	return &effective
}

// relaxed drops area and room-type filters and widens the budget ceiling.
// University and gender filters stay.
func (c criteria) relaxed(tolerance float64) criteria {
	c.tolerance = tolerance
	c.filterAreas = nil
	c.filterRoomTypes = false
	return c
}

func (c criteria) excluded(ids ...string) bool {
	for _, id := range ids {
		if _, ok := c.exclude[id]; ok {
			return true
		}
	}
	return false
}

func (c criteria) excludeList() []string {
	return setToList(c.exclude)
}

func (c criteria) dormQuery(gender string) models.DormQuery {
	q := models.DormQuery{
		Areas:      c.filterAreas,
		University: c.filterUniversity,
		Gender:     gender,
		ExcludeIDs: c.excludeList(),
	}
	if c.budget > 0 {
		q.MaxPrice = c.budget * (1 + c.tolerance)
	}
	return q
}

// checkListing applies the listing-level hard filters shared by dorms and rooms.
func (c criteria) checkListing(id string, d *models.Dorm, price float64, gender string) scoring.RejectReason {
	switch {
	case c.excluded(id, d.ID):
		return scoring.RejectExcluded
	case !d.IsListed():
		return scoring.RejectNotListed
	case !scoring.GenderAllowedInDorm(gender, d.GenderPreference):
		return scoring.RejectGender
	case !scoring.WithinBudget(price, c.budget, c.tolerance):
		return scoring.RejectOverBudget
	case len(c.filterAreas) > 0 && !scoring.AreaMatches(d.Area, c.filterAreas):
		return scoring.RejectArea
	case c.filterUniversity != "" && !strings.Contains(strings.ToLower(d.University), strings.ToLower(c.filterUniversity)):
		return scoring.RejectUniversity
	}
	return ""
}

// checkRoom applies capacity and room-type rules to a single room.
func (c criteria) checkRoom(r *models.Room, preferred []string) scoring.RejectReason {
	if !r.HasFreeSpot() {
		return scoring.RejectNoFreeRoom
	}
	if c.excludeSingles && r.IsSingle() {
		return scoring.RejectSingleRoom
	}
	if c.filterRoomTypes && scoring.RoomTypeScore(preferred, []string{r.Type}) <= 50 {
		return scoring.RejectRoomType
	}
	return ""
}
