package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/scoring"
)

// roommateSearch is the effective roommate search for one request.
type roommateSearch struct {
	usePersonality bool
	fallback       bool
	exclude        map[string]struct{}

	// Set in the join-my-place branch.
	place     *models.Dorm
	spotsLeft int
}

// FetchRoommateMatches returns compatible students of the same gender,
// truncated to limit. A student with a confirmed room that still has free
// spots is matched with students who need a dorm; everyone else is matched
// with other students seeking a roommate.
func (f *Fetcher) FetchRoommateMatches(ctx context.Context, student *models.Student, usePersonality bool, limit int, excludeIDs []string) (*FetchResult, error) {
	return f.fetchRoommates(ctx, student, roommateSearch{
		usePersonality: usePersonality,
		exclude:        toSet(excludeIDs),
	}, limit)
}

func (f *Fetcher) fetchRoommates(ctx context.Context, student *models.Student, s roommateSearch, limit int) (*FetchResult, error) {
	result := &FetchResult{}
	joinMyPlace := student.SeekingRoommateForCurrentPlace()

	if joinMyPlace {
		room, err := f.dorms.GetRoom(ctx, student.CurrentRoomID)
		if err != nil {
			return nil, fmt.Errorf("failed to load current room: %w", err)
		}
		if room == nil || !room.HasFreeSpot() {
			f.logger.Info("Current room has no free spot, no roommate candidates",
				zap.String("student_id", student.ID),
				zap.String("room_id", student.CurrentRoomID),
			)
			return result, nil
		}
		dormID := room.DormID
		if dormID == "" {
			dormID = student.CurrentDormID
		}
		dorm, err := f.dorms.GetDorm(ctx, dormID)
		if err != nil {
			return nil, fmt.Errorf("failed to load current dorm: %w", err)
		}
		if dorm != nil && !scoring.GenderAllowedInDorm(student.Gender, dorm.GenderPreference) {
			f.logger.Warn("Student gender conflicts with their dorm policy",
				zap.String("student_id", student.ID),
				zap.String("dorm_id", dorm.ID),
			)
			return result, nil
		}
		s.place = dorm
		s.spotsLeft = room.FreeSpots()
	}

	candidates, err := f.students.ListRoommateCandidates(ctx, models.RoommateQuery{
		ExcludeStudentID: student.ID,
		ExcludeIDs:       setToList(s.exclude),
		Gender:           student.Gender,
		NeedsDorm:        joinMyPlace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list roommate candidates: %w", err)
	}

	for _, cand := range candidates {
		result.add(f.evaluateRoommate(student, cand, s, joinMyPlace))
	}

	result.sortAndLimit(limit)
	if err := f.attachPlaceNames(ctx, result.Matches, s); err != nil {
		return nil, err
	}

	f.logger.Debug("Roommate fetch complete",
		zap.String("student_id", student.ID),
		zap.Bool("join_my_place", joinMyPlace),
		zap.Bool("fallback", s.fallback),
		zap.Int("candidates", len(candidates)),
		zap.Int("accepted", len(result.Matches)),
		zap.Int("rejected", len(result.Rejections)),
	)
	return result, nil
}

func (f *Fetcher) evaluateRoommate(student, cand *models.Student, s roommateSearch, joinMyPlace bool) scoring.Outcome {
	if cand.ID == student.ID || (cand.UserID != "" && cand.UserID == student.UserID) {
		return scoring.Reject(cand.ID, scoring.RejectSelf)
	}
	if _, ok := s.exclude[cand.ID]; ok {
		return scoring.Reject(cand.ID, scoring.RejectExcluded)
	}
	if !scoring.GendersMatch(student.Gender, cand.Gender) {
		return scoring.Reject(cand.ID, scoring.RejectGender)
	}

	if joinMyPlace {
		if !cand.NeedsDorm && cand.AccommodationStatus != models.AccommodationNeedDorm {
			return scoring.Reject(cand.ID, scoring.RejectNotSeeking)
		}
		if s.place != nil && !scoring.GenderAllowedInDorm(cand.Gender, s.place.GenderPreference) {
			return scoring.Reject(cand.ID, scoring.RejectDormGenderPolicy)
		}
	} else {
		if !cand.SeekingRoommate() {
			return scoring.Reject(cand.ID, scoring.RejectNotSeeking)
		}
		if !s.fallback {
			if u := student.University; u != "" && !strings.EqualFold(strings.TrimSpace(u), strings.TrimSpace(cand.University)) {
				return scoring.Reject(cand.ID, scoring.RejectUniversity)
			}
			if len(student.FavoriteAreas) > 0 && len(cand.FavoriteAreas) > 0 && !areasOverlap(student.FavoriteAreas, cand.FavoriteAreas) {
				return scoring.Reject(cand.ID, scoring.RejectArea)
			}
		}
	}

	if reason := scoring.CheckDealbreakers(student, cand); reason != "" {
		return scoring.Reject(cand.ID, reason)
	}

	view := cand.ToRoommateView()
	m := &models.ScoredMatch{
		Type:        models.MatchTypeRoommate,
		CandidateID: cand.ID,
		Roommate:    &view,
		SubScores:   scoring.RoommateSubScores(student, cand),
		Fallback:    s.fallback,
	}
	if s.place != nil {
		m.PlaceName = s.place.Name
		m.SpotsLeft = s.spotsLeft
	}

	basic := f.weights.RoommateBasicScore(m.SubScores)
	switch {
	case s.fallback:
		th := f.weights.Thresholds
		m.Score = scoring.Clamp(basic, th.FallbackRoommateMin, th.FallbackRoommateMax)
	case s.usePersonality && student.PersonalityTestCompleted && cand.PersonalityTestCompleted:
		m.PersonalityBreakdown = scoring.PersonalityBreakdown(student.Personality, cand.Personality)
		m.Score = f.weights.RoommatePersonalityScore(m.SubScores, m.PersonalityBreakdown)
		avg := scoring.PersonalityAverage(m.PersonalityBreakdown)
		m.PersonalityScore = &avg
		m.SubScores[scoring.SubPersonality] = avg
	default:
		m.Score = basic
	}
	return scoring.Accept(m)
}

// attachPlaceNames resolves the dorm names of candidates who already have a place.
func (f *Fetcher) attachPlaceNames(ctx context.Context, matches []*models.ScoredMatch, s roommateSearch) error {
	if s.place != nil {
		return nil
	}
	byDorm := map[string][]*models.ScoredMatch{}
	for _, m := range matches {
		if id := m.Roommate.CurrentDormID; id != "" {
			byDorm[id] = append(byDorm[id], m)
		}
	}
	if len(byDorm) == 0 {
		return nil
	}

	ids := make([]string, 0, len(byDorm))
	for id := range byDorm {
		ids = append(ids, id)
	}
	names := make([]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			d, err := f.dorms.GetDorm(gctx, id)
			if err != nil {
				return fmt.Errorf("failed to load dorm %s: %w", id, err)
			}
			if d != nil {
				names[i] = d.Name
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, id := range ids {
		for _, m := range byDorm[id] {
			m.PlaceName = names[i]
		}
	}
	return nil
}

func areasOverlap(a, b []string) bool {
	for _, x := range a {
		if scoring.AreaMatches(x, b) {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setToList(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
