package matcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/scoring"
)

// maxParallelLookups bounds concurrent per-candidate store lookups.
const maxParallelLookups = 8

// FetchDormMatches returns verified dorms with at least one suitable free
// room, scored with the dorm formula and sorted by descending score.
func (f *Fetcher) FetchDormMatches(ctx context.Context, student *models.Student, rc *models.RequestContext, excludeIDs []string, limit int) (*FetchResult, error) {
	c := newCriteria(student, rc, excludeIDs, f.weights.Thresholds.PrimaryBudgetTolerance)
	return f.fetchDorms(ctx, student, c, limit, false)
}

type dormExtras struct {
	rooms   []*models.Room
	helpful []int
}

func (f *Fetcher) fetchDorms(ctx context.Context, student *models.Student, c criteria, limit int, fallback bool) (*FetchResult, error) {
	dorms, err := f.dorms.ListDorms(ctx, c.dormQuery(student.Gender))
	if err != nil {
		return nil, fmt.Errorf("failed to list dorms: %w", err)
	}

	result := &FetchResult{}
	kept := make([]*models.Dorm, 0, len(dorms))
	for _, d := range dorms {
		// A zero monthly price is resolved from the rooms later.
		if reason := c.checkListing(d.ID, d, d.MonthlyPrice, student.Gender); reason != "" {
			result.add(scoring.Reject(d.ID, reason))
			continue
		}
		kept = append(kept, d)
	}

	extras := make([]dormExtras, len(kept))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i, d := range kept {
		i, d := i, d
		g.Go(func() error {
			rooms, err := f.dorms.ListRooms(gctx, d.ID)
			if err != nil {
				return fmt.Errorf("failed to list rooms for dorm %s: %w", d.ID, err)
			}
			extras[i].rooms = rooms
			if f.feedback == nil || fallback {
				return nil
			}
			scores, err := f.feedback.HelpfulScores(gctx, d.ID)
			if err != nil {
				f.logger.Warn("Feedback lookup failed, skipping boost",
					zap.String("dorm_id", d.ID),
					zap.Error(err),
				)
				return nil
			}
			extras[i].helpful = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, d := range kept {
		result.add(f.evaluateDorm(student, c, d, extras[i], fallback))
	}
	result.sortAndLimit(limit)

	f.logger.Debug("Dorm fetch complete",
		zap.String("student_id", student.ID),
		zap.Bool("fallback", fallback),
		zap.Int("listed", len(dorms)),
		zap.Int("accepted", len(result.Matches)),
		zap.Int("rejected", len(result.Rejections)),
	)
	return result, nil
}

func (f *Fetcher) evaluateDorm(student *models.Student, c criteria, d *models.Dorm, extra dormExtras, fallback bool) scoring.Outcome {
	eligible := make([]*models.Room, 0, len(extra.rooms))
	reason := scoring.RejectNoFreeRoom
	for _, r := range extra.rooms {
		if rr := c.checkRoom(r, student.PreferredRoomTypes); rr != "" {
			reason = rr
			continue
		}
		eligible = append(eligible, r)
	}
	if len(eligible) == 0 {
		return scoring.Reject(d.ID, reason)
	}

	dorm := *d
	dorm.Rooms = eligible
	price := dorm.Price()
	if !scoring.WithinBudget(price, c.budget, c.tolerance) {
		return scoring.Reject(d.ID, scoring.RejectOverBudget)
	}

	m := &models.ScoredMatch{
		Type:          models.MatchTypeDorm,
		CandidateID:   dorm.ID,
		Dorm:          &dorm,
		EligibleRooms: len(eligible),
		Fallback:      fallback,
	}

	if fallback {
		m.Score = f.weights.Thresholds.FallbackDormScore
		m.SubScores = fallbackSubScores(f.weights, price, c.budget)
	} else {
		m.Score, m.SubScores = f.weights.ScoreDorm(scoring.DormInput{
			Price:              price,
			Budget:             c.budget,
			University:         dorm.University,
			Area:               dorm.Area,
			TargetUniversity:   c.targetUniversity,
			FavoriteAreas:      c.favoriteAreas,
			PreferredRoomTypes: student.PreferredRoomTypes,
			OfferedRoomTypes:   offeredRoomTypes(&dorm),
			PreferredAmenities: student.PreferredAmenities,
			Amenities:          dorm.Amenities,
		})
		if boost := f.weights.FeedbackBoost(extra.helpful); boost != 0 {
			m.Score = scoring.Clamp(m.Score+boost, 0, 100)
		}
	}
	m.BudgetWarning = budgetWarning(price, c.budget)
	return scoring.Accept(m)
}

func offeredRoomTypes(d *models.Dorm) []string {
	seen := map[string]struct{}{}
	var types []string
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	for _, t := range d.RoomTypes {
		add(t)
	}
	for _, r := range d.Rooms {
		add(r.Type)
	}
	return types
}

func budgetWarning(price, budget float64) string {
	if budget <= 0 || price <= budget {
		return ""
	}
	return fmt.Sprintf("This option is $%.0f above your budget of $%.0f", price-budget, budget)
}

// fallbackSubScores are the generic sub-scores of relaxed matches.
func fallbackSubScores(w scoring.Weights, price, budget float64) map[string]float64 {
	budgetScore := 70.0
	if budget > 0 && price > budget {
		budgetScore = 50
	}
	return map[string]float64{
		scoring.SubLocation:     50,
		scoring.SubBudget:       budgetScore,
		scoring.SubRoomType:     50,
		scoring.SubAmenities:    50,
		scoring.SubAIHeuristics: w.Thresholds.AIHeuristicsScore,
	}
}
