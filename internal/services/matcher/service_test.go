package matcher

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/llm"
)

const goodToken = "good-token"

type serviceFixture struct {
	store   *memStore
	limiter *stubLimiter
	sink    *recordingSink
	svc     *Service
}

func newServiceFixture(store *memStore, enricher llm.Enricher) *serviceFixture {
	fx := &serviceFixture{
		store:   store,
		limiter: &stubLimiter{},
		sink:    &recordingSink{},
	}
	fx.svc = NewService(Deps{
		Students: store,
		Dorms:    store,
		Plans:    store,
		Feedback: store,
		Auth:     tokenAuth{goodToken: "u-1", "orphan-token": "u-404"},
		Limiter:  fx.limiter,
		Enricher: enricher,
		Sinks:    []LogSink{fx.sink},
	}, Options{})
	return fx
}

// campusStore combines the dorm fixtures with the roommate candidates.
func campusStore() (*models.Student, *memStore) {
	student := roommateSeeker()
	store := roommateStore(student)
	b := beirutStore()
	store.dorms, store.rooms = b.dorms, b.rooms
	return student, store
}

func (fx *serviceFixture) match(t *testing.T, body string) *models.MatchResponse {
	t.Helper()
	out, err := fx.svc.Handle(context.Background(), Call{Token: goodToken, ClientIP: "10.0.0.1", Body: []byte(body)})
	require.NoError(t, err)
	resp, ok := out.(*models.MatchResponse)
	require.True(t, ok, "unexpected response type %T", out)
	return resp
}

func TestHandle_AuthErrors(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	tests := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"missing token", "", http.StatusUnauthorized, "Authentication required"},
		{"invalid token", "forged", http.StatusUnauthorized, "Invalid authentication"},
		{"no student profile", "orphan-token", http.StatusNotFound, "Student profile not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Handle(context.Background(), Call{Token: tt.token, Body: []byte(`{"mode":"dorm"}`)})
			require.Error(t, err)
			assert.Equal(t, tt.status, models.StatusFor(err))
			assert.Equal(t, tt.message, models.PublicMessage(err))
		})
	}
}

func TestHandle_RateLimited(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)
	fx.limiter.limited = true

	_, err := fx.svc.Handle(context.Background(), Call{Token: goodToken, ClientIP: "10.0.0.1", Body: []byte(`{"mode":"dorm"}`)})

	assert.Equal(t, http.StatusTooManyRequests, models.StatusFor(err))
	assert.Equal(t, []string{"10.0.0.1"}, fx.limiter.keys)
	assert.Empty(t, fx.sink.entries)
}

func TestHandle_RateLimitKeyFallsBackToUser(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	_, err := fx.svc.Handle(context.Background(), Call{Token: goodToken, Body: []byte(`{"mode":"dorm"}`)})
	require.NoError(t, err)

	assert.Equal(t, []string{"user:u-1"}, fx.limiter.keys)
}

func TestHandle_LimiterErrorFailsOpen(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)
	fx.limiter.err = errors.New("redis: connection refused")

	resp := fx.match(t, `{"mode":"dorm"}`)

	assert.NotEmpty(t, resp.Matches)
}

func TestHandle_BadRequests(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	for _, body := range []string{`{"mode":`, `{"mode":"penthouse"}`, `{"action":"delete_everything"}`} {
		_, err := fx.svc.Handle(context.Background(), Call{Token: goodToken, Body: []byte(body)})
		assert.Equal(t, http.StatusBadRequest, models.StatusFor(err), body)
	}

	require.Len(t, fx.sink.entries, 1)
	assert.Contains(t, fx.sink.entries[0].Error, "invalid mode")
}

func TestHandle_MalformedBodyAuthenticatesFirst(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "forged", http.StatusUnauthorized},
		{"valid token", goodToken, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Handle(context.Background(), Call{Token: tt.token, Body: []byte(`{"mode":`)})
			assert.Equal(t, tt.status, models.StatusFor(err))
		})
	}
	assert.Empty(t, fx.limiter.keys)
}

func TestMatch_ContextBudgetDrivesExplanations(t *testing.T) {
	student, store := campusStore()
	student.Budget = 300
	fx := newServiceFixture(store, nil)

	resp := fx.match(t, `{"mode":"dorm","context":{"budget":700}}`)

	require.Len(t, resp.Matches, 1)
	m := resp.Matches[0]
	assert.Equal(t, "d1", m.CandidateID)
	assert.Empty(t, m.BudgetWarning)
	require.NotEmpty(t, m.Explanations)
	assert.Equal(t, "Fits your budget at $650/month", m.Explanations[0])
	for _, r := range m.Explanations {
		assert.NotContains(t, r, "above your budget")
	}
}

func TestMatch_RoomsContextBudgetDrivesExplanations(t *testing.T) {
	student, store := campusStore()
	student.Budget = 300
	fx := newServiceFixture(store, nil)

	resp := fx.match(t, `{"mode":"rooms","context":{"budget":700}}`)

	require.NotEmpty(t, resp.Matches)
	for _, m := range resp.Matches {
		assert.Empty(t, m.BudgetWarning, m.CandidateID)
		for _, r := range m.Explanations {
			assert.NotContains(t, r, "above your budget", m.CandidateID)
		}
	}
}

func TestMatch_FeedbackUnderAnyActionBoostsDorm(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	before := fx.match(t, `{"mode":"dorm"}`)
	require.Len(t, before.Matches, 1)

	for _, body := range []string{
		`{"action":"record_feedback","ai_action":"dorm_view","target_id":"d1","helpful_score":5}`,
		`{"action":"record_feedback","ai_action":"dorm_match","target_id":"d1","helpful_score":5}`,
		`{"action":"record_feedback","ai_action":"combined_match","target_id":"d1","helpful_score":4}`,
	} {
		_, err := fx.svc.Handle(context.Background(), Call{Token: goodToken, Body: []byte(body)})
		require.NoError(t, err)
	}

	after := fx.match(t, `{"mode":"dorm"}`)
	require.Len(t, after.Matches, 1)
	assert.InDelta(t, 8.333, after.Matches[0].Score-before.Matches[0].Score, 0.01)
}

func TestMatch_DormMode(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, reversingEnricher{})

	resp := fx.match(t, `{"mode":"dorm"}`)

	require.Len(t, resp.Matches, 1)
	m := resp.Matches[0]
	assert.Equal(t, "d1", m.CandidateID)
	assert.Equal(t, "Picked for d1", m.Explanation)
	assert.NotEmpty(t, m.Explanations)
	assert.LessOrEqual(t, len(m.Explanations), 4)
	assert.Equal(t, "Great picks near campus.", resp.InsightsBanner)
	assert.Nil(t, resp.Fallback)
	assert.Equal(t, "dorm", resp.AIMode)
	assert.Equal(t, models.TierInfo{CurrentTier: models.TierBasic, MatchLimit: 10}, resp.TierInfo)

	require.Len(t, fx.sink.entries, 1)
	entry := fx.sink.entries[0]
	assert.Equal(t, "s-1", entry.StudentID)
	assert.Equal(t, 1, entry.MatchCount)
	assert.Equal(t, 1, entry.Rejections["gender"])
	assert.Empty(t, entry.Error)
}

func TestMatch_EnrichmentFailureDegrades(t *testing.T) {
	for _, enricher := range []llm.Enricher{failingEnricher{}, failingEnricher{panics: true}} {
		_, store := campusStore()
		fx := newServiceFixture(store, enricher)

		resp := fx.match(t, `{"mode":"dorm"}`)

		require.Len(t, resp.Matches, 1)
		assert.Contains(t, resp.Matches[0].Explanation, "% match")
		assert.Equal(t, llm.GenericInsights(models.ModeDorm), resp.InsightsBanner)
	}
}

func TestMatch_CombinedListsDormsFirst(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	resp := fx.match(t, `{"mode":"combined"}`)

	require.Len(t, resp.Matches, 2)
	assert.Equal(t, models.MatchTypeDorm, resp.Matches[0].Type)
	assert.Equal(t, models.MatchTypeRoommate, resp.Matches[1].Type)
	assert.Equal(t, 1, resp.TierInfo.MatchLimit)

	mate := resp.Matches[1]
	assert.False(t, mate.PersonalityVisible)
	assert.Equal(t, tierMessageUpgrade, mate.TierMessage)
}

func TestMatch_EnricherReordersMatches(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, reversingEnricher{})

	resp := fx.match(t, `{"mode":"combined"}`)

	require.Len(t, resp.Matches, 2)
	assert.Equal(t, []string{"c1", "d1"}, candidateIDs(resp.Matches))
}

func activePlan(tier models.PlanTier, expires time.Time) map[string]*models.MatchPlan {
	return map[string]*models.MatchPlan{
		"s-1": {ID: "p-1", StudentID: "s-1", Tier: tier, Status: "active", ExpiresAt: expires},
	}
}

func personalityCampus() *memStore {
	student, store := campusStore()
	student.PersonalityTestCompleted = true
	student.Personality = models.Personality{SleepSchedule: "late", Smoking: "no"}
	store.students[1].PersonalityTestCompleted = true
	store.students[1].Personality.SleepSchedule = "late"
	return store
}

func TestMatch_PersonalityTiers(t *testing.T) {
	store := personalityCampus()
	store.plans = activePlan(models.TierVIP, time.Now().Add(24*time.Hour))
	fx := newServiceFixture(store, nil)

	resp := fx.match(t, `{"mode":"roommate"}`)

	assert.Equal(t, models.TierVIP, resp.MatchTier)
	assert.True(t, resp.PersonalityUsed)
	assert.Equal(t, 10, resp.TierInfo.MatchLimit)
	require.Len(t, resp.Matches, 1)
	assert.True(t, resp.Matches[0].PersonalityVisible)
	assert.NotNil(t, resp.Matches[0].PersonalityScore)
	assert.Empty(t, resp.Matches[0].TierMessage)

	optOut := fx.match(t, `{"mode":"roommate","personality_enabled":false}`)
	assert.False(t, optOut.PersonalityUsed)
	assert.Nil(t, optOut.Matches[0].PersonalityScore)
}

func TestMatch_TierFallsBackToBasic(t *testing.T) {
	expired := personalityCampus()
	expired.plans = activePlan(models.TierAdvanced, time.Now().Add(-time.Hour))

	failing := personalityCampus()
	failing.planErr = errors.New("timeout")

	for _, store := range []*memStore{expired, failing} {
		fx := newServiceFixture(store, nil)

		resp := fx.match(t, `{"mode":"roommate"}`)

		assert.Equal(t, models.TierBasic, resp.MatchTier)
		assert.False(t, resp.PersonalityUsed)
		assert.Equal(t, 1, resp.TierInfo.MatchLimit)
	}
}

func TestMatch_RelaxedFallback(t *testing.T) {
	student := femaleAUBStudent()
	student.Budget = 500
	store := &memStore{
		students: []*models.Student{student},
		dorms:    []*models.Dorm{verifiedDorm("d1", "Cedar House", "female", "AUB", "Hamra", 580)},
		rooms:    []*models.Room{room("r1", "d1", "Double", 580, 2, 0)},
	}
	fx := newServiceFixture(store, reversingEnricher{})

	resp := fx.match(t, `{"mode":"dorm"}`)

	require.NotNil(t, resp.Fallback)
	assert.Equal(t, FallbackDormNoMatch, resp.Fallback.Type)
	assert.Contains(t, resp.Fallback.FiltersRelaxed, "budget")
	require.Len(t, resp.Matches, 1)
	assert.True(t, strings.HasPrefix(resp.Matches[0].Explanation, "60% match with relaxed filters"))
	assert.NotEmpty(t, resp.Matches[0].BudgetWarning)
	assert.Equal(t, FallbackDormNoMatch, fx.sink.entries[0].FallbackType)
	assert.Equal(t, 1, fx.sink.entries[0].Rejections["over_budget"])
}

func TestMatch_NoMatchesSuggestions(t *testing.T) {
	store := &memStore{students: []*models.Student{femaleAUBStudent()}}
	fx := newServiceFixture(store, nil)

	resp := fx.match(t, `{"mode":"combined"}`)

	assert.NotNil(t, resp.Matches)
	assert.Empty(t, resp.Matches)
	require.NotNil(t, resp.Fallback)
	assert.Equal(t, FallbackNoMatches, resp.Fallback.Type)
	assert.Contains(t, resp.Fallback.Suggestions, "Increase your monthly budget")
	assert.Contains(t, resp.Fallback.Suggestions, "Complete the personality test to improve roommate matching")
	assert.Contains(t, resp.Fallback.Suggestions, "Turn on roommate search in your profile")
}

func TestRecordFeedback(t *testing.T) {
	_, store := campusStore()
	fx := newServiceFixture(store, nil)

	_, err := fx.svc.Handle(context.Background(), Call{Body: []byte(`{"action":"record_feedback","ai_action":"dorm_match","target_id":"d1","helpful_score":5}`)})
	assert.Equal(t, http.StatusUnauthorized, models.StatusFor(err))

	_, err = fx.svc.Handle(context.Background(), Call{Token: goodToken, Body: []byte(`{"action":"record_feedback","ai_action":"dorm_match","target_id":"d1","helpful_score":9}`)})
	assert.ErrorIs(t, err, models.ErrInvalidFeedback)

	out, err := fx.svc.Handle(context.Background(), Call{Token: goodToken, Body: []byte(`{"action":"record_feedback","ai_action":"dorm_match","target_id":"d1","helpful_score":4,"feedback_text":"Nice place"}`)})
	require.NoError(t, err)
	assert.Equal(t, &FeedbackResult{Success: true, ID: "fb-1"}, out)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, &models.FeedbackCreate{
		UserID:       "u-1",
		AIAction:     "dorm_match",
		TargetID:     "d1",
		HelpfulScore: 4,
		FeedbackText: "Nice place",
	}, store.inserted[0])
	assert.Empty(t, fx.limiter.keys)
}

func TestAggregateScores_NeedsNoToken(t *testing.T) {
	_, store := campusStore()
	store.feedback = []*models.Feedback{
		{AIAction: "dorm_match", TargetID: "d1", HelpfulScore: 5},
		{AIAction: "dorm_match", TargetID: "d1", HelpfulScore: 3},
		{AIAction: "roommate_match", TargetID: "c1", HelpfulScore: 2},
	}
	fx := newServiceFixture(store, nil)

	out, err := fx.svc.Handle(context.Background(), Call{Body: []byte(`{"action":"get_aggregate_scores"}`)})
	require.NoError(t, err)

	agg, ok := out.(*models.AggregateScores)
	require.True(t, ok)
	assert.Equal(t, &models.ScoreTotals{Total: 8, Count: 2, Average: 4}, agg.ByAction["dorm_match"])
	assert.Equal(t, &models.ScoreTotals{Total: 2, Count: 1, Average: 2}, agg.ByTarget["c1"])
}
