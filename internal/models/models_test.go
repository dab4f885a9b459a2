package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  StringList
	}{
		{`{"area":"Hamra"}`, StringList{"Hamra"}},
		{`{"area":["Hamra","Verdun"]}`, StringList{"Hamra", "Verdun"}},
		{`{"area":""}`, nil},
		{`{}`, nil},
	}

	for _, tt := range tests {
		var rc RequestContext
		require.NoError(t, json.Unmarshal([]byte(tt.input), &rc), tt.input)
		assert.Equal(t, tt.want, rc.Area, tt.input)
	}

	var rc RequestContext
	assert.Error(t, json.Unmarshal([]byte(`{"area":42}`), &rc))
}

func TestMode_IsValid(t *testing.T) {
	for _, m := range []Mode{ModeDorm, ModeRoommate, ModeCombined, ModeRooms} {
		assert.True(t, m.IsValid(), m)
	}
	assert.False(t, Mode("").IsValid())
	assert.False(t, Mode("penthouse").IsValid())
}

func TestPlanTier(t *testing.T) {
	assert.False(t, TierBasic.AllowsPersonality())
	assert.True(t, TierAdvanced.AllowsPersonality())
	assert.True(t, TierVIP.AllowsPersonality())

	assert.Equal(t, 1, TierBasic.RoommateLimit())
	assert.Equal(t, 3, TierAdvanced.RoommateLimit())
	assert.Equal(t, 10, TierVIP.RoommateLimit())
	assert.Equal(t, 1, PlanTier("gold").RoommateLimit())
}

func TestMatchPlan_IsActive(t *testing.T) {
	now := time.Now()
	var missing *MatchPlan

	assert.False(t, missing.IsActive(now))
	assert.True(t, (&MatchPlan{Status: "active", ExpiresAt: now.Add(time.Hour)}).IsActive(now))
	assert.False(t, (&MatchPlan{Status: "active", ExpiresAt: now.Add(-time.Hour)}).IsActive(now))
	assert.False(t, (&MatchPlan{Status: "cancelled", ExpiresAt: now.Add(time.Hour)}).IsActive(now))
}

func TestDorm_Price(t *testing.T) {
	d := &Dorm{MonthlyPrice: 600, Rooms: []*Room{{Price: 400}}}
	assert.Equal(t, 600.0, d.Price())

	d.MonthlyPrice = 0
	d.Rooms = []*Room{{Price: 0}, {Price: 550}, {Price: 480}}
	assert.Equal(t, 480.0, d.Price())

	assert.Equal(t, 0.0, (&Dorm{}).Price())
}

func TestRoom_Capacity(t *testing.T) {
	r := &Room{Type: "Double", Capacity: 2, CapacityOccupied: 1}
	assert.True(t, r.HasFreeSpot())
	assert.Equal(t, 1, r.FreeSpots())
	assert.False(t, r.IsSingle())

	full := &Room{Type: "Double", Capacity: 2, CapacityOccupied: 3}
	assert.False(t, full.HasFreeSpot())
	assert.Equal(t, 0, full.FreeSpots())

	assert.True(t, (&Room{Type: "Single Deluxe", Capacity: 2}).IsSingle())
	assert.True(t, (&Room{Capacity: 1}).IsSingle())
}

func TestStudent_Helpers(t *testing.T) {
	s := &Student{
		University:                "LAU",
		PreferredUniversity:       "AUB",
		Dealbreakers:              []string{" Smoking "},
		AccommodationStatus:       AccommodationHaveDorm,
		NeedsRoommateCurrentPlace: true,
		RoomConfirmed:             true,
		CurrentRoomID:             "r1",
	}

	assert.Equal(t, "AUB", s.TargetUniversity())
	assert.True(t, s.HasDealbreaker(DealbreakerSmoking))
	assert.False(t, s.HasDealbreaker(DealbreakerDrinking))
	assert.True(t, s.NeedsRoommate())
	assert.True(t, s.SeekingRoommateForCurrentPlace())

	s.RoomConfirmed = false
	assert.False(t, s.SeekingRoommateForCurrentPlace())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrAuthRequired, http.StatusUnauthorized},
		{fmt.Errorf("%w: bad signature", ErrInvalidAuth), http.StatusUnauthorized},
		{fmt.Errorf("failed to load student profile: %w", ErrStudentNotFound), http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrInvalidMode, http.StatusBadRequest},
		{ErrInvalidAction, http.StatusBadRequest},
		{ErrInvalidFeedback, http.StatusBadRequest},
		{ErrInvalidRequest, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Invalid authentication", PublicMessage(fmt.Errorf("%w: token expired", ErrInvalidAuth)))
	assert.Equal(t, "Too many requests. Please try again in a minute.", PublicMessage(ErrRateLimited))
	assert.Equal(t, "boom", PublicMessage(errors.New("boom")))
}

func TestValidateFeedbackCreate(t *testing.T) {
	valid := func() *FeedbackCreate {
		return &FeedbackCreate{UserID: "u-1", AIAction: "dorm_match", TargetID: "d1", HelpfulScore: 4}
	}
	assert.NoError(t, ValidateFeedbackCreate(valid()))

	tests := []struct {
		name   string
		mutate func(*FeedbackCreate)
	}{
		{"missing user", func(f *FeedbackCreate) { f.UserID = "" }},
		{"missing action", func(f *FeedbackCreate) { f.AIAction = " " }},
		{"missing target", func(f *FeedbackCreate) { f.TargetID = "" }},
		{"score too low", func(f *FeedbackCreate) { f.HelpfulScore = 0 }},
		{"score too high", func(f *FeedbackCreate) { f.HelpfulScore = 6 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			assert.ErrorIs(t, ValidateFeedbackCreate(f), ErrInvalidFeedback)
		})
	}
}

func TestAggregateFeedback(t *testing.T) {
	agg := AggregateFeedback([]*Feedback{
		{AIAction: "dorm_match", TargetID: "d1", HelpfulScore: 5},
		{AIAction: "dorm_match", TargetID: "d2", HelpfulScore: 2},
		{AIAction: "roommate_match", TargetID: "d1", HelpfulScore: 4},
	})

	assert.Equal(t, &ScoreTotals{Total: 7, Count: 2, Average: 3.5}, agg.ByAction["dorm_match"])
	assert.Equal(t, &ScoreTotals{Total: 9, Count: 2, Average: 4.5}, agg.ByTarget["d1"])
	assert.Len(t, agg.ByTarget, 2)

	empty := AggregateFeedback(nil)
	assert.Empty(t, empty.ByAction)
	assert.NotNil(t, empty.ByTarget)
}

func TestScoredMatch_MarshalJSON(t *testing.T) {
	score := 88.0
	m := &ScoredMatch{
		Type:                 MatchTypeRoommate,
		CandidateID:          "c1",
		Roommate:             &RoommateView{ID: "c1", FullName: "Lina", Gender: "female"},
		Score:                91,
		SubScores:            map[string]float64{"lifestyle": 80},
		PersonalityBreakdown: map[string]float64{"sleep_schedule": 1},
		PersonalityScore:     &score,
		Explanations:         []string{"Also studies at AUB"},
		Explanation:          "91% match: Also studies at AUB.",
		PersonalityVisible:   true,
	}

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "c1", out["id"])
	assert.Equal(t, "Lina", out["full_name"])
	assert.Equal(t, "roommate", out["type"])
	assert.Equal(t, 91.0, out["score"])
	assert.Equal(t, 88.0, out["personality_score"])
	assert.Equal(t, true, out["personality_visible"])
	assert.NotContains(t, out, "budgetWarning")

	sub := out["subScores"].(map[string]interface{})
	assert.Equal(t, 80.0, sub["lifestyle"])
	assert.Contains(t, sub, "personality_breakdown")
}

func TestScoredMatch_MarshalJSONDorm(t *testing.T) {
	m := &ScoredMatch{
		Type:          MatchTypeDorm,
		Dorm:          &Dorm{ID: "d1", Name: "Cedar House"},
		Score:         60,
		BudgetWarning: "This option is $80 above your budget of $500",
	}

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Cedar House", out["dorm_name"])
	assert.Equal(t, []interface{}{}, out["explanations"])
	assert.NotContains(t, out, "personality_score")
	assert.Equal(t, m.BudgetWarning, out["budgetWarning"])
}
