package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/explain"
	"roomy-ai-core/internal/services/llm"
	"roomy-ai-core/internal/services/scoring"
	"roomy-ai-core/internal/utils"
)

const (
	defaultDormLimit     = 10
	defaultEnrichTimeout = 8 * time.Second
	logTimeout           = 3 * time.Second
)

// Tier messages attached to roommate matches.
const (
	tierMessageUpgrade    = "Upgrade to Advanced or VIP to unlock personality compatibility insights."
	tierMessageTakeSurvey = "Complete the personality test to unlock personality compatibility insights."
)

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Students StudentStore
	Dorms    DormStore
	Plans    PlanStore
	Feedback FeedbackStore
	Auth     Authenticator
	Limiter  RateLimiter
	// Enricher defaults to llm.Degraded.
	Enricher llm.Enricher
	// Sinks receive one best-effort log entry per matching request.
	Sinks []LogSink
}

// Options tune the orchestrator. Zero values select the defaults.
type Options struct {
	Weights       *scoring.Weights
	DefaultLimit  int
	EnrichTimeout time.Duration
}

// Service runs the matching pipeline and the auxiliary feedback actions.
type Service struct {
	deps          Deps
	fetcher       *Fetcher
	explainer     *explain.Generator
	defaultLimit  int
	enrichTimeout time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// NewService creates the orchestrator.
func NewService(deps Deps, opts Options) *Service {
	weights := scoring.DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultDormLimit
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = defaultEnrichTimeout
	}
	if deps.Enricher == nil {
		deps.Enricher = llm.Degraded{}
	}

	return &Service{
		deps:          deps,
		fetcher:       NewFetcher(deps.Dorms, deps.Students, deps.Feedback, weights),
		explainer:     explain.NewGenerator(weights.Thresholds),
		defaultLimit:  opts.DefaultLimit,
		enrichTimeout: opts.EnrichTimeout,
		now:           time.Now,
		logger:        utils.GetLogger().Named("matcher"),
	}
}

// Call is one request to the match endpoint.
type Call struct {
	// Token is the bearer token without its scheme; empty when absent.
	Token    string
	ClientIP string
	Body     []byte
}

// FeedbackResult is returned by record_feedback.
type FeedbackResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// Handle routes a call to the matching pipeline or to an auxiliary action.
// The returned value is JSON-encodable; errors map to statuses with models.StatusFor.
func (s *Service) Handle(ctx context.Context, call Call) (any, error) {
	var req models.MatchRequest
	if len(bytes.TrimSpace(call.Body)) > 0 {
		if err := json.Unmarshal(call.Body, &req); err != nil {
			// Without a parsed action the caller is held to the match pipeline's auth.
			if _, aerr := s.authenticate(ctx, call.Token); aerr != nil {
				return nil, aerr
			}
			return nil, fmt.Errorf("%w: malformed JSON body: %v", models.ErrInvalidRequest, err)
		}
	}

	switch req.Action {
	case "":
		return s.Match(ctx, call, &req)
	case models.ActionGetAggregateScores:
		return s.AggregateScores(ctx)
	case models.ActionRecordFeedback:
		return s.RecordFeedback(ctx, call.Token, &req)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidAction, req.Action)
	}
}

// Match authenticates the caller and runs the matching pipeline.
func (s *Service) Match(ctx context.Context, call Call, req *models.MatchRequest) (*models.MatchResponse, error) {
	start := s.now()
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))

	userID, err := s.authenticate(ctx, call.Token)
	if err != nil {
		return nil, err
	}

	key := call.ClientIP
	if key == "" {
		key = "user:" + userID
	}
	if s.rateLimited(ctx, key) {
		logger.Info("Rate limit exceeded", zap.String("key", key))
		return nil, models.ErrRateLimited
	}

	student, err := s.deps.Students.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}

	tier := s.resolveTier(ctx, student, logger)
	usePersonality := tier.AllowsPersonality() && student.PersonalityTestCompleted &&
		(req.PersonalityEnabled == nil || *req.PersonalityEnabled)

	entry := &models.MatchLog{
		RequestID: requestID,
		StudentID: student.ID,
		Mode:      string(req.Mode),
		Tier:      tier,
		CreatedAt: start,
	}
	resp, err := s.run(ctx, student, req, tier, usePersonality, entry, logger)
	entry.DurationMs = s.now().Sub(start).Milliseconds()
	if err != nil {
		entry.Error = err.Error()
	}
	s.record(ctx, entry, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Match request complete",
		zap.String("student_id", student.ID),
		zap.String("mode", string(req.Mode)),
		zap.String("tier", string(tier)),
		zap.Int("matches", len(resp.Matches)),
		zap.String("fallback", entry.FallbackType),
		zap.Int64("duration_ms", entry.DurationMs),
	)
	return resp, nil
}

func (s *Service) run(ctx context.Context, student *models.Student, req *models.MatchRequest, tier models.PlanTier, usePersonality bool, entry *models.MatchLog, logger *zap.Logger) (*models.MatchResponse, error) {
	if !req.Mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidMode, req.Mode)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	d := dispatch{
		student:        student,
		req:            req,
		limit:          limit,
		roommateLimit:  tier.RoommateLimit(),
		usePersonality: usePersonality,
	}

	result, err := s.fetch(ctx, d, false)
	if err != nil {
		return nil, err
	}
	logger.Info("Primary fetch complete",
		zap.String("student_id", student.ID),
		zap.Int("matches", len(result.Matches)),
		zap.Int("rejected", len(result.Rejections)),
	)

	housing := withRequestContext(student, req.Context)
	matches := result.Matches
	s.explainAll(matches, student, housing, tier, usePersonality)

	insights := llm.GenericInsights(req.Mode)
	if len(matches) > 0 {
		matches, insights = s.enrich(ctx, &llm.Request{
			Mode:    req.Mode,
			Tier:    tier,
			Student: housing,
			Matches: matches,
		}, logger)
	}

	var fallback *models.Fallback
	if len(matches) == 0 {
		relaxed, err := s.fetch(ctx, d, true)
		if err != nil {
			return nil, err
		}
		mergeRejections(result, relaxed)
		matches = relaxed.Matches
		s.explainAll(matches, student, housing, tier, usePersonality)
		if len(matches) > 0 {
			fallback = RelaxedFallback(req.Mode)
			for _, m := range matches {
				m.Explanation = llm.TemplateExplanation(m)
			}
		} else {
			fallback = NoMatchesFallback(req.Mode, student)
		}
		entry.FallbackType = fallback.Type
		logger.Info("Fallback search complete",
			zap.String("student_id", student.ID),
			zap.String("fallback", fallback.Type),
			zap.Int("matches", len(matches)),
		)
	}

	entry.MatchCount = len(matches)
	entry.Rejections = result.RejectionCounts()

	matchLimit := limit
	if req.Mode == models.ModeRoommate || req.Mode == models.ModeCombined {
		matchLimit = d.roommateLimit
	}
	if matches == nil {
		matches = []*models.ScoredMatch{}
	}
	return &models.MatchResponse{
		AIMode:          string(req.Mode),
		MatchTier:       tier,
		PersonalityUsed: usePersonality,
		InsightsBanner:  insights,
		Matches:         matches,
		Fallback:        fallback,
		TierInfo: models.TierInfo{
			CurrentTier:        tier,
			PersonalityEnabled: usePersonality,
			MatchLimit:         matchLimit,
		},
	}, nil
}

// dispatch is the resolved fetch plan of one request.
type dispatch struct {
	student        *models.Student
	req            *models.MatchRequest
	limit          int
	roommateLimit  int
	usePersonality bool
}

// fetch runs the fetchers the mode selects. Combined mode runs the dorm and
// roommate searches concurrently and lists dorms first.
func (s *Service) fetch(ctx context.Context, d dispatch, relaxed bool) (*FetchResult, error) {
	f := s.fetcher
	st, rc, ex := d.student, d.req.Context, d.req.ExcludeIDs

	dorms := func(ctx context.Context) (*FetchResult, error) {
		if relaxed {
			return f.FallbackDormMatches(ctx, st, rc, ex, d.limit)
		}
		return f.FetchDormMatches(ctx, st, rc, ex, d.limit)
	}
	roommates := func(ctx context.Context) (*FetchResult, error) {
		if relaxed {
			return f.FallbackRoommateMatches(ctx, st, d.roommateLimit, ex)
		}
		return f.FetchRoommateMatches(ctx, st, d.usePersonality, d.roommateLimit, ex)
	}

	switch d.req.Mode {
	case models.ModeDorm:
		return dorms(ctx)
	case models.ModeRooms:
		if relaxed {
			return f.FallbackRoomMatches(ctx, st, rc, ex, d.limit)
		}
		return f.FetchRoomMatches(ctx, st, rc, ex, d.limit)
	case models.ModeRoommate:
		return roommates(ctx)
	}

	var dormRes, mateRes *FetchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dormRes, err = dorms(gctx)
		return err
	})
	g.Go(func() (err error) {
		mateRes, err = roommates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	mergeRejections(dormRes, mateRes)
	dormRes.Matches = append(dormRes.Matches, mateRes.Matches...)
	return dormRes, nil
}

func mergeRejections(dst, src *FetchResult) {
	dst.Rejections = append(dst.Rejections, src.Rejections...)
}

// explainAll explains dorms and rooms against housing, the student with the
// request overrides applied, and roommates against the stored profile.
func (s *Service) explainAll(matches []*models.ScoredMatch, student, housing *models.Student, tier models.PlanTier, usePersonality bool) {
	for _, m := range matches {
		visible := usePersonality && len(m.PersonalityBreakdown) > 0
		subject := housing
		if m.Type == models.MatchTypeRoommate {
			subject = student
		}
		m.Explanations = s.explainer.Explain(m, subject, tier, visible)
		m.PersonalityVisible = visible
		if m.Type != models.MatchTypeRoommate {
			continue
		}
		switch {
		case !tier.AllowsPersonality():
			m.TierMessage = tierMessageUpgrade
		case !student.PersonalityTestCompleted:
			m.TierMessage = tierMessageTakeSurvey
		}
	}
}

// enrich runs the enricher under a timeout. Any failure degrades to the
// templated explanations; it never fails the request.
func (s *Service) enrich(ctx context.Context, req *llm.Request, logger *zap.Logger) ([]*models.ScoredMatch, string) {
	ectx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()

	e, err := s.safeEnrich(ectx, req)
	if err != nil {
		logger.Warn("Enrichment failed, using templated explanations", zap.Error(err))
		e = llm.Degrade(req)
	}
	return llm.Apply(req, e)
}

func (s *Service) safeEnrich(ctx context.Context, req *llm.Request) (e *llm.Enrichment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enricher panic: %v", r)
		}
	}()
	e, err = s.deps.Enricher.Enrich(ctx, req)
	if err == nil && e == nil {
		err = fmt.Errorf("enricher returned no result")
	}
	return e, err
}

// RecordFeedback stores the caller's rating of a suggestion.
func (s *Service) RecordFeedback(ctx context.Context, token string, req *models.MatchRequest) (*FeedbackResult, error) {
	userID, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	fc := &models.FeedbackCreate{
		UserID:       userID,
		AIAction:     strings.TrimSpace(req.AIAction),
		TargetID:     strings.TrimSpace(req.TargetID),
		HelpfulScore: req.HelpfulScore,
		FeedbackText: req.FeedbackText,
	}
	if err := models.ValidateFeedbackCreate(fc); err != nil {
		return nil, err
	}

	id, err := s.deps.Feedback.Insert(ctx, fc)
	if err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}
	s.logger.Info("Feedback recorded",
		zap.String("user_id", userID),
		zap.String("ai_action", fc.AIAction),
		zap.String("target_id", fc.TargetID),
		zap.Int("helpful_score", fc.HelpfulScore),
	)
	return &FeedbackResult{Success: true, ID: id}, nil
}

// AggregateScores folds every feedback row into per-action and per-target totals.
// It runs with the service credential and needs no caller token.
func (s *Service) AggregateScores(ctx context.Context) (*models.AggregateScores, error) {
	rows, err := s.deps.Feedback.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return models.AggregateFeedback(rows), nil
}

func (s *Service) authenticate(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", models.ErrAuthRequired
	}
	userID, err := s.deps.Auth.UserIDFromToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInvalidAuth, err)
	}
	if userID == "" {
		return "", models.ErrInvalidAuth
	}
	return userID, nil
}

// rateLimited fails open when the limiter itself errors.
func (s *Service) rateLimited(ctx context.Context, key string) bool {
	if s.deps.Limiter == nil {
		return false
	}
	limited, err := s.deps.Limiter.IsRateLimited(ctx, key)
	if err != nil {
		s.logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
		return false
	}
	return limited
}

// resolveTier returns the tier of the student's active plan, basic otherwise.
func (s *Service) resolveTier(ctx context.Context, student *models.Student, logger *zap.Logger) models.PlanTier {
	if s.deps.Plans == nil {
		return models.TierBasic
	}
	plan, err := s.deps.Plans.GetActivePlan(ctx, student.ID, s.now())
	if err != nil {
		logger.Warn("Plan lookup failed, using basic tier",
			zap.String("student_id", student.ID),
			zap.Error(err),
		)
		return models.TierBasic
	}
	if !plan.IsActive(s.now()) {
		return models.TierBasic
	}
	switch plan.Tier {
	case models.TierAdvanced, models.TierVIP:
		return plan.Tier
	}
	return models.TierBasic
}

// record hands the entry to every sink. Failures are logged and dropped.
func (s *Service) record(ctx context.Context, entry *models.MatchLog, logger *zap.Logger) {
	if len(s.deps.Sinks) == 0 {
		return
	}
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logTimeout)
	defer cancel()
	for _, sink := range s.deps.Sinks {
		if err := sink.RecordMatch(lctx, entry); err != nil {
			logger.Warn("Failed to record match log", zap.Error(err))
		}
	}
}
