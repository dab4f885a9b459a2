package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/matcher"
	"roomy-ai-core/internal/services/ratelimit"
	"roomy-ai-core/internal/utils"
)

func TestMain(m *testing.M) {
	utils.UseNop()
	os.Exit(m.Run())
}

// stubMatcher records the last call and answers with a fixed result.
type stubMatcher struct {
	result any
	err    error
	calls  []matcher.Call
}

func (s *stubMatcher) Handle(_ context.Context, call matcher.Call) (any, error) {
	s.calls = append(s.calls, call)
	return s.result, s.err
}

func decodeError(t *testing.T, body string) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return resp.Error
}

func TestMatchHandler_Options(t *testing.T) {
	stub := &stubMatcher{}
	h := NewMatchHandler(stub)

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Empty(t, stub.calls)
}

func TestMatchHandler_PassesCallFields(t *testing.T) {
	stub := &stubMatcher{result: map[string]string{"ai_mode": "dorm"}}
	h := NewMatchHandler(stub)

	req := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Headers: map[string]string{
			"authorization":   "Bearer token-123",
			"x-forwarded-for": "203.0.113.7, 10.0.0.1",
		},
		Body: `{"mode":"dorm"}`,
	}
	req.RequestContext.Identity.SourceIP = "10.0.0.1"

	resp, err := h.Handle(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ai_mode":"dorm"}`, resp.Body)
	require.Len(t, stub.calls, 1)
	assert.Equal(t, "token-123", stub.calls[0].Token)
	assert.Equal(t, "10.0.0.1", stub.calls[0].ClientIP)
	assert.Equal(t, `{"mode":"dorm"}`, string(stub.calls[0].Body))
}

func TestMatchHandler_Base64Body(t *testing.T) {
	stub := &stubMatcher{result: struct{}{}}
	h := NewMatchHandler(stub)

	_, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"mode":"rooms"}`)),
		IsBase64Encoded: true,
	})

	require.NoError(t, err)
	require.Len(t, stub.calls, 1)
	assert.Equal(t, `{"mode":"rooms"}`, string(stub.calls[0].Body))
}

func TestMatchHandler_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing auth", models.ErrAuthRequired, http.StatusUnauthorized, "Authentication required"},
		{"bad token", fmt.Errorf("%w: expired", models.ErrInvalidAuth), http.StatusUnauthorized, "Invalid authentication"},
		{"no profile", models.ErrStudentNotFound, http.StatusNotFound, "Student profile not found"},
		{"rate limited", models.ErrRateLimited, http.StatusTooManyRequests, "Too many requests. Please try again in a minute."},
		{"bad mode", fmt.Errorf("%w: %q", models.ErrInvalidMode, "x"), http.StatusBadRequest, `invalid mode: "x"`},
		{"store down", errors.New("failed to list dorms: connection refused"), http.StatusInternalServerError, "failed to list dorms: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMatchHandler(&stubMatcher{err: tt.err})

			resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: `{}`})

			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, decodeError(t, resp.Body))
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
			if tt.status == http.StatusTooManyRequests {
				assert.Equal(t, "60", resp.Headers["Retry-After"])
			} else {
				assert.Empty(t, resp.Headers["Retry-After"])
			}
		})
	}
}

func TestMatchHandler_ServeHTTP(t *testing.T) {
	stub := &stubMatcher{result: map[string]int{"matches": 0}}
	h := NewMatchHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(`{"mode":"combined"}`))
	req.Header.Set("Authorization", "Bearer abc")
	req.RemoteAddr = "192.0.2.10:54321"
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"matches":0}`, rec.Body.String())
	require.Len(t, stub.calls, 1)
	assert.Equal(t, "abc", stub.calls[0].Token)
	assert.Equal(t, "192.0.2.10", stub.calls[0].ClientIP)
}

func TestMatchHandler_ServeHTTPErrors(t *testing.T) {
	h := NewMatchHandler(&stubMatcher{err: models.ErrRateLimited})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClientIP(t *testing.T) {
	assert.Equal(t, "10.0.0.1", clientIP("10.0.0.1", " 203.0.113.7 ,10.0.0.2"))
	assert.Equal(t, "10.0.0.1", clientIP("10.0.0.1", ""))
	assert.Equal(t, "10.0.0.1", clientIP(" 10.0.0.1", " , "))
	assert.Equal(t, "10.0.0.2", clientIP("", "6.6.6.6, 10.0.0.2"))
	assert.Equal(t, "10.0.0.2", clientIP("", " 10.0.0.2 "))
	assert.Empty(t, clientIP("", ""))
}

// limitingMatcher rate limits by the call's client IP the way the service does.
type limitingMatcher struct {
	limiter *ratelimit.MemoryLimiter
}

func (m limitingMatcher) Handle(ctx context.Context, call matcher.Call) (any, error) {
	limited, err := m.limiter.IsRateLimited(ctx, call.ClientIP)
	if err != nil {
		return nil, err
	}
	if limited {
		return nil, models.ErrRateLimited
	}
	return struct{}{}, nil
}

func TestMatchHandler_RotatingForwardedForIsStillLimited(t *testing.T) {
	h := NewMatchHandler(limitingMatcher{limiter: ratelimit.NewMemoryLimiter(10, time.Minute)})

	accepted, limited := 0, 0
	for i := 0; i < 50; i++ {
		req := events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodPost,
			Headers:    map[string]string{"X-Forwarded-For": fmt.Sprintf("6.6.6.%d, 203.0.113.9", i)},
			Body:       `{"mode":"dorm"}`,
		}
		req.RequestContext.Identity.SourceIP = "203.0.113.9"

		resp, err := h.Handle(context.Background(), req)
		require.NoError(t, err)
		switch resp.StatusCode {
		case http.StatusOK:
			accepted++
		case http.StatusTooManyRequests:
			limited++
		}
	}

	assert.Equal(t, 10, accepted)
	assert.Equal(t, 40, limited)
}

func TestMatchHandler_ServeHTTPIgnoresForwardedFor(t *testing.T) {
	h := NewMatchHandler(limitingMatcher{limiter: ratelimit.NewMemoryLimiter(10, time.Minute)})

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(`{}`))
		req.RemoteAddr = "192.0.2.10:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("6.6.6.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

type stubChecker struct {
	err error
}

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		checker  HealthChecker
		status   int
		health   string
		database string
	}{
		{"connected", stubChecker{}, http.StatusOK, "healthy", "connected"},
		{"disconnected", stubChecker{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "degraded", "disconnected"},
		{"not configured", nil, http.StatusOK, "healthy", "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checker, "", "test")

			resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body HealthResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.health, body.Status)
			assert.Equal(t, tt.database, body.Database)
			assert.Equal(t, "roomy-ai-core", body.Service)
			assert.Equal(t, "1.0.0", body.Version)
			assert.Equal(t, "test", body.Stage)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
