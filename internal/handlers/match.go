// Package handlers adapts the matching service to API Gateway and net/http.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/auth"
	"roomy-ai-core/internal/services/matcher"
	"roomy-ai-core/internal/utils"
)

// retryAfterSeconds is advertised on 429 responses.
const retryAfterSeconds = "60"

// Matcher is the service the handlers front.
type Matcher interface {
	Handle(ctx context.Context, call matcher.Call) (any, error)
}

// MatchHandler serves the match endpoint.
type MatchHandler struct {
	svc    Matcher
	logger *zap.Logger
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(svc Matcher) *MatchHandler {
	return &MatchHandler{
		svc:    svc,
		logger: utils.GetLogger().Named("handlers"),
	}
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func corsHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
		"Access-Control-Allow-Methods": "POST,OPTIONS",
		"Content-Type":                 "application/json",
	}
}

// Handle processes an API Gateway request.
func (h *MatchHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders()

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	body := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return h.errorResponse(headers, models.ErrInvalidRequest), nil
		}
		body = decoded
	}

	call := matcher.Call{
		Token:    auth.BearerToken(headerValue(request.Headers, "Authorization")),
		ClientIP: clientIP(request.RequestContext.Identity.SourceIP, headerValue(request.Headers, "X-Forwarded-For")),
		Body:     body,
	}

	result, err := h.svc.Handle(ctx, call)
	if err != nil {
		return h.errorResponse(headers, err), nil
	}

	out, err := json.Marshal(result)
	if err != nil {
		return h.errorResponse(headers, err), nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(out),
	}, nil
}

func (h *MatchHandler) errorResponse(headers map[string]string, err error) events.APIGatewayProxyResponse {
	status := models.StatusFor(err)
	h.logError(status, err)
	if status == http.StatusTooManyRequests {
		headers["Retry-After"] = retryAfterSeconds
	}
	body, _ := json.Marshal(ErrorResponse{Error: models.PublicMessage(err)})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}

func (h *MatchHandler) logError(status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("Match request failed", zap.Int("status", status), zap.Error(err))
		return
	}
	h.logger.Info("Match request rejected", zap.Int("status", status), zap.Error(err))
}

// headerValue looks a header up case-insensitively.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// clientIP returns the address requests are limited by. The source address
// is set by API Gateway or the socket and wins. Without it only the last
// X-Forwarded-For hop is used, since earlier hops are supplied by the caller.
func clientIP(sourceIP, forwardedFor string) string {
	if ip := strings.TrimSpace(sourceIP); ip != "" {
		return ip
	}
	if i := strings.LastIndex(forwardedFor, ","); i >= 0 {
		forwardedFor = forwardedFor[i+1:]
	}
	return strings.TrimSpace(forwardedFor)
}
