package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/utils"
)

// maxPromptMatches bounds how many matches are described to the model.
const maxPromptMatches = 10

// ChatClient calls a chat-completion endpoint to rank and explain matches.
type ChatClient struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	logger *zap.Logger
}

// NewChatClient creates a chat-completion enricher. An empty apiKey makes
// every call return the templated enrichment.
func NewChatClient(apiURL, apiKey, model string, timeout time.Duration) *ChatClient {
	return &ChatClient{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		client: &http.Client{Timeout: timeout},
		logger: utils.GetLogger().Named("llm"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enrich sends the matches to the model and parses its JSON answer.
func (c *ChatClient) Enrich(ctx context.Context, req *Request) (*Enrichment, error) {
	if c.apiKey == "" {
		c.logger.Debug("Enrichment skipped - no API key configured")
		return Degrade(req), nil
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: c.buildPrompt(req)},
		},
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	return parseEnrichment(result.Choices[0].Message.Content)
}

const systemPrompt = `You are Roomy, a student housing assistant. You rank pre-scored housing and roommate matches and explain each in one friendly sentence. Never invent facts that are not in the data.`

func (c *ChatClient) buildPrompt(req *Request) string {
	s := req.Student
	var b strings.Builder
	fmt.Fprintf(&b, "STUDENT:\n- University: %s\n- Budget: $%.0f/month\n- Favorite areas: %s\n- Plan: %s\n\n",
		s.TargetUniversity(), s.Budget, strings.Join(s.FavoriteAreas, ", "), req.Tier)

	fmt.Fprintf(&b, "MATCHES (%s mode):\n", req.Mode)
	for i, m := range req.Matches {
		if i == maxPromptMatches {
			break
		}
		fmt.Fprintf(&b, "- id=%s type=%s name=%q score=%.0f reasons=%s\n",
			m.CandidateID, m.Type, displayName(m), m.Score, strings.Join(m.Explanations, "; "))
	}

	b.WriteString(`
Respond ONLY with valid JSON in this exact format:
{
  "ranking": ["id1", "id2"],
  "explanations": {"id1": "One sentence on why this fits"},
  "insights": "One sentence summarizing the results"
}`)
	return b.String()
}

func displayName(m *models.ScoredMatch) string {
	switch {
	case m.Dorm != nil:
		return m.Dorm.Name
	case m.Room != nil && m.Room.Dorm != nil:
		return m.Room.Dorm.Name + " / " + m.Room.Name
	case m.Roommate != nil:
		return m.Roommate.FullName
	}
	return m.CandidateID
}

// parseEnrichment extracts the JSON object from the model's text.
func parseEnrichment(text string) (*Enrichment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var e Enrichment
	if err := json.Unmarshal([]byte(text[start:end+1]), &e); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &e, nil
}
