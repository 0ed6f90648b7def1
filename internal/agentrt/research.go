package agentrt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// researchTimeout bounds the research backend HTTP call (spec.md §6:
// "Requests honour the 30 s timeout").
const researchTimeout = 30 * time.Second

// ResearchClient queries the optional research backend in place of the
// file mutator for research-kind agents (spec.md §4.6 step 4, §6).
// Grounded on original_source/managers/map_manager.py's openai client
// usage for the request/response shape, generalised to a configurable
// HTTPS endpoint with Bearer auth rather than a hard-coded OpenAI SDK
// call; `golang.org/x/time/rate` paces outbound requests locally ahead
// of the shared C2 rate limiter, the same library `cloudshipai-station`
// and friends in the example pack use for client-side pacing.
type ResearchClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewResearchClient constructs a client posting to endpoint with the
// given model and Bearer credential, paced at most once per minInterval.
func NewResearchClient(endpoint, apiKey, model string, minInterval time.Duration) *ResearchClient {
	var limit rate.Limit
	if minInterval <= 0 {
		limit = rate.Inf
	} else {
		limit = rate.Every(minInterval)
	}
	return &ResearchClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		http:     &http.Client{Timeout: researchTimeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type researchMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type researchRequest struct {
	Model    string             `json:"model"`
	Messages []researchMessage  `json:"messages"`
}

type researchResponse struct {
	Choices []struct {
		Message researchMessage `json:"message"`
	} `json:"choices"`
}

// Query posts {model, messages:[{role, content}]} to the configured
// endpoint and returns choices[0].message.content (spec.md §6).
func (c *ResearchClient) Query(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(researchRequest{
		Model: c.model,
		Messages: []researchMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshalling research request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, researchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building research request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("research request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading research response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("research backend returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed researchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parsing research response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("research response had no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
