// Package clients holds outbound HTTP integrations. The coach client talks
// to the AI coaching backend that answers case-interview questions and
// scores finished sessions.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/session"
	"github.com/caseprep/practice-service/internal/utils"
)

// CoachClient implements the session package's Asker and Scorer against the
// coach AI HTTP API.
type CoachClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     utils.Logger
}

var (
	_ session.Asker  = (*CoachClient)(nil)
	_ session.Scorer = (*CoachClient)(nil)
)

func NewCoachClient(baseURL, apiKey string, timeout time.Duration, logger utils.Logger) *CoachClient {
	return &CoachClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type askRequest struct {
	Question string              `json:"question"`
	Case     models.CaseMetadata `json:"case"`
}

type askResponse struct {
	Answer   string              `json:"answer"`
	Feedback models.TurnFeedback `json:"feedback"`
}

// Ask submits one interview question and returns the coach's answer with
// per-question feedback.
func (c *CoachClient) Ask(ctx context.Context, question string, caseMeta models.CaseMetadata) (*session.Answer, error) {
	var resp askResponse
	if err := c.post(ctx, "/v1/coach/ask", askRequest{Question: question, Case: caseMeta}, &resp); err != nil {
		return nil, err
	}
	return &session.Answer{
		Text:     resp.Answer,
		Feedback: resp.Feedback,
	}, nil
}

type scoreRequest struct {
	Turns          []models.Turn `json:"turns"`
	FrameworkText  string        `json:"framework_text"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
}

// Score asks the coach backend to grade a finished session. Callers fall
// back to a local heuristic when this fails.
func (c *CoachClient) Score(ctx context.Context, turns []models.Turn, frameworkText string, elapsedSeconds int) (*models.ScoreReport, error) {
	var report models.ScoreReport
	req := scoreRequest{
		Turns:          turns,
		FrameworkText:  frameworkText,
		ElapsedSeconds: elapsedSeconds,
	}
	if err := c.post(ctx, "/v1/coach/score", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *CoachClient) post(ctx context.Context, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coach request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Coach API returned non-OK status", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("coach API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode coach response: %w", err)
	}
	return nil
}
