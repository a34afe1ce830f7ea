// Package client talks to a running analyzer server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/brevet/internal/domain/grading"
	"github.com/okian/brevet/internal/domain/model"
	"github.com/okian/brevet/internal/domain/types"
)

const defaultTimeout = 30 * time.Second

// ErrUnhealthy is returned by Health when the server does not answer ok.
var ErrUnhealthy = errors.New("analyzer unhealthy")

// APIError is a non-2xx answer from the analyzer.
type APIError struct {
	Status  int
	Code    string
	Message string
	Skipped []types.SkippedEntry
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analyzer returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Is maps the server's data error codes to the grading sentinels, so remote
// and local analyses fail the same way.
func (e *APIError) Is(target error) bool {
	switch e.Code {
	case grading.ReasonInvalidGrade:
		return target == grading.ErrInvalidGrade
	case grading.ReasonInvalidCoefficient:
		return target == grading.ErrInvalidCoefficient
	case "insufficient_data":
		return target == grading.ErrInsufficientData
	}
	return false
}

// Client wraps http.Client with the analyzer base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. A zero timeout selects 30s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Options are the per-request analysis options. Empty fields use the server defaults.
type Options struct {
	Policy   string
	Notation string
	Language string
}

// Analyze posts evals to /analyze and decodes the report.
func (c *Client) Analyze(ctx context.Context, evals []model.Evaluation, opts Options) (types.Report, error) {
	body := types.AnalyzeRequest{Evaluations: make([]types.EvaluationInput, len(evals))}
	for i, ev := range evals {
		body.Evaluations[i] = types.FromModel(ev)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return types.Report{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	q := url.Values{}
	if opts.Policy != "" {
		q.Set("policy", opts.Policy)
	}
	if opts.Notation != "" {
		q.Set("notation", opts.Notation)
	}
	if opts.Language != "" {
		q.Set("lang", opts.Language)
	}
	target := c.baseURL + "/analyze"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return types.Report{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Report{}, fmt.Errorf("post %s: %w", target, err)
	}
	raw, err := readResponseBody(resp)
	if err != nil {
		return types.Report{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		if errors.Is(apiErr, grading.ErrInsufficientData) {
			return partialReport(apiErr, evals, opts), apiErr
		}
		return types.Report{}, apiErr
	}
	var report types.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return types.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	raw, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	var body struct {
		Status string `json:"status"`
	}
	if resp.StatusCode != http.StatusOK || json.Unmarshal(raw, &body) != nil || body.Status != "ok" {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// partialReport carries the skipped records of an insufficient_data answer,
// like the report the service returns locally in that case.
func partialReport(apiErr *APIError, evals []model.Evaluation, opts Options) types.Report {
	return types.Report{
		GeneratedAt:      time.Now().UTC(),
		Policy:           opts.Policy,
		Notation:         opts.Notation,
		Language:         opts.Language,
		Evaluations:      []types.EvaluationEntry{},
		SubjectAverages:  map[string]types.SubjectEntry{},
		Skipped:          apiErr.Skipped,
		TotalEvaluations: len(evals),
	}
}

func decodeAPIError(status int, raw []byte) *APIError {
	var body struct {
		Code    string               `json:"code"`
		Message string               `json:"message"`
		Skipped []types.SkippedEntry `json:"skipped"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Code == "" {
		return &APIError{Status: status, Code: "unknown", Message: strings.TrimSpace(string(raw))}
	}
	return &APIError{Status: status, Code: body.Code, Message: body.Message, Skipped: body.Skipped}
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
