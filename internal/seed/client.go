package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// computeResult is the part of the compute response the run checks.
type computeResult struct {
	Name     string  `json:"name"`
	Mean     float64 `json:"mean"`
	Weighted float64 `json:"weighted"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// client talks to the grade book HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

func (c *client) compute(ctx context.Context, s Student) (computeResult, error) {
	var res computeResult
	body := map[string]string{"name": s.Name, "grades": s.Grades, "weights": s.Weights}
	err := c.do(ctx, http.MethodPost, "/api/compute", body, http.StatusOK, &res)
	return res, err
}

func (c *client) save(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/save", nil, http.StatusCreated, nil)
}

func (c *client) countRecords(ctx context.Context) (int, error) {
	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/records", nil, http.StatusOK, &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// do sends a request and decodes a JSON response into out when out is not nil.
func (c *client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	if resp.StatusCode != want {
		var e apiError
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%s %s: status %d: %s: %s", method, path, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
