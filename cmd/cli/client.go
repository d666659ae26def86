package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iho/fxreval/internal/adapter/http/dto"
)

// apiError is a non-2xx answer of the API.
type apiError struct {
	Status  int
	Body    dto.ErrorResponse
	RawBody string
}

func (e *apiError) Error() string {
	if e.Body.Error == "" {
		return fmt.Sprintf("request failed (status %d): %s", e.Status, strings.TrimSpace(e.RawBody))
	}
	prefix := "error"
	if e.Body.Warning {
		prefix = "warning"
	}
	if e.Body.Message != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Body.Error, e.Body.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Body.Error)
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends body as JSON and decodes a 2xx response into out.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode, RawBody: string(raw)}
		_ = json.Unmarshal(raw, &apiErr.Body)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
