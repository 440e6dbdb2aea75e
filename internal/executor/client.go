// Package executor talks to the remote code runner. The runner exposes one
// endpoint per language, POST {base}/run-{lang}, taking {code, input} and
// answering {output} or {error}.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/rs/zerolog"
)

// ErrRunnerUnavailable wraps transport failures, non-2xx statuses and non-JSON runner replies.
var ErrRunnerUnavailable = errors.New("code runner unavailable")

const maxResponseBytes = 1 << 20

type runRequest struct {
	Code  string `json:"code"`
	Input string `json:"input"`
}

type runResponse struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// Client calls the runner. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Client. A zero timeout leaves calls bounded by ctx only.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "executor").Logger(),
	}
}

// Run executes code in lang. A runner-reported error is a successful call
// with IsError set; the returned error covers transport problems only.
func (c *Client) Run(ctx context.Context, lang model.Language, code, input string) (*model.RunResult, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedLanguage, lang)
	}

	body, err := json.Marshal(runRequest{Code: code, Input: input})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run-"+string(lang), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunnerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		c.log.Warn().
			Str("language", string(lang)).
			Int("status", resp.StatusCode).
			Msg("Runner returned non-2xx status")
		return nil, fmt.Errorf("%w: status %d", ErrRunnerUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRunnerUnavailable, err)
	}

	var out runResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: status %d: %v", ErrRunnerUnavailable, resp.StatusCode, err)
	}

	c.log.Debug().
		Str("language", string(lang)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Runner replied")

	result := &model.RunResult{Language: lang}
	if out.Output != "" {
		result.Output = strings.TrimSpace(out.Output)
		return result, nil
	}
	result.Output = strings.TrimSpace(out.Error)
	result.IsError = out.Error != ""
	return result, nil
}
