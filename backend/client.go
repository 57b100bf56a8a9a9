// Package backend is the typed HTTP client for the local transcription
// service. Every call is bounded by a per-operation timeout; transport
// errors, non-2xx responses and malformed bodies all surface as plain
// errors since callers never need to distinguish the cause.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "http://localhost:8765"

const (
	// Most calls answer immediately from in-memory state.
	defaultTimeout = 30 * time.Second
	// Toggle may block on transcription finishing; save may move audio
	// files around. Both get extra headroom.
	slowTimeout = 60 * time.Second
)

type StatusResult struct {
	Status    string `json:"status"`
	Recording bool   `json:"recording"`
}

type PendingResult struct {
	Pending    bool    `json:"pending"`
	Transcript string  `json:"transcript"`
	Duration   float64 `json:"duration"`
}

type LevelResult struct {
	Level     float64 `json:"level"`
	Recording bool    `json:"recording"`
}

type SaveRequest struct {
	RawText   string  `json:"raw_text"`
	FinalText string  `json:"final_text"`
	Duration  float64 `json:"duration"`
	WasEdited bool    `json:"was_edited"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Status reports whether the backend is currently recording.
func (c *Client) Status(ctx context.Context) (StatusResult, error) {
	var res StatusResult
	err := c.get(ctx, "/status", defaultTimeout, &res)
	return res, err
}

// Pending reports a completed transcript waiting for review, if any.
func (c *Client) Pending(ctx context.Context) (PendingResult, error) {
	var res PendingResult
	err := c.get(ctx, "/pending", defaultTimeout, &res)
	return res, err
}

// Level reports the current microphone level in [0,1].
func (c *Client) Level(ctx context.Context) (LevelResult, error) {
	var res LevelResult
	err := c.get(ctx, "/level", defaultTimeout, &res)
	return res, err
}

// Toggle flips recording on the backend. It intentionally discards the
// response body: state changes are only ever observed via Status polls.
func (c *Client) Toggle(ctx context.Context) error {
	return c.post(ctx, "/toggle", slowTimeout, nil)
}

// Save persists the reviewed transcript as training data.
func (c *Client) Save(ctx context.Context, req SaveRequest) error {
	return c.post(ctx, "/save", slowTimeout, req)
}

// Cancel discards the pending transcript and its temp audio.
func (c *Client) Cancel(ctx context.Context) error {
	return c.post(ctx, "/cancel", defaultTimeout, nil)
}

// Health checks that the backend is up and has its model loaded.
func (c *Client) Health(ctx context.Context) error {
	var res struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", defaultTimeout, &res); err != nil {
		return err
	}
	if res.Status != "ok" {
		return fmt.Errorf("backend unhealthy: %q", res.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, timeout time.Duration, body any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
