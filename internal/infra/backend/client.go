// Package backend is the HTTP client for the dialogue backend. The backend
// owns the LLM and all text-to-speech playback; this client only pushes
// transcripts and prompt text at it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jarvis-voice/internal/infra"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// Per-call deadlines come from the caller's context; this is the
		// hard ceiling for any single request.
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type speakRequest struct {
	Text string `json:"text"`
}

type clearRequest struct {
	SessionID string `json:"session_id"`
}

type converseRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

type converseResponse struct {
	Jarvis string `json:"jarvis"`
}

// Speak asks the backend to synthesize and play text.
func (c *Client) Speak(ctx context.Context, text string) error {
	return c.post(ctx, "/chat/speak", speakRequest{Text: text}, nil)
}

// Clear resets the backend conversation session.
func (c *Client) Clear(ctx context.Context, sessionID string) error {
	return c.post(ctx, "/chat/clear", clearRequest{SessionID: sessionID}, nil)
}

// Converse sends a transcript and returns the backend's reply text.
func (c *Client) Converse(ctx context.Context, text, sessionID string) (string, error) {
	var result converseResponse
	err := c.post(ctx, "/chat/test", converseRequest{Text: text, SessionID: sessionID}, &result)
	if err != nil {
		return "", err
	}
	return result.Jarvis, nil
}

// Health probes the backend readiness endpoint, retrying with backoff so a
// backend that is still booting does not fail startup immediately.
func (c *Client) Health(ctx context.Context) error {
	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/health/summary", nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("backend not ready: status %d", resp.StatusCode)
		}
		return nil
	})
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
