package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jwebster45206/town-engine/internal/handlers"
)

const (
	// PollInterval is how often the town is fetched while waiting
	PollInterval = 250 * time.Millisecond
	// StepTimeout is how long a step's expectations may take to hold
	StepTimeout = 30 * time.Second
)

// GetTown retrieves the current town
func GetTown(ctx context.Context, client *http.Client, baseURL string) (*handlers.TownResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/town", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create town request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send town request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("town endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var t handlers.TownResponse
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode town: %w", err)
	}
	return &t, nil
}

// Post sends a JSON body and checks the status code.
func Post(ctx context.Context, client *http.Client, url string, body interface{}, want int) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d (expected %d): %s", url, resp.StatusCode, want, string(raw))
	}
	return nil
}

// PollTown fetches the town until check passes or timeout elapses. The last
// check error is returned on timeout.
func PollTown(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration, check func(*handlers.TownResponse) error) (*handlers.TownResponse, error) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		t, err := GetTown(ctx, client, baseURL)
		if err == nil {
			if lastErr = check(t); lastErr == nil {
				return t, nil
			}
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for town (waited %v): %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}
