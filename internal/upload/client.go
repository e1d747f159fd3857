package upload

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
)

// importResult mirrors alpha.Result without importing the ingest package
// (which would pull in pgx and other server-side dependencies).
type importResult struct {
	SessionsReceived int      `json:"sessions_received"`
	SessionsSkipped  int      `json:"sessions_skipped"`
	WorkoutsInserted int      `json:"workouts_inserted"`
	SetsInserted     int      `json:"sets_inserted"`
	RecordsSet       int      `json:"records_set"`
	CreatedExercises []string `json:"created_exercises"`
}

// Client sends Alpha Progression exports to the FitTrack server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the FitTrack server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// permanentError is a rejection that retrying will not fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// SendCSV POSTs one export to the import endpoint. Server errors and network
// failures are retried up to 3 times with exponential backoff; 4xx responses
// are returned at once.
func (c *Client) SendCSV(ctx context.Context, data []byte) (*importResult, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}

		res, err := c.post(ctx, data)
		if err == nil {
			return res, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (*importResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/import/alpha", bytes.NewReader(data))
	if err != nil {
		return nil, &permanentError{fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &permanentError{fmt.Errorf("import rejected (status %d): %s", resp.StatusCode, body)}
	default:
		return nil, fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
	}

	var res importResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding import result: %w", err)
	}
	return &res, nil
}
