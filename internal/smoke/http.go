package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestIDHeader carries the run identifier on every request.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 512

// client wraps http.Client with a base URL and request id.
type client struct {
	http      *http.Client
	baseURL   string
	requestID string
}

func newClient(baseURL, requestID string, timeout time.Duration) *client {
	return &client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		requestID: requestID,
	}
}

// get fetches path and decodes a JSON body into v when v is non-nil.
func (c *client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(RequestIDHeader, c.requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: GET %s: %d %s", ErrStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if v == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func rankingPath(id string) string {
	return "/rankings/" + url.PathEscape(id)
}

func athletePath(id, name string) string {
	return rankingPath(id) + "/athletes/" + url.PathEscape(name)
}
