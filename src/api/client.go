// Package api is the HTTP client for the Loopy backend. Transport details
// live in the generic request base; endpoint methods only describe paths and
// payload shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"loopy-client/src/apperr"
	"loopy-client/src/logger"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// errorBody is the backend's failure envelope. Present on non-2xx responses
// and sometimes alongside 200s describing logical failures.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// request is the single transport path for every endpoint. The response body
// is decoded into T; non-2xx statuses become backend errors carrying the
// server's message when one was sent.
func request[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var result T

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return result, fmt.Errorf("marshalling request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return result, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	c.log.Debugf("api request %s %s id=%s", method, path, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return result, apperr.Wrap(apperr.KindTimeout, err, "request timed out")
		}
		return result, apperr.Wrap(apperr.KindNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, apperr.Wrap(apperr.KindNetwork, err, "reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var backendErr errorBody
		if json.Unmarshal(responseBody, &backendErr) == nil && backendErr.Error != "" {
			return result, apperr.New(apperr.KindBackend, "%s", backendErr.Error)
		}
		return result, apperr.New(apperr.KindBackend, "HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if len(responseBody) == 0 {
		return result, nil
	}

	if err := json.Unmarshal(responseBody, &result); err != nil {
		return result, apperr.Wrap(apperr.KindBackend, err, "decoding response")
	}

	return result, nil
}
