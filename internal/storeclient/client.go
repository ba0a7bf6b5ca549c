// Package storeclient talks to the back-office REST store over HTTP.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/config"
	"backoffice/pkg/response"
)

// APIError is a non-2xx answer from the store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store returned %d: %s", e.StatusCode, e.Message)
}

// Client is a JSON client for the REST store. Calls are not retried.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

// New creates a client for the store at cfg.BaseURL.
func New(cfg config.StoreConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("store base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid store base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
	}, nil
}

// envelope mirrors response.Response with the payload left raw.
type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *response.Meta  `json:"meta"`
	Error      string          `json:"error"`
}

// do sends one request and decodes the envelope's data into out (when out is not nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*response.Meta, error) {
	u := *c.baseURL
	u.Path += path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decoding data from %s %s: %w", method, path, err)
		}
	}
	return env.Meta, nil
}

func idPath(collection string, id uint) string {
	return collection + "/" + strconv.FormatUint(uint64(id), 10)
}

// save POSTs to collection when id is zero and PUTs to collection/id otherwise.
func (c *Client) save(ctx context.Context, collection string, id uint, body, out interface{}) error {
	if id == 0 {
		_, err := c.do(ctx, http.MethodPost, collection, nil, body, out)
		return err
	}
	_, err := c.do(ctx, http.MethodPut, idPath(collection, id), nil, body, out)
	return err
}
