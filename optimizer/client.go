package optimizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError is a non-2xx answer from the optimizer service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("optimizer HTTP %d: %s", e.Status, e.Body)
}

type Client struct {
	baseURL     string
	requestPath string
	httpClient  *http.Client
}

func NewClient(baseURL, requestPath string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		requestPath: requestPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Dispatch ships a snapshot to the optimizer and returns the acceptance
// envelope's iteration data, if the service provides it.
func (c *Client) Dispatch(req *Request) ([]IterationSnapshot, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("optimizer marshal: %w", err)
	}
	resp, err := c.httpClient.Post(c.baseURL+c.requestPath, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("optimizer POST %s: %w", c.requestPath, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("optimizer read body: %w", err)
	}
	if resp.StatusCode > 201 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	var envelope Response
	if len(body) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			// Acceptance body is informational; a malformed one does not
			// fail the dispatch.
			return nil, nil
		}
	}
	return envelope.Data, nil
}

// Ping checks the optimizer is reachable.
func (c *Client) Ping() error {
	resp, err := c.httpClient.Get(c.baseURL + "/")
	if err != nil {
		return fmt.Errorf("optimizer ping: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("optimizer ping: HTTP %d", resp.StatusCode)
	}
	return nil
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Reconfigure updates the client's endpoint and timeout for hot-reload.
func (c *Client) Reconfigure(baseURL, requestPath string, timeout time.Duration) {
	c.baseURL = baseURL
	c.requestPath = requestPath
	c.httpClient.Timeout = timeout
}
