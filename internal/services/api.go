package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const requestTimeout = 15 * time.Second

// Client talks to the central backend. HTTP is used for ordinary
// request/response calls; Stream has no timeout and carries SSE.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Stream  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: requestTimeout},
		Stream:  &http.Client{},
	}
}

func (c *Client) endpoint(path string) string {
	return c.BaseURL + path
}

// getJSON performs an authenticated GET and decodes the body.
func (c *Client) getJSON(ctx context.Context, path, token string) (model.Doc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(req)
}

// postJSON sends body as JSON. On a non-2xx reply the decoded body (if
// any) is returned together with an *APIError.
func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (model.Doc, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (model.Doc, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	doc, decodeErr := model.ParseDoc(body)
	if resp.StatusCode >= 400 {
		return doc, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding %s: %w", req.URL.Path, decodeErr)
	}
	return doc, nil
}

// streamURL builds the SSE endpoint for a theater. The token travels in
// the query string because EventSource-style endpoints cannot take headers.
func (c *Client) streamURL(theaterID, token string) string {
	return c.endpoint("/api/pos-stream/"+url.PathEscape(theaterID)) + "?token=" + url.QueryEscape(token)
}

func orderPath(theaterID, orderID string) string {
	return "/api/orders/theater/" + url.PathEscape(theaterID) + "/" + url.PathEscape(orderID)
}
