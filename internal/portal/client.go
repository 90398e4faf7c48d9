// Package portal is a client for the content-hosting REST API: discovery,
// token issuance, content listing, and item/folder mutations.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.arcgis.com"

type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("portal: baseURL is empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: "agtool/0.1",
	}, nil
}

// APIError is an error-shaped portal response. Raw keeps the full response
// body so commands can surface it verbatim.
type APIError struct {
	Code    int
	Message string
	Raw     []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("portal error %d: %s", e.Code, e.Message)
	}
	if e.Code != 0 {
		return fmt.Sprintf("portal error %d", e.Code)
	}
	return "portal error"
}

// parseAPIError detects the portal's {"error": {...}} envelope. Anything
// else, including invalid JSON, is not an API error.
func parseAPIError(body []byte) *APIError {
	trim := bytes.TrimSpace(body)
	if len(trim) == 0 || trim[0] != '{' {
		return nil
	}
	var e struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(trim, &e); err != nil || e.Error == nil {
		return nil
	}
	raw := make([]byte, len(trim))
	copy(raw, trim)
	return &APIError{Code: e.Error.Code, Message: e.Error.Message, Raw: raw}
}

func ensureOK(status int, body []byte) error {
	if apiErr := parseAPIError(body); apiErr != nil {
		return apiErr
	}
	if status >= 200 && status <= 299 {
		return nil
	}
	return fmt.Errorf("HTTP %d: %s", status, strings.TrimSpace(string(body)))
}

// get issues a GET with query parameters and returns the raw body.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, params, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := ensureOK(resp.StatusCode, b); err != nil {
		return nil, err
	}
	return b, nil
}

// getStream issues a GET and hands the body back unread; the caller closes.
func (c *Client) getStream(ctx context.Context, rawURL string, params url.Values) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, params, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if apiErr := parseAPIError(b); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp.Body, nil
}

// postForm posts application/x-www-form-urlencoded parameters.
func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	body := strings.NewReader(form.Encode())
	req, err := c.newRequest(ctx, http.MethodPost, rawURL, nil, body, "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := ensureOK(resp.StatusCode, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, params url.Values, body io.Reader, contentType string) (*http.Request, error) {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

// userContentURL builds .../sharing/rest/content/users/<username>[/<folderID>].
func (c *Client) userContentURL(username, folderID string) string {
	u := c.BaseURL + "/sharing/rest/content/users/" + url.PathEscape(username)
	if folderID != "" {
		u += "/" + url.PathEscape(folderID)
	}
	return u
}
