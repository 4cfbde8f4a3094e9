// Package clinicapi is the typed surface of the clinic record API. Every
// call is issued through the shared transport pipeline; no endpoint carries
// its own token logic.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const (
	RouteLogin   = "/auth/login"
	RouteRefresh = "/auth/refresh"
	RouteMe      = "/auth/me"
)

// StatusError is returned for any non-2xx API response. The transport has
// already done its 401 handling by the time one of these surfaces.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("clinic api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("clinic api: %d", e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Client issues requests against one clinic API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. httpClient should be the shared pipeline from the
// transport package.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[clinicapi.New] baseURL is required")
	}
	if httpClient == nil {
		return nil, errors.New("[clinicapi.New] httpClient is required")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Do issues method path with an optional JSON body and decodes a 2xx JSON
// response into out. Non-2xx responses become a *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[Client.Do] marshal body")
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] new request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.Do] round trip")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Message: readErrorMessage(resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "[Client.Do] decode response")
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	var payload ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
