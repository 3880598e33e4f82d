package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/pv/foundry-portal/internal/portal"
)

// SessionState gates the fetchers: nothing is polled while the portal is
// unconfigured or the session is view-locked.
type SessionState struct {
	Configured   bool `json:"configured"`
	ViewerLocked bool `json:"viewer_locked"`
	Admin        bool `json:"is_admin"`
}

// Client talks to a portal server's JSON API. The cookie jar carries the
// session across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")

	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// SessionState fetches the gate flags for the current session.
func (c *Client) SessionState(ctx context.Context) (*SessionState, error) {
	body, err := c.doGet(ctx, "/api/session")
	if err != nil {
		return nil, err
	}

	var state SessionState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &state, nil
}

// InstanceStatus fetches the current instance snapshot.
func (c *Client) InstanceStatus(ctx context.Context) ([]portal.Instance, error) {
	body, err := c.doGet(ctx, "/api/instance-status")
	if err != nil {
		return nil, err
	}

	var instances []portal.Instance
	if err := json.Unmarshal(body, &instances); err != nil {
		return nil, fmt.Errorf("unmarshal instance snapshot: %w", err)
	}
	return instances, nil
}

// Worlds fetches the reconciled world history snapshot.
func (c *Client) Worlds(ctx context.Context) ([]portal.World, error) {
	body, err := c.doGet(ctx, "/api/worlds")
	if err != nil {
		return nil, err
	}

	var worlds []portal.World
	if err := json.Unmarshal(body, &worlds); err != nil {
		return nil, fmt.Errorf("unmarshal world snapshot: %w", err)
	}
	return worlds, nil
}

// DeleteWorld removes one history entry by its composite key. The boolean is
// the server's reported success.
func (c *Client) DeleteWorld(ctx context.Context, key string) (bool, error) {
	reqURL := c.baseURL + "/api/worlds/" + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("delete %s failed: %w", reqURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%s: status %d (%s)", reqURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("unmarshal delete response: %w", err)
	}
	return result.Success, nil
}

// Login authenticates against the portal and keeps the session cookie for
// subsequent calls.
func (c *Client) Login(ctx context.Context, password, role string) error {
	payload, err := json.Marshal(map[string]string{"password": password, "role": role})
	if err != nil {
		return fmt.Errorf("marshal login: %w", err)
	}

	reqURL := c.baseURL + "/api/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s rejected: status %d", role, resp.StatusCode)
	}
	return nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", reqURL, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read response from %s failed: %w", reqURL, readErr)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d (%s)", reqURL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}
