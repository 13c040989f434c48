package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
)

// SessionCookieName is the backend's session cookie.
const SessionCookieName = "sndboard_session"

// Client talks to the soundboard backend. All requests carry the session
// cookie; no request is retried automatically - retry policy belongs to
// the caller.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a Client for the given base URL, e.g.
// "https://sounds.example.com/api". The session cookie, when known, is
// installed with SetSessionCookie.
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http(s), got %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar},
	}, nil
}

// SetSessionCookie installs the session credential on the client's jar.
func (c *Client) SetSessionCookie(value string) {
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  SessionCookieName,
		Value: value,
		Path:  "/",
	}})
}

// endpoint builds an absolute URL for an API path plus optional query.
// The path is taken as already escaped, so percent-encoded IDs pass
// through untouched.
func (c *Client) endpoint(path string, query url.Values) string {
	s := strings.TrimRight(c.baseURL.String(), "/") + path
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// do issues a JSON request and decodes a 2xx response body into out.
// Non-2xx responses are classified into *APIError or *StatusError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyError(resp.StatusCode, resp.Header, data, false)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// Me returns the authenticated user, or nil when the session is anonymous.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// SteamLoginURL returns the browser entry point for the Steam login flow.
// It is a redirect target, not a JSON endpoint.
func (c *Client) SteamLoginURL() string {
	return c.endpoint("/auth/steam", nil)
}

// ListSounds fetches one page of the caller's sound listing.
func (c *Client) ListSounds(ctx context.Context, q SoundQuery) (*SoundListing, error) {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}

	var listing SoundListing
	if err := c.do(ctx, http.MethodGet, "/sounds", values, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// RenameSound changes a sound's display name.
func (c *Client) RenameSound(ctx context.Context, id, name string) (*Sound, error) {
	var resp struct {
		Sound Sound `json:"sound"`
	}
	in := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPatch, "/sounds/"+url.PathEscape(id), nil, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Sound, nil
}

// DeleteSound removes one of the caller's sounds.
func (c *Client) DeleteSound(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sounds/"+url.PathEscape(id), nil, nil, nil)
}

// SoundStreamURL returns the direct playback URL for a sound. The bytes
// are not parsed by this client.
func (c *Client) SoundStreamURL(id string) string {
	return c.endpoint("/sounds/"+url.PathEscape(id)+"/stream", nil)
}

// ListUsers fetches one page of the admin user directory.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (*UserListing, error) {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sortOrder", q.SortOrder)
	}
	if q.Filter != "" {
		values.Set("filter", q.Filter)
	}

	var listing UserListing
	if err := c.do(ctx, http.MethodGet, "/admin/users", values, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// UpdateUser applies admin flag changes (ban/unban, promote/demote).
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*AdminUser, error) {
	var resp struct {
		User AdminUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(id), nil, update, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// DeleteUser removes a user and, cascading, all their sounds.
func (c *Client) DeleteUser(ctx context.Context, id string) (*DeleteUserResult, error) {
	var resp DeleteUserResult
	if err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminDeleteSound removes any user's sound.
func (c *Client) AdminDeleteSound(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/sounds/"+url.PathEscape(id), nil, nil, nil)
}

// GetSettings fetches the global limits record.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var resp struct {
		Settings Settings `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/settings", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Settings, nil
}

// UpdateSettings replaces the global limits record. Last writer wins.
func (c *Client) UpdateSettings(ctx context.Context, s Settings) (*Settings, error) {
	var resp struct {
		Settings Settings `json:"settings"`
	}
	if err := c.do(ctx, http.MethodPut, "/admin/settings", nil, s, &resp); err != nil {
		return nil, err
	}
	return &resp.Settings, nil
}
