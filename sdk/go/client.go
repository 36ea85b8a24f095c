package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"scribekit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the ScribeKit HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// AwardXP grants experience to a writer and returns the new total.
func (c *Client) AwardXP(ctx context.Context, writerID string, amount int64, reason string) (int64, error) {
	if strings.TrimSpace(writerID) == "" {
		return 0, ErrEmptyWriterID
	}

	u, err := url.Parse(fmt.Sprintf("%s/writers/%s/xp", c.baseURL, url.PathEscape(writerID)))
	if err != nil {
		return 0, err
	}
	q := u.Query()
	q.Set("amount", fmt.Sprintf("%d", amount))
	if reason != "" {
		q.Set("reason", reason)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return 0, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body struct {
		Total int64   `json:"total"`
		Err   *string `json:"err"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, err
	}
	if body.Err != nil && *body.Err != "" {
		return 0, errors.New(*body.Err)
	}
	return body.Total, nil
}

// RecordStory submits a content item to the writer's history. Publishing a
// story refreshes the writing streak server-side.
func (c *Client) RecordStory(ctx context.Context, writerID string, story StoryInput) error {
	if strings.TrimSpace(writerID) == "" {
		return ErrEmptyWriterID
	}
	payload, err := json.Marshal(story)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/writers/%s/stories", c.baseURL, url.PathEscape(writerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		OK  bool    `json:"ok"`
		Err *string `json:"err"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return err
	}
	if body.Err != nil && *body.Err != "" {
		return errors.New(*body.Err)
	}
	if !body.OK {
		return errors.New("story not recorded")
	}
	return nil
}

// GetWriter fetches the current achievement profile for a writer.
func (c *Client) GetWriter(ctx context.Context, writerID string) (WriterProfile, error) {
	if strings.TrimSpace(writerID) == "" {
		return WriterProfile{}, ErrEmptyWriterID
	}
	u := fmt.Sprintf("%s/writers/%s", c.baseURL, url.PathEscape(writerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return WriterProfile{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WriterProfile{}, err
	}
	defer resp.Body.Close()

	var profile WriterProfile
	if err := decodeJSON(resp, &profile); err != nil {
		return WriterProfile{}, err
	}
	return profile, nil
}

// GetBadges fetches the full badge catalog with the writer's progress.
func (c *Client) GetBadges(ctx context.Context, writerID string) ([]BadgeState, error) {
	if strings.TrimSpace(writerID) == "" {
		return nil, ErrEmptyWriterID
	}
	u := fmt.Sprintf("%s/writers/%s/badges", c.baseURL, url.PathEscape(writerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Badges []BadgeState `json:"badges"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Badges, nil
}

// Leaderboard fetches the top n writers by XP.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	u, err := url.Parse(c.baseURL + "/leaderboard")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		q := u.Query()
		q.Set("n", fmt.Sprintf("%d", n))
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Entries []LeaderboardEntry `json:"entries"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Entries, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
