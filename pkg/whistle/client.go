// Package whistle implements a thin client for the Whistle pet tracker
// REST API (v4). Every method issues a single request and returns the JSON
// body exactly as received; callers decode into whatever shape they need.
package whistle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultScheme  = "https"
	defaultHost    = "app.whistle.com"
	defaultAPIPath = "api"

	acceptVersion = "application/vnd.whistle.com.v4+json"
	userAgent     = "Winston/2.5.3 (iPhone; iOS 12.0.1; Build:1276; Scale/2.0)"

	dateFormatYYYYMMDD = "2006-01-02"
)

// Config describes the API endpoint location. Zero-value fields are not
// filled in; use DefaultConfig for production values.
type Config struct {
	Scheme  string
	Host    string
	APIPath string
}

// DefaultConfig returns the vendor's production endpoint configuration.
func DefaultConfig() Config {
	return Config{
		Scheme:  defaultScheme,
		Host:    defaultHost,
		APIPath: defaultAPIPath,
	}
}

// Client is the API facade. It holds the credentials, the lazily obtained
// bearer token, and a borrowed resty session. The session is owned by the
// caller: the client never creates or closes it, so connection and timeout
// policy stay with whoever built the session.
type Client struct {
	email    string
	password string
	session  *resty.Client
	now      func() time.Time

	mu    sync.Mutex
	cfg   *Config
	token string
}

// New builds a client for the given credentials over a caller-owned session.
func New(email, password string, session *resty.Client) *Client {
	return &Client{
		email:    email,
		password: password,
		session:  session,
		now:      time.Now,
	}
}

// Init applies the endpoint config (nil means production defaults) and logs
// in if no token is cached yet. It must complete successfully before any
// resource method is used. Init is safe for concurrent callers and is a
// no-op re-login once a token is held; the token is never refreshed after
// that (expiry handling is intentionally out of scope).
func (c *Client) Init(ctx context.Context, cfg *Config) error {
	if c.session == nil {
		return errors.New("whistle: nil http session")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conf := DefaultConfig()
	if cfg != nil {
		conf = *cfg
	}

	if c.token == "" {
		token, err := c.login(ctx, conf)
		if err != nil {
			return err
		}
		c.token = token
	}
	c.cfg = &conf
	return nil
}

// state snapshots the config and token, failing before a successful Init.
func (c *Client) state() (Config, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg == nil || c.token == "" {
		return Config{}, "", ErrNotInitialized
	}
	return *c.cfg, c.token, nil
}

// url composes scheme://host/apiPath/resource. The resource is used as-is;
// callers are responsible for producing valid path segments.
func (c *Client) url(cfg Config, resource string) string {
	return fmt.Sprintf("%s://%s/%s/%s", cfg.Scheme, cfg.Host, cfg.APIPath, resource)
}

// headers returns the fixed header set the vendor expects on authenticated
// calls. Login never sends these.
func (c *Client) headers(cfg Config, token string) map[string]string {
	return map[string]string{
		"Host":            cfg.Host,
		"Content-Type":    "application/json",
		"Connection":      "keep-alive",
		"Accept":          acceptVersion,
		"Accept-Language": "en-us",
		"Accept-Encoding": "br, gzip, deflate",
		"User-Agent":      userAgent,
		"Authorization":   "Bearer " + token,
	}
}

// request is the single request primitive behind every call. Query params
// with nil values are dropped entirely; the vendor rejects null-valued
// parameters. Non-2xx responses become *APIError, bodies that are not valid
// JSON become *DecodeError, transport failures pass through wrapped.
func (c *Client) request(ctx context.Context, cfg Config, method, resource string, headers map[string]string, body any, params map[string]*string) (json.RawMessage, error) {
	req := c.session.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if body != nil {
		req.SetBody(body)
	}
	if qp := filterParams(params); len(qp) > 0 {
		req.SetQueryParams(qp)
	}

	resp, err := req.Execute(method, c.url(cfg, resource))
	if err != nil {
		return nil, fmt.Errorf("whistle: %s %s: %w", method, resource, err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.Body()}
	}

	raw := resp.Body()
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, &DecodeError{Resource: resource, Err: err}
	}
	return json.RawMessage(raw), nil
}

// filterParams drops nil-valued query parameters.
func filterParams(params map[string]*string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		out[k] = *v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// getResource issues an authenticated GET; every read endpoint goes through
// here.
func (c *Client) getResource(ctx context.Context, resource string, params map[string]*string) (json.RawMessage, error) {
	cfg, token, err := c.state()
	if err != nil {
		return nil, err
	}
	return c.request(ctx, cfg, http.MethodGet, resource, c.headers(cfg, token), nil, params)
}

// login exchanges the credentials for a bearer token. It sends none of the
// standard headers and no Authorization.
func (c *Client) login(ctx context.Context, cfg Config) (string, error) {
	raw, err := c.request(ctx, cfg, http.MethodPost, "login", nil, map[string]string{
		"email":    c.email,
		"password": c.password,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	var out struct {
		AuthToken string `json:"auth_token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &DecodeError{Resource: "login", Err: err}
	}
	if out.AuthToken == "" {
		return "", ErrMissingAuthToken
	}
	return out.AuthToken, nil
}

// Pets lists the pets on the account: id, gender, name, profile photo URLs
// by size, breed, dob, address.
func (c *Client) Pets(ctx context.Context) (json.RawMessage, error) {
	return c.getResource(ctx, "pets", nil)
}

// Owners lists the owners attached to a pet.
func (c *Client) Owners(ctx context.Context, petID string) (json.RawMessage, error) {
	return c.getResource(ctx, fmt.Sprintf("pets/%s/owners", petID), nil)
}

// Places lists configured places: name, address, lat/long, radius or polygon
// outline, member pet ids, wifi network details.
func (c *Client) Places(ctx context.Context) (json.RawMessage, error) {
	return c.getResource(ctx, "places", nil)
}

// Stats returns aggregate activity stats for a pet (averages, streaks, most
// active day).
func (c *Client) Stats(ctx context.Context, petID string) (json.RawMessage, error) {
	return c.getResource(ctx, fmt.Sprintf("pets/%s/stats", petID), nil)
}

// Timeline returns the location timeline for a pet: inside items carry the
// place and a time range, outside items a static map URL with origin and
// destination.
func (c *Client) Timeline(ctx context.Context, petID string) (json.RawMessage, error) {
	return c.getResource(ctx, fmt.Sprintf("pets/%s/timelines/location", petID), nil)
}

// Dailies lists per-day activity summaries for a pet. A start date without an
// end date ranges to now; an end date without a start date ranges from the
// Unix epoch. Dates are sent as YYYY-MM-DD; absent dates are omitted from the
// request.
func (c *Client) Dailies(ctx context.Context, petID string, startDate, endDate *time.Time) (json.RawMessage, error) {
	start, end := dailiesRange(startDate, endDate, c.now)
	return c.getResource(ctx, fmt.Sprintf("pets/%s/dailies", petID), map[string]*string{
		"start_date": start,
		"end_date":   end,
	})
}

// dailiesRange applies the date-range defaulting policy and formats both
// bounds, returning nil for bounds that stay absent.
func dailiesRange(startDate, endDate *time.Time, now func() time.Time) (start, end *string) {
	if startDate != nil && endDate == nil {
		t := now()
		endDate = &t
	} else if endDate != nil && startDate == nil {
		t := time.Unix(0, 0).UTC()
		startDate = &t
	}

	if startDate != nil {
		s := startDate.Format(dateFormatYYYYMMDD)
		start = &s
	}
	if endDate != nil {
		s := endDate.Format(dateFormatYYYYMMDD)
		end = &s
	}
	return start, end
}

// Daily returns a single daily summary, including the 18-minute bar chart
// values.
func (c *Client) Daily(ctx context.Context, petID, dayID string) (json.RawMessage, error) {
	return c.getResource(ctx, fmt.Sprintf("pets/%s/dailies/%s", petID, dayID), nil)
}

// Achievements lists earned and available achievements for a pet.
func (c *Client) Achievements(ctx context.Context, petID string) (json.RawMessage, error) {
	return c.getResource(ctx, fmt.Sprintf("pets/%s/achievements", petID), nil)
}
