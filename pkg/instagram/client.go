// Package instagram provides a client for the Instagram web profile API.
//
// Each fetch attempt runs inside its own Session, bound to a fresh outbound
// identity from the configured ProxyProvider. The client performs no retries;
// callers classify faults and decide.
package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://www.instagram.com"

	// Public application id used by the Instagram web app.
	defaultAppID = "936619743392459"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response from the profile API.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram: unexpected status %d from %s", e.StatusCode, e.URL)
}

// HTTPStatus exposes the status code for fault classification.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Profile is the parsed primary lookup result. User carries the raw subject
// object; the remaining fields are the few values later stages branch on.
type Profile struct {
	User               map[string]any
	UserID             string
	Biography          string
	ShowPublicContacts bool
	HasChaining        bool
	Found              bool
}

// Client creates per-attempt sessions against the profile API.
type Client interface {
	// NewSession binds a session to the identifier's outbound identity for
	// the given attempt number.
	NewSession(identifier string, attempt int) (Session, error)
}

// Session performs the per-stage remote calls of one fetch attempt.
type Session interface {
	// ProfileInfo resolves the session's identifier to a base profile.
	ProfileInfo(ctx context.Context) (*Profile, error)
	// ContactInfo fetches public business contact fields by internal user id.
	ContactInfo(ctx context.Context, userID string) (map[string]any, error)
	// RelatedProfiles fetches chaining suggestions by internal user id.
	RelatedProfiles(ctx context.Context, userID string) ([]map[string]any, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithSessionCookie attaches the session credential to every request.
func WithSessionCookie(cookie string) Option {
	return func(c *httpClient) { c.sessionCookie = cookie }
}

// WithAppID overrides the application id header.
func WithAppID(id string) Option {
	return func(c *httpClient) { c.appID = id }
}

// WithUserAgent overrides the browser user-agent string.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

// WithProxyProvider sets the outbound identity source.
func WithProxyProvider(p ProxyProvider) Option {
	return func(c *httpClient) { c.proxies = p }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.timeout = d }
}

// WithRateLimit throttles outbound requests across all sessions.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

type httpClient struct {
	baseURL       string
	appID         string
	userAgent     string
	sessionCookie string
	timeout       time.Duration
	proxies       ProxyProvider
	limiter       *rate.Limiter
}

// NewClient creates a profile API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		appID:     defaultAppID,
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
		proxies:   Direct{},
		limiter:   rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) NewSession(identifier string, attempt int) (Session, error) {
	proxyURL, err := c.proxies.SessionURL(SessionID(identifier, attempt))
	if err != nil {
		return nil, eris.Wrapf(err, "instagram: proxy session for %s", identifier)
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &session{
		c:          c,
		identifier: identifier,
		primary: &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		},
		// Secondary endpoints never follow redirects; a 3xx there is a fault.
		secondary: &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

type session struct {
	c          *httpClient
	identifier string
	primary    *http.Client
	secondary  *http.Client
}

func (s *session) get(ctx context.Context, hc *http.Client, reqURL string) ([]byte, error) {
	if err := s.c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "instagram: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "instagram: create request")
	}
	req.Header.Set("x-ig-app-id", s.c.appID)
	req.Header.Set("User-Agent", s.c.userAgent)
	if s.c.sessionCookie != "" {
		req.Header.Set("Cookie", s.c.sessionCookie)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "instagram: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	return body, nil
}

func (s *session) ProfileInfo(ctx context.Context) (*Profile, error) {
	reqURL := fmt.Sprintf("%s/api/v1/users/web_profile_info/?username=%s",
		s.c.baseURL, url.QueryEscape(s.identifier))

	body, err := s.get(ctx, s.primary, reqURL)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, eris.Errorf("instagram: malformed response body for %s", s.identifier)
	}

	user := gjson.GetBytes(body, "data.user")
	if !user.Exists() || user.Type == gjson.Null {
		return &Profile{Found: false}, nil
	}
	if !user.IsObject() {
		return nil, eris.Errorf("instagram: unexpected user payload shape for %s", s.identifier)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(user.Raw), &raw); err != nil {
		return nil, eris.Wrapf(err, "instagram: decode user object for %s", s.identifier)
	}

	return &Profile{
		User:               raw,
		UserID:             user.Get("id").String(),
		Biography:          user.Get("biography").String(),
		ShowPublicContacts: user.Get("should_show_public_contacts").Bool(),
		HasChaining:        user.Get("has_chaining").Bool(),
		Found:              true,
	}, nil
}

func (s *session) ContactInfo(ctx context.Context, userID string) (map[string]any, error) {
	reqURL := fmt.Sprintf("%s/api/v1/users/%s/business_contact/", s.c.baseURL, url.PathEscape(userID))

	body, err := s.get(ctx, s.secondary, reqURL)
	if err != nil {
		return nil, err
	}

	contact := gjson.GetBytes(body, "contact")
	if !contact.IsObject() {
		return nil, eris.Errorf("instagram: contact object missing for user %s", userID)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(contact.Raw), &fields); err != nil {
		return nil, eris.Wrapf(err, "instagram: decode contact object for user %s", userID)
	}
	return fields, nil
}

func (s *session) RelatedProfiles(ctx context.Context, userID string) ([]map[string]any, error) {
	reqURL := fmt.Sprintf("%s/api/v1/users/%s/chaining/", s.c.baseURL, url.PathEscape(userID))

	body, err := s.get(ctx, s.secondary, reqURL)
	if err != nil {
		return nil, err
	}

	users := gjson.GetBytes(body, "users")
	if !users.IsArray() {
		return nil, eris.Errorf("instagram: chaining users missing for user %s", userID)
	}

	var related []map[string]any
	if err := json.Unmarshal([]byte(users.Raw), &related); err != nil {
		return nil, eris.Wrapf(err, "instagram: decode chaining users for user %s", userID)
	}
	return related, nil
}
