package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/garnizeh/fieldops/pkg/session"
)

// ErrUnauthorized is returned for every 401 response, after the guard ran.
var ErrUnauthorized = errors.New("unauthorized")

// Identity headers attached to outgoing requests.
const (
	HeaderAuthorization = "Authorization"
	HeaderUserEmail     = "X-User-Email"
	HeaderUserRole      = "X-User-Role"
)

// APIError is a non-2xx, non-401 backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// package-level logger for pkg/client; can be replaced by callers
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger sets the logger used by pkg/client. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Client is the HTTP adapter for one backend domain. It attaches the
// session identity to every request and routes 401s to the shared Guard.
type Client struct {
	base    *url.URL
	client  *http.Client
	session *session.Session
	guard   *Guard
}

func newClient(rawBase string, httpClient *http.Client, s *session.Session, g *Guard) (*Client, error) {
	u, err := url.ParseRequestURI(rawBase)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &Client{base: u, client: httpClient, session: s, guard: g}, nil
}

// API bundles the domain adapters built over one session and one guard.
type API struct {
	User     *UserAPI
	Admin    *AdminAPI
	Engineer *EngineerAPI
	Hazards  *HazardAPI

	guard  *Guard
	client *http.Client
	closed int32
}

// New builds every domain adapter. All adapters share s and one Guard so a
// 401 on any of them triggers a single logout.
func New(cfg Config, s *session.Session, httpClient *http.Client, nav Navigator) (*API, error) {
	if s == nil {
		return nil, errors.New("session is required")
	}
	if httpClient == nil {
		httpClient = NewDefaultHTTPClient(cfg.Timeout)
	}

	g := NewGuard(s, nav, cfg.LoginPath)

	core, err := newClient(cfg.BaseURL, httpClient, s, g)
	if err != nil {
		return nil, err
	}
	hazardBase := cfg.HazardsURL
	if hazardBase == "" {
		hazardBase = cfg.BaseURL
	}
	hz, err := newClient(hazardBase, httpClient, s, g)
	if err != nil {
		return nil, err
	}

	logger.Info("client: adapters created", slog.String("base_url", cfg.BaseURL), slog.Duration("timeout", cfg.Timeout))
	return &API{
		User:     &UserAPI{c: core},
		Admin:    &AdminAPI{c: core},
		Engineer: &EngineerAPI{c: core},
		Hazards:  &HazardAPI{c: hz},
		guard:    g,
		client:   httpClient,
	}, nil
}

// Guard returns the shared 401 guard.
func (a *API) Guard() *Guard { return a.guard }

// Close releases idle connections. Close is idempotent.
func (a *API) Close() error {
	if a == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&a.closed, 0, 1) {
		return nil
	}
	if a.client != nil && a.client.Transport != nil {
		if tr, ok := a.client.Transport.(interface{ CloseIdleConnections() }); ok {
			tr.CloseIdleConnections()
		}
	}
	return nil
}

func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 15 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// authorize sets the identity headers. If the session cannot be read the
// request goes out exactly as built.
func (c *Client) authorize(req *http.Request) *http.Request {
	id, err := c.session.Identity()
	if err != nil {
		logger.Error("client: read session", slog.Any("err", err), slog.String("path", req.URL.Path))
		return req
	}

	if id.Token != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+id.Token)
	}
	if id.Email != "" {
		req.Header.Set(HeaderUserEmail, id.Email)
	}
	if role := id.Role.String(); role != "" {
		req.Header.Set(HeaderUserRole, role)
	}
	return req
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.base.JoinPath(escaped...).String()
}

// do sends one request. body is JSON encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method string, body, out any, segments ...string) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	target := c.endpoint(segments...)
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(c.authorize(req))
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.guard.Unauthorized()
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	} else if text := strings.TrimSpace(string(b)); text != "" && len(text) < 200 {
		// plain text bodies from http.Error
		apiErr.Message = text
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
