package request

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// DefaultMaxBodyBytes caps how much of a response body is materialized
const DefaultMaxBodyBytes = 10 << 20

// Response is a materialized HTTP response
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Truncated  bool
	Cookies    []*http.Cookie
	Elapsed    time.Duration
}

// CookieMap returns cookie values by name; later cookies win
func (r *Response) CookieMap() map[string]string {
	m := make(map[string]string, len(r.Cookies))
	for _, c := range r.Cookies {
		m[c.Name] = c.Value
	}
	return m
}

// Client sends request descriptors. Per-request TLS, proxy and redirect
// settings are applied to a clone of the base transport, never to shared state.
type Client struct {
	base         *http.Transport
	maxBodyBytes int64
	logger       *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTransport sets the base transport cloned for every request
func WithTransport(t *http.Transport) Option {
	return func(c *Client) { c.base = t }
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client
func NewClient(opts ...Option) *Client {
	c := &Client{
		base:         http.DefaultTransport.(*http.Transport),
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends d and reads the response. Network failures are returned as
// *TransportError; context cancellation is returned as is. HTTP error
// statuses are ordinary responses.
func (c *Client) Do(ctx context.Context, d *Descriptor) (*Response, error) {
	transport := c.base.Clone()
	defer transport.CloseIdleConnections()

	if d.acceptAllCerts {
		cfg := &tls.Config{}
		if transport.TLSClientConfig != nil {
			cfg = transport.TLSClientConfig.Clone()
		}
		cfg.InsecureSkipVerify = true
		transport.TLSClientConfig = cfg
	}
	if d.proxy != nil {
		transport.Proxy = http.ProxyURL(d.Proxy())
	}

	httpClient := &http.Client{Transport: transport, Timeout: d.timeout}
	if !d.followRedirects {
		httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	c.logger.Debug("sending request", "method", d.method, "url", d.URL(), "body", d.BodyKind())
	start := time.Now()

	resp, err := d.strategy.Do(ctx, httpClient, d.NewHTTPRequest)
	if err != nil {
		return nil, c.wrapError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, c.wrapError(ctx, fmt.Errorf("failed to read response body: %w", err))
	}
	truncated := int64(len(body)) > c.maxBodyBytes
	if truncated {
		body = body[:c.maxBodyBytes]
	}

	elapsed := time.Since(start)
	c.logger.Debug("received response", "status", resp.StatusCode, "bytes", len(body), "elapsed", elapsed)

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
		Truncated:  truncated,
		Cookies:    resp.Cookies(),
		Elapsed:    elapsed,
	}, nil
}

func (c *Client) wrapError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var te *TransportError
	if errors.As(err, &te) || shortcut.IsConfigError(err) || isAuthError(err) {
		return err
	}
	return newTransportError(err)
}
