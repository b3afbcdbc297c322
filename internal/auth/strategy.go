package auth

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// Doer sends a single HTTP request
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewRequest builds a fresh request for one attempt. It is called again for
// every round trip so the body can be replayed.
type NewRequest func(ctx context.Context) (*http.Request, error)

// Strategy applies one authentication mode to outgoing requests
type Strategy interface {
	// Authorization returns the header value known before sending, if any
	Authorization() (string, bool)
	// Do performs the authenticated exchange
	Do(ctx context.Context, client Doer, newRequest NewRequest) (*http.Response, error)
}

// For returns the strategy matching a shortcut's auth configuration
func For(a shortcut.Auth) Strategy {
	switch a := a.(type) {
	case shortcut.BasicAuth:
		return Basic{Username: a.Username, Password: a.Password}
	case shortcut.BearerAuth:
		return Bearer{Token: a.Token}
	case shortcut.DigestAuth:
		return &Digest{Username: a.Username, Password: a.Password}
	default:
		return None{}
	}
}

// None sends requests without credentials
type None struct{}

func (None) Authorization() (string, bool) { return "", false }

func (None) Do(ctx context.Context, client Doer, newRequest NewRequest) (*http.Response, error) {
	return sendOnce(ctx, client, newRequest)
}

// Basic sets an RFC 7617 Authorization header
type Basic struct {
	Username string
	Password string
}

func (b Basic) Authorization() (string, bool) {
	creds := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	return "Basic " + creds, true
}

func (b Basic) Do(ctx context.Context, client Doer, newRequest NewRequest) (*http.Response, error) {
	return sendOnce(ctx, client, newRequest)
}

// Bearer sets an RFC 6750 Authorization header
type Bearer struct {
	Token string
}

func (b Bearer) Authorization() (string, bool) {
	return "Bearer " + b.Token, true
}

func (b Bearer) Do(ctx context.Context, client Doer, newRequest NewRequest) (*http.Response, error) {
	return sendOnce(ctx, client, newRequest)
}

func sendOnce(ctx context.Context, client Doer, newRequest NewRequest) (*http.Response, error) {
	req, err := newRequest(ctx)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}
