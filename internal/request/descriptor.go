package request

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/auth"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// Descriptor is an immutable, fully resolved HTTP request
type Descriptor struct {
	method          string
	url             *url.URL
	header          http.Header
	body            payload
	timeout         time.Duration
	acceptAllCerts  bool
	followRedirects bool
	proxy           *url.URL
	strategy        auth.Strategy
}

func (d *Descriptor) Method() string { return d.method }

func (d *Descriptor) URL() string { return d.url.String() }

// Header returns a copy of the request headers
func (d *Descriptor) Header() http.Header { return d.header.Clone() }

func (d *Descriptor) Timeout() time.Duration { return d.timeout }

func (d *Descriptor) AcceptsAllCertificates() bool { return d.acceptAllCerts }

func (d *Descriptor) FollowsRedirects() bool { return d.followRedirects }

// Proxy returns the proxy URL, or nil when the request goes direct
func (d *Descriptor) Proxy() *url.URL {
	if d.proxy == nil {
		return nil
	}
	u := *d.proxy
	return &u
}

// BodyKind names the body payload: none, text, file, urlencoded or multipart
func (d *Descriptor) BodyKind() string {
	if d.body == nil {
		return "none"
	}
	return d.body.kind()
}

// AuthStrategy returns the authentication strategy used when sending
func (d *Descriptor) AuthStrategy() auth.Strategy { return d.strategy }

// NewHTTPRequest creates a fresh *http.Request. The body is reopened on
// every call so retries and auth challenges can replay it.
func (d *Descriptor) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var (
		body   io.ReadCloser
		length int64 = -1
	)
	if d.body != nil {
		var err error
		body, length, err = d.body.open()
		if err != nil {
			return nil, err
		}
	}

	u := *d.url
	req, err := http.NewRequestWithContext(ctx, d.method, u.String(), nil)
	if err != nil {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = d.header.Clone()
	if body != nil {
		req.Body = body
		req.ContentLength = length
		if length == 0 {
			body.Close()
			req.Body = http.NoBody
		}
		req.GetBody = func() (io.ReadCloser, error) {
			rc, _, err := d.body.open()
			return rc, err
		}
	}
	return req, nil
}

// payload opens a request body for a single attempt
type payload interface {
	kind() string
	open() (io.ReadCloser, int64, error)
}

type textPayload struct {
	text string
}

func (p textPayload) kind() string { return "text" }

func (p textPayload) open() (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader(p.text)), int64(len(p.text)), nil
}

type urlEncodedPayload struct {
	encoded string
}

func (p urlEncodedPayload) kind() string { return "urlencoded" }

func (p urlEncodedPayload) open() (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader(p.encoded)), int64(len(p.encoded)), nil
}

// filePayload streams a file from disk
type filePayload struct {
	path string
}

func (p filePayload) kind() string { return "file" }

func (p filePayload) open() (io.ReadCloser, int64, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, 0, &shortcut.ConfigError{Field: "file_path", Reason: err.Error(), Err: shortcut.ErrInvalid}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat request body: %w", err)
	}
	return f, info.Size(), nil
}

// multipartPayload writes form-data through a pipe, reading file parts from
// disk while the request is being sent
type multipartPayload struct {
	boundary   string
	parameters []shortcut.Parameter
}

func (p multipartPayload) kind() string { return "multipart" }

func (p multipartPayload) open() (io.ReadCloser, int64, error) {
	for _, param := range p.parameters {
		if !param.IsFile {
			continue
		}
		if _, err := os.Stat(param.Value); err != nil {
			return nil, 0, &shortcut.ConfigError{Field: "parameters", Reason: err.Error(), Err: shortcut.ErrInvalid}
		}
	}

	pr, pw := io.Pipe()
	go func() {
		mw := multipart.NewWriter(pw)
		if err := mw.SetBoundary(p.boundary); err != nil {
			pw.CloseWithError(err)
			return
		}
		for _, param := range p.parameters {
			if err := writePart(mw, param); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}()
	return pr, -1, nil
}

func writePart(mw *multipart.Writer, param shortcut.Parameter) error {
	if !param.IsFile {
		return mw.WriteField(param.Key, param.Value)
	}
	f, err := os.Open(param.Value)
	if err != nil {
		return err
	}
	defer f.Close()
	part, err := mw.CreateFormFile(param.Key, filepath.Base(param.Value))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
