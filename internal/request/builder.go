package request

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rocketship-ai/shortcuts/internal/auth"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

// Build converts a shortcut whose placeholders have been resolved into an
// immutable request descriptor. Automatic headers are set first so that
// user-declared headers override them.
func Build(s *shortcut.Shortcut) (*Descriptor, error) {
	if err := shortcut.CheckURL(s.URL); err != nil {
		return nil, err
	}
	u, _ := url.Parse(s.URL)

	d := &Descriptor{
		method:          string(s.Method),
		url:             u,
		header:          http.Header{},
		timeout:         time.Duration(s.Timeout) * time.Millisecond,
		acceptAllCerts:  s.AcceptAllCertificates,
		followRedirects: s.FollowRedirects,
		strategy:        auth.For(s.Auth()),
	}

	if s.ProxyHost != "" {
		proxy, err := shortcut.ProxyURL(s.ProxyHost, s.ProxyPort)
		if err != nil {
			return nil, err
		}
		d.proxy = proxy
	}

	switch body := s.Body().(type) {
	case shortcut.CustomBody:
		d.body = textPayload{text: body.Content}
		d.header.Set("Content-Type", body.ContentType)
	case shortcut.FileBody:
		d.body = filePayload{path: body.Path}
		d.header.Set("Content-Type", body.ContentType)
	case shortcut.URLEncodedBody:
		d.body = urlEncodedPayload{encoded: encodeParameters(body.Parameters)}
		d.header.Set("Content-Type", "application/x-www-form-urlencoded")
	case shortcut.FormDataBody:
		boundary := newBoundary()
		d.body = multipartPayload{boundary: boundary, parameters: body.Parameters}
		d.header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	}

	if value, ok := d.strategy.Authorization(); ok {
		d.header.Set("Authorization", value)
	}

	for _, h := range s.Headers {
		d.header.Del(h.Key)
	}
	for _, h := range s.Headers {
		d.header.Add(h.Key, h.Value)
	}

	return d, nil
}

// encodeParameters keeps the declared parameter order, which url.Values would sort
func encodeParameters(params []shortcut.Parameter) string {
	var b strings.Builder
	for _, p := range params {
		if p.IsFile {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func newBoundary() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "shortcuts-" + hex.EncodeToString(buf)
}
