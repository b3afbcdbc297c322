package auth

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strings"
)

// Challenge holds the parameters of a Digest WWW-Authenticate header
type Challenge struct {
	Realm     string
	Nonce     string
	Opaque    string
	Algorithm string
	QOP       []string
}

// Digest performs RFC 7616 digest authentication. The first request is sent
// without credentials; a 401 challenge is answered once.
type Digest struct {
	Username string
	Password string

	// CNonce generates client nonces; random when nil
	CNonce func() string
}

func (d *Digest) Authorization() (string, bool) { return "", false }

func (d *Digest) Do(ctx context.Context, client Doer, newRequest NewRequest) (*http.Response, error) {
	resp, err := sendOnce(ctx, client, newRequest)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	challenge, ok := FindChallenge(resp.Header)
	if !ok {
		// a plain 401 is ordinary response data
		return resp, nil
	}
	drain(resp)

	req, err := newRequest(ctx)
	if err != nil {
		return nil, err
	}
	header, err := d.Respond(challenge, req.Method, req.URL.RequestURI())
	if err != nil {
		return nil, &AuthChallengeError{Realm: challenge.Realm, Reason: err.Error()}
	}
	req.Header.Set("Authorization", header)

	resp, err = client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return nil, &AuthChallengeError{Realm: challenge.Realm, Reason: "credentials rejected"}
	}
	return resp, nil
}

// Respond computes the Authorization header answering a challenge
func (d *Digest) Respond(c Challenge, method, uri string) (string, error) {
	algorithm := strings.ToUpper(c.Algorithm)
	if algorithm == "" {
		algorithm = "MD5"
	}
	var newHash func() hash.Hash
	switch strings.TrimSuffix(algorithm, "-SESS") {
	case "MD5":
		newHash = md5.New
	case "SHA-256":
		newHash = sha256.New
	default:
		return "", fmt.Errorf("unsupported algorithm %q", c.Algorithm)
	}
	h := func(parts ...string) string {
		sum := newHash()
		io.WriteString(sum, strings.Join(parts, ":"))
		return hex.EncodeToString(sum.Sum(nil))
	}

	qop := ""
	if len(c.QOP) > 0 {
		for _, q := range c.QOP {
			if q == "auth" {
				qop = "auth"
			}
		}
		if qop == "" {
			return "", fmt.Errorf("unsupported qop %q", strings.Join(c.QOP, ","))
		}
	}

	cnonce := d.cnonce()
	nc := "00000001"

	ha1 := h(d.Username, c.Realm, d.Password)
	if strings.HasSuffix(algorithm, "-SESS") {
		ha1 = h(ha1, c.Nonce, cnonce)
	}
	ha2 := h(method, uri)

	var response string
	if qop != "" {
		response = h(ha1, c.Nonce, nc, cnonce, qop, ha2)
	} else {
		response = h(ha1, c.Nonce, ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username="%s", realm="%s", nonce="%s", uri="%s", algorithm=%s, response="%s"`,
		quote(d.Username), quote(c.Realm), quote(c.Nonce), quote(uri), algorithm, response)
	if c.Opaque != "" {
		fmt.Fprintf(&b, `, opaque="%s"`, quote(c.Opaque))
	}
	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%s, cnonce="%s"`, qop, nc, cnonce)
	}
	return b.String(), nil
}

func (d *Digest) cnonce() string {
	if d.CNonce != nil {
		return d.CNonce()
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// FindChallenge returns the first Digest challenge in the response headers
func FindChallenge(h http.Header) (Challenge, bool) {
	for _, value := range h.Values("WWW-Authenticate") {
		scheme, rest, _ := strings.Cut(strings.TrimSpace(value), " ")
		if !strings.EqualFold(scheme, "Digest") {
			continue
		}
		params := parseParams(rest)
		c := Challenge{
			Realm:     params["realm"],
			Nonce:     params["nonce"],
			Opaque:    params["opaque"],
			Algorithm: params["algorithm"],
		}
		if c.Nonce == "" {
			continue
		}
		for _, q := range strings.Split(params["qop"], ",") {
			if q = strings.TrimSpace(q); q != "" {
				c.QOP = append(c.QOP, q)
			}
		}
		return c, true
	}
	return Challenge{}, false
}

// parseParams splits comma separated key=value pairs, honouring quoted values
func parseParams(s string) map[string]string {
	params := map[string]string{}
	for len(s) > 0 {
		s = strings.TrimLeft(s, " ,")
		key, rest, ok := strings.Cut(s, "=")
		if !ok {
			break
		}
		key = strings.ToLower(strings.TrimSpace(key))
		rest = strings.TrimLeft(rest, " ")

		var value string
		if strings.HasPrefix(rest, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(rest); i++ {
				if rest[i] == '\\' && i+1 < len(rest) {
					i++
					b.WriteByte(rest[i])
					continue
				}
				if rest[i] == '"' {
					break
				}
				b.WriteByte(rest[i])
			}
			value = b.String()
			s = rest[min(i+1, len(rest)):]
		} else {
			value, s, _ = strings.Cut(rest, ",")
			value = strings.TrimSpace(value)
		}
		params[key] = value
	}
	return params
}

func quote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
