package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketship-ai/shortcuts/internal/auth"
	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

func baseShortcut(method shortcut.Method) *shortcut.Shortcut {
	s := shortcut.New("Build")
	s.Method = method
	s.URL = "https://api.example.com/items?x=1"
	return s
}

func readBody(t *testing.T, d *Descriptor) string {
	t.Helper()
	req, err := d.NewHTTPRequest(context.Background())
	require.NoError(t, err)
	if req.Body == nil {
		return ""
	}
	b, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	return string(b)
}

func TestBuild_URL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://localhost:8080/a?b=c", false},
		{"example.com/path", true},
		{"ftp://example.com", true},
		{"http://", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			s := baseShortcut(shortcut.MethodGet)
			s.URL = tt.url
			d, err := Build(s)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shortcut.ErrInvalidURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, d.URL())
		})
	}
}

func TestBuild_BodyNeverAttachedWithoutBodyMethod(t *testing.T) {
	for _, m := range shortcut.Methods {
		t.Run(string(m), func(t *testing.T) {
			s := baseShortcut(m)
			s.BodyContent = "payload"
			s.ContentType = "application/json"
			d, err := Build(s)
			require.NoError(t, err)
			if m.AllowsBody() {
				assert.Equal(t, "text", d.BodyKind())
				assert.Equal(t, "payload", readBody(t, d))
				assert.Equal(t, "application/json", d.Header().Get("Content-Type"))
			} else {
				assert.Equal(t, "none", d.BodyKind())
				assert.Empty(t, readBody(t, d))
				assert.Empty(t, d.Header().Get("Content-Type"))
			}
		})
	}
}

func TestBuild_CustomBodyDefaultContentType(t *testing.T) {
	s := baseShortcut(shortcut.MethodPost)
	s.BodyContent = "hello"
	d, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", d.Header().Get("Content-Type"))
}

func TestBuild_URLEncoded(t *testing.T) {
	s := baseShortcut(shortcut.MethodPost)
	s.RequestBodyType = shortcut.BodyURLEncoded
	s.Parameters = []shortcut.Parameter{
		{Key: "z", Value: "last"},
		{Key: "a b", Value: "x&y"},
		{Key: "upload", Value: "/tmp/ignored", IsFile: true},
	}
	d, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", d.Header().Get("Content-Type"))
	assert.Equal(t, "z=last&a+b=x%26y", readBody(t, d))
}

func TestBuild_MultipartWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	s := baseShortcut(shortcut.MethodPost)
	s.RequestBodyType = shortcut.BodyFormData
	s.Parameters = []shortcut.Parameter{
		{Key: "title", Value: "hello"},
		{Key: "attachment", Value: path, IsFile: true},
	}
	d, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, "multipart", d.BodyKind())

	req, err := d.NewHTTPRequest(context.Background())
	require.NoError(t, err)
	require.NoError(t, req.ParseMultipartForm(1<<20))
	assert.Equal(t, "hello", req.FormValue("title"))

	f, header, err := req.FormFile("attachment")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "note.txt", header.Filename)
	content, _ := io.ReadAll(f)
	assert.Equal(t, "file contents", string(content))

	// the body can be replayed
	assert.Contains(t, readBody(t, d), "file contents")
}

func TestBuild_FileBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o600))

	s := baseShortcut(shortcut.MethodPut)
	s.RequestBodyType = shortcut.BodyFile
	s.FilePath = path
	s.ContentType = "application/json"
	d, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, "file", d.BodyKind())

	req, err := d.NewHTTPRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11), req.ContentLength)

	s.FilePath = filepath.Join(t.TempDir(), "missing")
	d, err = Build(s)
	require.NoError(t, err, "missing files are reported when sending")
	_, err = d.NewHTTPRequest(context.Background())
	assert.True(t, shortcut.IsConfigError(err))
}

func TestBuild_UserHeadersOverrideAutomatic(t *testing.T) {
	s := baseShortcut(shortcut.MethodPost)
	s.ContentType = "text/plain"
	s.BodyContent = "x"
	s.Authentication = shortcut.AuthBearer
	s.AuthToken = "automatic"
	s.Headers = []shortcut.Header{
		{Key: "content-type", Value: "application/xml"},
		{Key: "X-Multi", Value: "1"},
		{Key: "x-multi", Value: "2"},
	}

	d, err := Build(s)
	require.NoError(t, err)
	h := d.Header()
	assert.Equal(t, []string{"application/xml"}, h.Values("Content-Type"))
	assert.Equal(t, "Bearer automatic", h.Get("Authorization"))
	assert.Equal(t, []string{"1", "2"}, h.Values("X-Multi"))

	s.Headers = append(s.Headers, shortcut.Header{Key: "AUTHORIZATION", Value: "Token mine"})
	d, err = Build(s)
	require.NoError(t, err)
	assert.Equal(t, "Token mine", d.Header().Get("Authorization"))
}

func TestBuild_Auth(t *testing.T) {
	s := baseShortcut(shortcut.MethodGet)
	s.Authentication = shortcut.AuthBasic
	s.Username, s.Password = "user", "pass"
	d, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, "Basic dXNlcjpwYXNz", d.Header().Get("Authorization"))

	s.Authentication = shortcut.AuthDigest
	d, err = Build(s)
	require.NoError(t, err)
	assert.Empty(t, d.Header().Get("Authorization"))
	assert.IsType(t, &auth.Digest{}, d.AuthStrategy())
}

func TestBuild_Proxy(t *testing.T) {
	s := baseShortcut(shortcut.MethodGet)
	s.ProxyHost = "proxy.local"
	s.ProxyPort = 3128
	d, err := Build(s)
	require.NoError(t, err)
	require.NotNil(t, d.Proxy())
	assert.Equal(t, "http://proxy.local:3128", d.Proxy().String())

	s.ProxyPort = 0
	_, err = Build(s)
	assert.True(t, errors.Is(err, shortcut.ErrInvalidProxy))
}

func TestBuild_ProxyHostAgreesWithValidate(t *testing.T) {
	hosts := []string{"proxy.local", "http://proxy.local", "10.0.0.1", "::1", "proxy .lan", "%zz", "proxy.lan/x", "user@proxy"}

	for _, host := range hosts {
		t.Run(host, func(t *testing.T) {
			s := baseShortcut(shortcut.MethodGet)
			s.ProxyHost = host
			s.ProxyPort = 8080
			validateErr := s.Validate()
			_, buildErr := Build(s)
			if validateErr == nil {
				assert.NoError(t, buildErr)
				return
			}
			assert.True(t, errors.Is(validateErr, shortcut.ErrInvalidProxy), "got %v", validateErr)
			assert.True(t, errors.Is(buildErr, shortcut.ErrInvalidProxy), "got %v", buildErr)
		})
	}
}

func TestBuild_Settings(t *testing.T) {
	s := baseShortcut(shortcut.MethodGet)
	s.Timeout = 1500
	s.AcceptAllCertificates = true
	s.FollowRedirects = false
	d, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d.Timeout())
	assert.True(t, d.AcceptsAllCertificates())
	assert.False(t, d.FollowsRedirects())
	assert.Equal(t, http.MethodGet, d.Method())
}

// Any shortcut that passes validation builds without a configuration error
func TestBuild_ValidShortcutsAlwaysBuild(t *testing.T) {
	bodyTypes := []shortcut.BodyType{shortcut.BodyCustomText, shortcut.BodyURLEncoded, shortcut.BodyFormData, shortcut.BodyFile}
	authModes := []shortcut.AuthMode{shortcut.AuthNone, shortcut.AuthBasic, shortcut.AuthDigest, shortcut.AuthBearer}

	for _, m := range shortcut.Methods {
		for _, bt := range bodyTypes {
			for _, am := range authModes {
				s := baseShortcut(m)
				s.RequestBodyType = bt
				s.Authentication = am
				s.FilePath = "/nonexistent/file"
				s.Parameters = []shortcut.Parameter{{Key: "k", Value: "v"}}
				s.Headers = []shortcut.Header{{Key: "X-A", Value: "b"}}
				s.ProxyHost = "127.0.0.1"
				s.ProxyPort = 8080
				if err := s.Validate(); err != nil {
					continue
				}
				_, err := Build(s)
				assert.NoError(t, err, "%s %s %s", m, bt, am)
			}
		}
	}
}
