package dsl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketship-ai/shortcuts/internal/shortcut"
)

func TestParseYAML_ValidFiles(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(t *testing.T, f *File)
	}{
		{
			name: "minimal shortcut gets defaults",
			yaml: `
version: 1
shortcuts:
  - name: "Ping"
    url: "https://example.com/ping"
`,
			check: func(t *testing.T, f *File) {
				require.Len(t, f.Shortcuts, 1)
				s := f.Shortcuts[0]
				assert.NotEmpty(t, s.ID)
				assert.Equal(t, shortcut.MethodGet, s.Method)
				assert.Equal(t, shortcut.DefaultTimeout, s.Timeout)
				assert.True(t, s.FollowRedirects)
				assert.Equal(t, shortcut.FeedbackFullResponse, s.Feedback)
				assert.Equal(t, shortcut.AuthNone, s.Authentication)
			},
		},
		{
			name: "full shortcut with variables",
			yaml: `
version: 1
shortcuts:
  - id: "1f0e3dad-9990-4a2b-8c1d-3e6f2a1b0c9d"
    name: "Create item"
    method: POST
    url: "https://{{host}}/items"
    authentication: bearer
    auth_token: "{{token}}"
    request_body_type: custom_text
    content_type: application/json
    body_content: '{"name":"x"}'
    headers:
      - key: X-Trace
        value: "1"
    follow_redirects: false
    retry_policy: wait_for_internet
    feedback: errors_only
    code_on_success: "setVariable('last', response.statusCode)"
variables:
  - id: host
    key: host
    value: api.example.com
  - key: token
    type: password
    remember_value: true
`,
			check: func(t *testing.T, f *File) {
				s := f.Shortcuts[0]
				assert.Equal(t, "1f0e3dad-9990-4a2b-8c1d-3e6f2a1b0c9d", s.ID)
				assert.Equal(t, shortcut.BearerAuth{Token: "{{token}}"}, s.Auth())
				assert.False(t, s.FollowRedirects)
				assert.True(t, s.IsWaitForNetwork())
				require.Len(t, s.Headers, 1)
				require.Len(t, f.Variables, 2)
				assert.Equal(t, shortcut.VariableConstant, f.Variables[0].Type)
				assert.NotEmpty(t, f.Variables[1].ID)
				assert.True(t, f.Variables[1].IsInteractive())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseYAML([]byte(strings.TrimSpace(tt.yaml)))
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestParseYAML_InvalidFiles(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectedErr string
	}{
		{
			name:        "missing version",
			yaml:        "shortcuts: []",
			expectedErr: "schema validation failed",
		},
		{
			name:        "wrong version",
			yaml:        "version: 2\nshortcuts: []",
			expectedErr: "schema validation failed",
		},
		{
			name: "unknown method",
			yaml: `
version: 1
shortcuts:
  - name: "Bad"
    method: FETCH
`,
			expectedErr: "schema validation failed",
		},
		{
			name: "unknown field",
			yaml: `
version: 1
shortcuts:
  - name: "Bad"
    colour: red
`,
			expectedErr: "schema validation failed",
		},
		{
			name: "relative url",
			yaml: `
version: 1
shortcuts:
  - name: "Bad"
    url: "/ping"
`,
			expectedErr: "url",
		},
		{
			name: "proxy without port",
			yaml: `
version: 1
shortcuts:
  - name: "Bad"
    url: "https://example.com"
    proxy_host: proxy.local
`,
			expectedErr: "proxy_port",
		},
		{
			name: "timeout too long",
			yaml: `
version: 1
shortcuts:
  - name: "Bad"
    url: "https://example.com"
    timeout: 9999999999999
`,
			expectedErr: "schema validation failed",
		},
		{
			name: "duplicate variable keys",
			yaml: `
version: 1
shortcuts: []
variables:
  - key: a
  - key: a
`,
			expectedErr: "duplicate variable key",
		},
		{
			name:        "malformed yaml",
			yaml:        "version: [1",
			expectedErr: "failed to unmarshal YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(strings.TrimSpace(tt.yaml)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestMarshalYAML_RoundTrip(t *testing.T) {
	s := shortcut.New("Export me")
	s.URL = "https://example.com"
	s.Headers = []shortcut.Header{{Key: "A", Value: "1"}}
	v := shortcut.NewVariable("host", "example.com")

	out, err := MarshalYAML([]*shortcut.Shortcut{s}, []shortcut.Variable{v})
	require.NoError(t, err)

	f, err := ParseYAML(out)
	require.NoError(t, err)
	require.Len(t, f.Shortcuts, 1)
	assert.True(t, s.IsSameAs(f.Shortcuts[0]))
	assert.Equal(t, []shortcut.Variable{v}, f.Variables)
}
