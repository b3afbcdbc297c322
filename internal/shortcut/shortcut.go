package shortcut

import (
	"slices"

	"github.com/google/uuid"
)

const (
	// NameMaxLength is the longest name a shortcut may carry
	NameMaxLength = 50

	// TemporaryID identifies a shortcut that is still being edited
	TemporaryID = "0"

	// DefaultContentType is used for custom bodies without an explicit content type
	DefaultContentType = "text/plain"

	DefaultURL     = "http://"
	DefaultTimeout = 10000

	// MaxTimeout and MaxDelay bound the millisecond settings. They must match
	// the max tags on Timeout and Delay.
	MaxTimeout = 3600000
	MaxDelay   = 86400000
)

// Method is an HTTP method supported by shortcuts
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// Methods lists every supported method in display order
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions, MethodTrace}

// AllowsBody reports whether requests with this method may carry a body
func (m Method) AllowsBody() bool {
	switch m {
	case MethodPost, MethodPut, MethodDelete, MethodPatch, MethodOptions:
		return true
	}
	return false
}

// AuthMode selects the authentication strategy of a shortcut
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthDigest AuthMode = "digest"
	AuthBearer AuthMode = "bearer"
)

// BodyType selects how the request body is assembled
type BodyType string

const (
	BodyFormData   BodyType = "form_data"
	BodyURLEncoded BodyType = "x_www_form_urlencode"
	BodyCustomText BodyType = "custom_text"
	BodyFile       BodyType = "file"
)

// RetryPolicy controls what happens after a transport failure
type RetryPolicy string

const (
	RetryNone           RetryPolicy = "none"
	RetryWaitForNetwork RetryPolicy = "wait_for_internet"
)

// FeedbackMode governs how the outcome of a run is surfaced
type FeedbackMode string

const (
	FeedbackNone                 FeedbackMode = "none"
	FeedbackSimpleResponse       FeedbackMode = "simple_response"
	FeedbackSimpleResponseErrors FeedbackMode = "simple_response_errors"
	FeedbackFullResponse         FeedbackMode = "full_response"
	FeedbackErrorsOnly           FeedbackMode = "errors_only"
	FeedbackDialog               FeedbackMode = "dialog"
	FeedbackActivity             FeedbackMode = "activity"
	FeedbackDebug                FeedbackMode = "debug"
)

// ExecutionType distinguishes request shortcuts from script-only ones
type ExecutionType string

const (
	ExecutionApp       ExecutionType = "app"
	ExecutionScripting ExecutionType = "scripting"
)

// Header is a single request header
type Header struct {
	Key   string `json:"key" yaml:"key" validate:"required"`
	Value string `json:"value" yaml:"value"`
}

// Parameter is a form field; file parameters carry a local path as value
type Parameter struct {
	Key    string `json:"key" yaml:"key" validate:"required"`
	Value  string `json:"value" yaml:"value"`
	IsFile bool   `json:"is_file,omitempty" yaml:"is_file,omitempty"`
}

// Shortcut is a saved, named HTTP request definition with optional scripts
type Shortcut struct {
	ID            string        `json:"id" yaml:"id" validate:"shortcut_id"`
	Name          string        `json:"name" yaml:"name" validate:"required,max=50"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	IconName      string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	ExecutionType ExecutionType `json:"execution_type,omitempty" yaml:"execution_type,omitempty" validate:"oneof=app scripting"`

	Method Method `json:"method" yaml:"method" validate:"oneof=GET POST PUT DELETE PATCH HEAD OPTIONS TRACE"`
	URL    string `json:"url" yaml:"url"`

	Authentication AuthMode `json:"authentication,omitempty" yaml:"authentication,omitempty" validate:"oneof=none basic digest bearer"`
	Username       string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password       string   `json:"password,omitempty" yaml:"password,omitempty"`
	AuthToken      string   `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`

	RequestBodyType BodyType    `json:"request_body_type,omitempty" yaml:"request_body_type,omitempty" validate:"oneof=form_data x_www_form_urlencode custom_text file"`
	ContentType     string      `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	BodyContent     string      `json:"body_content,omitempty" yaml:"body_content,omitempty"`
	FilePath        string      `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Headers         []Header    `json:"headers,omitempty" yaml:"headers,omitempty" validate:"dive"`
	Parameters      []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty" validate:"dive"`

	Timeout     int          `json:"timeout" yaml:"timeout" validate:"gte=0,max=3600000"`
	Delay       int          `json:"delay,omitempty" yaml:"delay,omitempty" validate:"gte=0,max=86400000"`
	RetryPolicy RetryPolicy  `json:"retry_policy,omitempty" yaml:"retry_policy,omitempty" validate:"oneof=none wait_for_internet"`
	Feedback    FeedbackMode `json:"feedback,omitempty" yaml:"feedback,omitempty" validate:"oneof=none simple_response simple_response_errors full_response errors_only dialog activity debug"`

	AcceptAllCertificates bool `json:"accept_all_certificates,omitempty" yaml:"accept_all_certificates,omitempty"`
	FollowRedirects       bool `json:"follow_redirects" yaml:"follow_redirects"`
	RequireConfirmation   bool `json:"require_confirmation,omitempty" yaml:"require_confirmation,omitempty"`

	ProxyHost string `json:"proxy_host,omitempty" yaml:"proxy_host,omitempty"`
	ProxyPort int    `json:"proxy_port,omitempty" yaml:"proxy_port,omitempty"`

	CodeOnPrepare string `json:"code_on_prepare,omitempty" yaml:"code_on_prepare,omitempty"`
	CodeOnSuccess string `json:"code_on_success,omitempty" yaml:"code_on_success,omitempty"`
	CodeOnFailure string `json:"code_on_failure,omitempty" yaml:"code_on_failure,omitempty"`
}

// New creates a shortcut with default settings and a fresh id
func New(name string) *Shortcut {
	s := &Shortcut{ID: uuid.NewString(), Name: name, Timeout: DefaultTimeout, FollowRedirects: true}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills zero-valued enum fields with their defaults.
// Imported files may omit them.
func (s *Shortcut) ApplyDefaults() {
	if s.ExecutionType == "" {
		s.ExecutionType = ExecutionApp
	}
	if s.Method == "" {
		s.Method = MethodGet
	}
	if s.URL == "" && s.ExecutionType == ExecutionApp {
		s.URL = DefaultURL
	}
	if s.Authentication == "" {
		s.Authentication = AuthNone
	}
	if s.RequestBodyType == "" {
		s.RequestBodyType = BodyCustomText
	}
	if s.RetryPolicy == "" {
		s.RetryPolicy = RetryNone
	}
	if s.Feedback == "" {
		s.Feedback = FeedbackFullResponse
	}
}

// AllowsBody reports whether the shortcut's method may carry a body
func (s *Shortcut) AllowsBody() bool {
	return s.Method.AllowsBody()
}

// UsesRequestParameters reports whether the body is built from parameters
func (s *Shortcut) UsesRequestParameters() bool {
	return s.AllowsBody() && (s.RequestBodyType == BodyFormData || s.RequestBodyType == BodyURLEncoded)
}

func (s *Shortcut) UsesCustomBody() bool {
	return s.AllowsBody() && s.RequestBodyType == BodyCustomText
}

func (s *Shortcut) UsesFileBody() bool {
	return s.AllowsBody() && s.RequestBodyType == BodyFile
}

// IsFeedbackErrorsOnly reports whether only failures are surfaced
func (s *Shortcut) IsFeedbackErrorsOnly() bool {
	return s.Feedback == FeedbackErrorsOnly || s.Feedback == FeedbackSimpleResponseErrors
}

// UsesResponseBody reports whether the feedback mode displays the response body
func (s *Shortcut) UsesResponseBody() bool {
	switch s.Feedback {
	case FeedbackSimpleResponse, FeedbackSimpleResponseErrors, FeedbackFullResponse, FeedbackDialog, FeedbackActivity, FeedbackDebug:
		return true
	}
	return false
}

// IsWaitForNetwork reports whether transport failures wait for connectivity
func (s *Shortcut) IsWaitForNetwork() bool {
	return s.RetryPolicy == RetryWaitForNetwork
}

// IsScriptOnly reports whether the shortcut never sends a request
func (s *Shortcut) IsScriptOnly() bool {
	return s.ExecutionType == ExecutionScripting
}

// Clone returns a deep copy
func (s *Shortcut) Clone() *Shortcut {
	c := *s
	c.Headers = slices.Clone(s.Headers)
	c.Parameters = slices.Clone(s.Parameters)
	return &c
}

// IsSameAs compares the content of two shortcuts, ignoring the id. Headers
// and parameters are compared pairwise in order.
func (s *Shortcut) IsSameAs(o *Shortcut) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Name != o.Name ||
		s.Description != o.Description ||
		s.IconName != o.IconName ||
		s.ExecutionType != o.ExecutionType ||
		s.Method != o.Method ||
		s.URL != o.URL ||
		s.Authentication != o.Authentication ||
		s.Username != o.Username ||
		s.Password != o.Password ||
		s.AuthToken != o.AuthToken ||
		s.RequestBodyType != o.RequestBodyType ||
		s.ContentType != o.ContentType ||
		s.BodyContent != o.BodyContent ||
		s.FilePath != o.FilePath ||
		s.Timeout != o.Timeout ||
		s.Delay != o.Delay ||
		s.RetryPolicy != o.RetryPolicy ||
		s.Feedback != o.Feedback ||
		s.AcceptAllCertificates != o.AcceptAllCertificates ||
		s.FollowRedirects != o.FollowRedirects ||
		s.RequireConfirmation != o.RequireConfirmation ||
		s.ProxyHost != o.ProxyHost ||
		s.ProxyPort != o.ProxyPort ||
		s.CodeOnPrepare != o.CodeOnPrepare ||
		s.CodeOnSuccess != o.CodeOnSuccess ||
		s.CodeOnFailure != o.CodeOnFailure {
		return false
	}
	return slices.Equal(s.Headers, o.Headers) && slices.Equal(s.Parameters, o.Parameters)
}
