package shortcut

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	variableKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,30}$`)
	colorPattern       = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("shortcut_id", func(fl validator.FieldLevel) bool {
			return IsValidID(fl.Field().String())
		})
		_ = validate.RegisterValidation("variable_key", func(fl validator.FieldLevel) bool {
			return variableKeyPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsValidID reports whether id is a UUID or a legacy integer id
func IsValidID(id string) bool {
	if id == "" {
		return false
	}
	if _, err := uuid.Parse(id); err == nil {
		return true
	}
	_, err := strconv.ParseInt(id, 10, 64)
	return err == nil
}

// Validate checks the shortcut definition and returns a *ConfigError for the
// first problem found
func (s *Shortcut) Validate() error {
	if err := validatorInstance().Struct(s); err != nil {
		return toConfigError(err)
	}
	if strings.TrimSpace(s.Name) == "" {
		return NewConfigError("name", "must not be blank")
	}
	if len([]rune(s.Name)) > NameMaxLength {
		return NewConfigError("name", fmt.Sprintf("must be at most %d characters", NameMaxLength))
	}
	if s.ProxyHost != "" && (s.ProxyPort <= 0 || s.ProxyPort > 65535) {
		return &ConfigError{Field: "proxy_port", Reason: "a port between 1 and 65535 is required with a proxy host", Err: ErrInvalidProxy}
	}
	if s.ProxyHost == "" && s.ProxyPort != 0 {
		return &ConfigError{Field: "proxy_host", Reason: "required when a proxy port is set", Err: ErrInvalidProxy}
	}
	if s.ProxyHost != "" && !strings.Contains(s.ProxyHost, "{{") {
		if _, err := ProxyURL(s.ProxyHost, s.ProxyPort); err != nil {
			return err
		}
	}
	if s.UsesFileBody() && s.FilePath == "" {
		return NewConfigError("file_path", "required for a file body")
	}
	if !s.IsScriptOnly() && !strings.Contains(s.URL, "{{") {
		if err := CheckURL(s.URL); err != nil {
			return err
		}
	}
	return nil
}

// CheckURL verifies that raw is an absolute http or https URL
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Field: "url", Reason: err.Error(), Err: ErrInvalidURL}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Field: "url", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme), Err: ErrInvalidURL}
	}
	if u.Host == "" {
		return &ConfigError{Field: "url", Reason: "missing host", Err: ErrInvalidURL}
	}
	return nil
}

// ProxyURL returns the http proxy address for host and port. A scheme prefix
// on host is ignored.
func ProxyURL(host string, port int) (*url.URL, error) {
	if port <= 0 || port > 65535 {
		return nil, &ConfigError{Field: "proxy_port", Reason: "a port between 1 and 65535 is required with a proxy host", Err: ErrInvalidProxy}
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "https://")
	invalid := &ConfigError{Field: "proxy_host", Reason: "invalid proxy host " + strconv.Quote(host), Err: ErrInvalidProxy}
	if strings.ContainsAny(host, " \t\r\n%/?#@") {
		return nil, invalid
	}
	u, err := url.Parse("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil || u.Hostname() == "" {
		return nil, invalid
	}
	return u, nil
}

func toConfigError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigError{Reason: err.Error(), Err: ErrInvalid}
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Shortcut.")
	field = strings.TrimPrefix(field, "Variable.")
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "max":
		switch fe.Kind() {
		case reflect.String:
			reason = fmt.Sprintf("must be at most %s characters", fe.Param())
		case reflect.Slice, reflect.Map:
			reason = fmt.Sprintf("must have at most %s entries", fe.Param())
		default:
			reason = fmt.Sprintf("must be <= %s", fe.Param())
		}
	case "gte":
		reason = fmt.Sprintf("must be >= %s", fe.Param())
	case "oneof":
		reason = fmt.Sprintf("unknown value %q", fmt.Sprint(fe.Value()))
	case "shortcut_id":
		reason = fmt.Sprintf("malformed id %q", fmt.Sprint(fe.Value()))
	case "variable_key":
		reason = "must be 1-30 letters, digits or underscores"
	default:
		reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return NewConfigError(field, reason)
}
