package shortcut

// Auth is the authentication configuration of a shortcut, one of
// NoAuth, BasicAuth, DigestAuth or BearerAuth
type Auth interface {
	Mode() AuthMode
	sealedAuth()
}

type NoAuth struct{}

type BasicAuth struct {
	Username string
	Password string
}

type DigestAuth struct {
	Username string
	Password string
}

type BearerAuth struct {
	Token string
}

func (NoAuth) Mode() AuthMode     { return AuthNone }
func (BasicAuth) Mode() AuthMode  { return AuthBasic }
func (DigestAuth) Mode() AuthMode { return AuthDigest }
func (BearerAuth) Mode() AuthMode { return AuthBearer }

func (NoAuth) sealedAuth()     {}
func (BasicAuth) sealedAuth()  {}
func (DigestAuth) sealedAuth() {}
func (BearerAuth) sealedAuth() {}

// Auth projects the flat credential fields onto the active auth mode
func (s *Shortcut) Auth() Auth {
	switch s.Authentication {
	case AuthBasic:
		return BasicAuth{Username: s.Username, Password: s.Password}
	case AuthDigest:
		return DigestAuth{Username: s.Username, Password: s.Password}
	case AuthBearer:
		return BearerAuth{Token: s.AuthToken}
	default:
		return NoAuth{}
	}
}

// Body is the request body configuration of a shortcut, one of NoBody,
// FormDataBody, URLEncodedBody, CustomBody or FileBody
type Body interface {
	sealedBody()
}

type NoBody struct{}

// FormDataBody is sent as multipart/form-data; file parameters become file parts
type FormDataBody struct {
	Parameters []Parameter
}

type URLEncodedBody struct {
	Parameters []Parameter
}

type CustomBody struct {
	ContentType string
	Content     string
}

// FileBody streams a local file as the request body
type FileBody struct {
	ContentType string
	Path        string
}

func (NoBody) sealedBody()         {}
func (FormDataBody) sealedBody()   {}
func (URLEncodedBody) sealedBody() {}
func (CustomBody) sealedBody()     {}
func (FileBody) sealedBody()       {}

// Body projects the body fields onto the active body mode. Methods that do
// not allow a body always yield NoBody.
func (s *Shortcut) Body() Body {
	if !s.AllowsBody() {
		return NoBody{}
	}
	switch s.RequestBodyType {
	case BodyFormData:
		return FormDataBody{Parameters: s.Parameters}
	case BodyURLEncoded:
		return URLEncodedBody{Parameters: s.Parameters}
	case BodyFile:
		return FileBody{ContentType: s.contentTypeOrDefault(), Path: s.FilePath}
	case BodyCustomText:
		return CustomBody{ContentType: s.contentTypeOrDefault(), Content: s.BodyContent}
	}
	return NoBody{}
}

func (s *Shortcut) contentTypeOrDefault() string {
	if s.ContentType == "" {
		return DefaultContentType
	}
	return s.ContentType
}
