package models

// ErrorEnvelope is the body of every non-2xx response
type ErrorEnvelope struct {
	StatusCode int               `json:"statusCode"`
	Mensaje    string            `json:"mensaje"`
	Path       string            `json:"path"`
	Timestamp  string            `json:"timestamp"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// OAuth2Error represents an OAuth2 error response (RFC 6749)
type OAuth2Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// NewOAuth2Error creates a new OAuth2 error response
func NewOAuth2Error(code, description string) OAuth2Error {
	return OAuth2Error{
		Error:            code,
		ErrorDescription: description,
	}
}
