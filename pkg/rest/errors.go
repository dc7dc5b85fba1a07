package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrBaseURLRequired       = errors.New("base URL is required")
	ErrNoSerializers         = errors.New("at least one serializer is required")
	ErrHTTPClientRequired    = errors.New("HTTP client is required")
	ErrPrivateSegment        = errors.New("private attribute access is not a valid path segment")
	ErrSerializerUnavailable = errors.New("no serializer available for content type")
	ErrUnsupportedFormData   = errors.New("multipart form data must be a map of fields")
	ErrEmptyBody             = errors.New("response body is empty")
	ErrClient                = errors.New("client error")
	ErrNotFound              = errors.New("resource not found")
	ErrServer                = errors.New("server error")
)

// HTTPError holds the details shared by client and server errors.
type HTTPError struct {
	StatusCode int
	URL        string
	// Body is the raw response body.
	Body []byte
	// Detail is the body decoded as a JSON object, or empty if it is not one.
	Detail   map[string]any
	Response *http.Response
}

func newHTTPError(resp *http.Response, body []byte) HTTPError {
	detail := map[string]any{}
	// Most APIs answer errors in JSON, not all of them do.
	if err := json.Unmarshal(body, &detail); err != nil {
		detail = map[string]any{}
	}

	// The caller closes the original body.
	resp.Body = io.NopCloser(bytes.NewReader(body))

	requestURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		requestURL = resp.Request.URL.String()
	}

	return HTTPError{
		StatusCode: resp.StatusCode,
		URL:        requestURL,
		Body:       body,
		Detail:     detail,
		Response:   resp,
	}
}

func (e *HTTPError) describe(kind string) string {
	msg := fmt.Sprintf("%s: %d %s", kind, e.StatusCode, http.StatusText(e.StatusCode))
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}

	if text, ok := e.Detail["errorMessage"].(string); ok && text != "" {
		msg += ": " + text
	} else if text, ok := e.Detail["error"].(string); ok && text != "" {
		msg += ": " + text
	}

	return msg
}

// ClientError is returned for 4xx responses. A 404 also matches ErrNotFound.
type ClientError struct {
	HTTPError
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	return e.describe("client error")
}

// NotFound reports whether the server answered 404.
func (e *ClientError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Is matches ErrClient, and ErrNotFound for 404 responses.
func (e *ClientError) Is(target error) bool {
	return target == ErrClient || (target == ErrNotFound && e.NotFound())
}

// ServerError is returned for 5xx responses.
type ServerError struct {
	HTTPError
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return e.describe("server error")
}

// Is matches ErrServer.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// UnexpectedStatusError is returned when a response outside 2xx reaches body
// decoding. It signals a broken contract rather than a server failure.
type UnexpectedStatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("response processing only supports 2xx status codes, got %d", e.StatusCode)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError checks if the error is a 4xx error.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClient)
}

// IsServerError checks if the error is a 5xx error.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServer)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	clientErr := &ClientError{}
	if errors.As(err, &clientErr) {
		return clientErr.StatusCode
	}

	serverErr := &ServerError{}
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode
	}

	return 0
}
