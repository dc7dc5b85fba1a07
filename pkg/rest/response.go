package rest

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of a successful verb call.
type Result struct {
	// Body is the decoded body: the serializer's output when the content type
	// is registered, the text as a string otherwise, or []byte when the body
	// is not valid UTF-8. Status 204 and 205 always decode to "".
	Body any
	// StatusCode is always set.
	StatusCode int
	// Response is only set when the resource is in raw mode. Its body has been
	// read already and is replaced by an in-memory copy.
	Response *http.Response

	raw        []byte
	serializer Serializer
	fallback   Serializer
}

// Bytes returns the undecoded response body.
func (r *Result) Bytes() []byte {
	return r.raw
}

// Text returns Body when it is a string.
func (r *Result) Text() (string, bool) {
	text, ok := r.Body.(string)

	return text, ok
}

// Map returns Body when it decoded to an object.
func (r *Result) Map() (map[string]any, bool) {
	m, ok := r.Body.(map[string]any)

	return m, ok
}

// Unmarshal decodes the raw body into v using the serializer matched by the
// response content type, or the default serializer when none matched.
func (r *Result) Unmarshal(v any) error {
	if len(r.raw) == 0 {
		return ErrEmptyBody
	}

	serializer := r.serializer
	if serializer == nil {
		serializer = r.fallback
	}

	return serializer.Unmarshal(r.raw, v)
}

// mediaType strips parameters from a content type header. Matching stays
// case-sensitive.
func mediaType(header string) string {
	if i := strings.IndexByte(header, ';'); i >= 0 {
		header = header[:i]
	}

	return strings.TrimSpace(header)
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// decodeBody never fails: undecodable bodies degrade to text or bytes.
func decodeBody(store Store, resp *http.Response, data []byte) (any, Serializer) {
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		return "", nil
	}

	var serializer Serializer
	if contentType := mediaType(resp.Header.Get("Content-Type")); contentType != "" {
		serializer, _ = store.Serializer(contentType)
	}

	if len(data) == 0 {
		return "", serializer
	}

	if serializer != nil && isBinary(serializer) {
		var decoded any
		if err := serializer.Unmarshal(data, &decoded); err != nil {
			return data, serializer
		}

		return decoded, serializer
	}

	if !utf8.Valid(data) {
		return data, serializer
	}

	text := string(data)
	if serializer == nil {
		return text, nil
	}

	var decoded any
	if err := serializer.Unmarshal(data, &decoded); err != nil {
		return text, serializer
	}

	return decoded, serializer
}
