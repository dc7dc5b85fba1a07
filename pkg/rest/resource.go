package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
)

// Resource is an immutable handle on one URL. Navigation returns a new
// Resource; the receiver is never modified, so a Resource may be shared and
// navigated from several goroutines.
//
// Navigation does not return errors. An invalid segment is recorded on the
// returned Resource, carried through further navigation and returned by every
// verb.
type Resource struct {
	store Store
	err   error
}

// NewResource returns a Resource bound to store.
func NewResource(store Store) *Resource {
	return &Resource{store: store}
}

// Store returns the configuration of the resource.
func (r *Resource) Store() Store {
	return r.store
}

// Err returns the navigation error, if any.
func (r *Resource) Err() error {
	return r.err
}

func (r *Resource) evolve(store Store) *Resource {
	return &Resource{store: store, err: r.err}
}

// Navigate appends path segments. Underscores in a segment are rewritten to
// hyphens; a segment starting with an underscore is rejected with
// ErrPrivateSegment.
func (r *Resource) Navigate(segments ...string) *Resource {
	if r.err != nil || len(segments) == 0 {
		return r
	}

	path := make([]any, 0, len(segments))

	for _, segment := range segments {
		if strings.HasPrefix(segment, "_") {
			return &Resource{store: r.store, err: fmt.Errorf("%w: %q", ErrPrivateSegment, segment)}
		}

		path = append(path, strings.ReplaceAll(segment, "_", "-"))
	}

	return r.evolve(r.store.WithBaseURL(JoinURL(r.store.BaseURL(), path...)))
}

// Call appends id as a path segment, or replaces the whole URL with
// urlOverride. The override wins when both are given. With a nil id and an
// empty override the receiver itself is returned.
//
// Unlike Navigate, id is joined verbatim: no underscore rewriting.
func (r *Resource) Call(id any, urlOverride string) *Resource {
	if id == nil && urlOverride == "" {
		return r
	}

	baseURL := r.store.BaseURL()
	if id != nil {
		baseURL = JoinURL(baseURL, id)
	}

	if urlOverride != "" {
		baseURL = urlOverride
	}

	return r.evolve(r.store.WithBaseURL(baseURL))
}

// ID is Call(id, "").
func (r *Resource) ID(id any) *Resource {
	return r.Call(id, "")
}

// WithURL is Call(nil, u), typically used to follow a Location header.
func (r *Resource) WithURL(u string) *Resource {
	return r.Call(nil, u)
}

// URL renders the URL of the next request.
func (r *Resource) URL() string {
	u := r.store.BaseURL()
	if r.store.AppendSlash() && !strings.HasSuffix(u, "/") {
		u += "/"
	}

	return u
}

// String implements fmt.Stringer.
func (r *Resource) String() string {
	return r.URL()
}

// AsRaw returns a Resource whose verbs also hand back the HTTP response.
func (r *Resource) AsRaw() *Resource {
	return r.evolve(r.store.WithRaw(true))
}

// Get performs a GET request.
func (r *Resource) Get(ctx context.Context, query url.Values) (*Result, error) {
	return r.do(ctx, http.MethodGet, Payload{}, query)
}

// Head performs a HEAD request.
func (r *Resource) Head(ctx context.Context, query url.Values) (*Result, error) {
	return r.do(ctx, http.MethodHead, Payload{}, query)
}

// Options performs an OPTIONS request.
func (r *Resource) Options(ctx context.Context, query url.Values) (*Result, error) {
	return r.do(ctx, http.MethodOptions, Payload{}, query)
}

// Post performs a POST request.
func (r *Resource) Post(ctx context.Context, payload Payload, query url.Values) (*Result, error) {
	return r.do(ctx, http.MethodPost, payload, query)
}

// Put performs a PUT request.
func (r *Resource) Put(ctx context.Context, payload Payload, query url.Values) (*Result, error) {
	return r.do(ctx, http.MethodPut, payload, query)
}

// Patch performs a PATCH request.
func (r *Resource) Patch(ctx context.Context, payload Payload, query url.Values) (*Result, error) {
	return r.do(ctx, http.MethodPatch, payload, query)
}

// Delete performs a DELETE request. Some APIs expect a body on DELETE, so it
// accepts a payload like the other mutating verbs. It reports true for a 2xx
// status and false for any other status that is not an error. The response
// is only returned in raw mode.
func (r *Resource) Delete(ctx context.Context, payload Payload, query url.Values) (bool, *http.Response, error) {
	resp, data, err := r.request(ctx, http.MethodDelete, payload, query)
	if err != nil {
		return false, nil, err
	}

	if !r.store.Raw() {
		return isSuccess(resp.StatusCode), nil, nil
	}

	resp.Body = io.NopCloser(bytes.NewReader(data))

	return isSuccess(resp.StatusCode), resp, nil
}

func (r *Resource) do(ctx context.Context, method string, payload Payload, query url.Values) (*Result, error) {
	resp, data, err := r.request(ctx, method, payload, query)
	if err != nil {
		return nil, err
	}

	return r.process(resp, data)
}

// request sends one request and classifies the status. The body is fully read
// and closed before returning.
func (r *Resource) request(ctx context.Context, method string, payload Payload, query url.Values) (*http.Response, []byte, error) {
	if r.err != nil {
		return nil, nil, r.err
	}

	serializer := r.store.DefaultSerializer()
	target := withQuery(r.URL(), query)

	body, contentType, err := payload.encode(r.store.serializers)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(constants.HeaderAccept, ContentTypeOf(serializer))

	if contentType != "" {
		req.Header.Set(constants.HeaderContentType, contentType)
	}

	resp, err := r.store.HTTPClient().Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s failed: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		return nil, nil, &ClientError{HTTPError: newHTTPError(resp, data)}
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return nil, nil, &ServerError{HTTPError: newHTTPError(resp, data)}
	}

	return resp, data, nil
}

func (r *Resource) process(resp *http.Response, data []byte) (*Result, error) {
	if !isSuccess(resp.StatusCode) {
		return nil, &UnexpectedStatusError{StatusCode: resp.StatusCode}
	}

	decoded, serializer := decodeBody(r.store, resp, data)

	result := &Result{
		Body:       decoded,
		StatusCode: resp.StatusCode,
		raw:        data,
		serializer: serializer,
		fallback:   r.store.DefaultSerializer(),
	}

	if r.store.Raw() {
		resp.Body = io.NopCloser(bytes.NewReader(data))
		result.Response = resp
	}

	return result, nil
}

func withQuery(target string, query url.Values) string {
	if len(query) == 0 {
		return target
	}

	separator := "?"
	if strings.Contains(target, "?") {
		separator = "&"
	}

	return target + separator + query.Encode()
}
