package rest

import (
	"net/http"
	"slices"
)

// Store is the immutable configuration held by a Resource. The With* methods
// return modified copies; a Store is never changed in place, so it can be
// shared between goroutines.
type Store struct {
	baseURL     string
	client      *http.Client
	serializers Serializers
	appendSlash bool
	raw         bool
}

// NewStore creates a Store with trailing slashes enabled and raw mode disabled.
func NewStore(baseURL string, client *http.Client, serializers Serializers) (Store, error) {
	if client == nil {
		return Store{}, ErrHTTPClientRequired
	}

	if len(serializers) == 0 {
		return Store{}, ErrNoSerializers
	}

	return Store{
		baseURL:     baseURL,
		client:      client,
		serializers: slices.Clone(serializers),
		appendSlash: true,
	}, nil
}

// BaseURL returns the URL the store targets.
func (s Store) BaseURL() string { return s.baseURL }

// HTTPClient returns the client used for every request.
func (s Store) HTTPClient() *http.Client { return s.client }

// Serializers returns a copy of the serializer registry.
func (s Store) Serializers() Serializers { return slices.Clone(s.serializers) }

// AppendSlash reports whether a trailing slash is added to rendered URLs.
func (s Store) AppendSlash() bool { return s.appendSlash }

// Raw reports whether verbs hand back the underlying response.
func (s Store) Raw() bool { return s.raw }

// DefaultSerializer returns the serializer used to encode request bodies.
func (s Store) DefaultSerializer() Serializer { return s.serializers.Default() }

// Serializer returns the first serializer matching contentType.
func (s Store) Serializer(contentType string) (Serializer, bool) {
	return s.serializers.Lookup(contentType)
}

// WithBaseURL returns a copy targeting baseURL.
func (s Store) WithBaseURL(baseURL string) Store {
	s.baseURL = baseURL

	return s
}

// WithHTTPClient returns a copy using client. A nil client is ignored.
func (s Store) WithHTTPClient(client *http.Client) Store {
	if client != nil {
		s.client = client
	}

	return s
}

// WithAppendSlash returns a copy with the trailing slash policy set.
func (s Store) WithAppendSlash(appendSlash bool) Store {
	s.appendSlash = appendSlash

	return s
}

// WithRaw returns a copy with raw mode set.
func (s Store) WithRaw(raw bool) Store {
	s.raw = raw

	return s
}

// WithSerializers returns a copy using serializers.
func (s Store) WithSerializers(serializers Serializers) (Store, error) {
	if len(serializers) == 0 {
		return s, ErrNoSerializers
	}

	s.serializers = slices.Clone(serializers)

	return s, nil
}
