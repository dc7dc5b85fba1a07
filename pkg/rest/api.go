package rest

import (
	"net/http"
	"time"

	internalhttp "github.com/fivetwenty-io/kcadmin/internal/http"
)

type apiOptions struct {
	client      *http.Client
	auth        TokenProvider
	serializers Serializers
	appendSlash bool
	raw         bool

	// Only used when no client is supplied.
	logger    Logger
	debug     bool
	userAgent string
	timeout   time.Duration
	retryMax  int
	retryMin  time.Duration
	retryWait time.Duration
	retry     bool
}

// Option configures New.
type Option func(*apiOptions)

// WithHTTPClient sets the client used for every request. The client is
// never modified; WithAuth wraps a copy.
func WithHTTPClient(client *http.Client) Option {
	return func(o *apiOptions) {
		o.client = client
	}
}

// WithAuth authenticates every request with a bearer token from provider.
func WithAuth(provider TokenProvider) Option {
	return func(o *apiOptions) {
		o.auth = provider
	}
}

// WithSerializers replaces the serializer registry. The first serializer
// encodes request bodies.
func WithSerializers(serializers ...Serializer) Option {
	return func(o *apiOptions) {
		o.serializers = append(Serializers{}, serializers...)
	}
}

// WithAppendSlash sets the trailing slash policy. It defaults to true.
func WithAppendSlash(appendSlash bool) Option {
	return func(o *apiOptions) {
		o.appendSlash = appendSlash
	}
}

// WithRaw sets raw mode on the root resource.
func WithRaw(raw bool) Option {
	return func(o *apiOptions) {
		o.raw = raw
	}
}

// WithLogger sets the logger of the default session.
func WithLogger(logger Logger) Option {
	return func(o *apiOptions) {
		o.logger = logger
	}
}

// WithDebug enables request logging on the default session.
func WithDebug(debug bool) Option {
	return func(o *apiOptions) {
		o.debug = debug
	}
}

// WithUserAgent sets the User-Agent of the default session.
func WithUserAgent(userAgent string) Option {
	return func(o *apiOptions) {
		o.userAgent = userAgent
	}
}

// WithTimeout sets the request timeout of the default session.
func WithTimeout(timeout time.Duration) Option {
	return func(o *apiOptions) {
		o.timeout = timeout
	}
}

// WithRetryConfig enables retries on the default session.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(o *apiOptions) {
		o.retry = true
		o.retryMax = retryMax
		o.retryMin = waitMin
		o.retryWait = waitMax
	}
}

// New returns the root Resource of the API at baseURL.
func New(baseURL string, opts ...Option) (*Resource, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	options := &apiOptions{appendSlash: true}
	for _, opt := range opts {
		opt(options)
	}

	if options.serializers == nil {
		options.serializers = DefaultSerializers()
	}

	client := options.client
	if client == nil {
		client = internalhttp.NewSession(options.sessionOptions()...)
	}

	if options.auth != nil {
		client = WithBearerAuth(client, options.auth)
	}

	store, err := NewStore(baseURL, client, options.serializers)
	if err != nil {
		return nil, err
	}

	store = store.WithAppendSlash(options.appendSlash).WithRaw(options.raw)

	return NewResource(store), nil
}

func (o *apiOptions) sessionOptions() []internalhttp.Option {
	opts := []internalhttp.Option{internalhttp.WithDebug(o.debug)}

	if o.logger != nil {
		opts = append(opts, internalhttp.WithLogger(o.logger))
	}

	if o.userAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(o.userAgent))
	}

	if o.timeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(o.timeout))
	}

	if o.retry {
		opts = append(opts, internalhttp.WithRetryConfig(o.retryMax, o.retryMin, o.retryWait))
	}

	return opts
}

// DefaultSession returns a client configured like the one New uses when
// none is supplied.
func DefaultSession() *http.Client {
	return internalhttp.NewSession()
}
