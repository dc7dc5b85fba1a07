// Package http builds the default HTTP session used by resources and token
// connections.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/fivetwenty-io/kcadmin/internal/constants"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger interface for logging. It matches rest.Logger.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type sessionConfig struct {
	logger       Logger
	debug        bool
	userAgent    string
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	transport    stdhttp.RoundTripper
}

// Option configures a session.
type Option func(*sessionConfig)

// WithLogger sets the logger used for debug output.
func WithLogger(logger Logger) Option {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *sessionConfig) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *sessionConfig) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the overall request timeout, retries included.
func WithTimeout(timeout time.Duration) Option {
	return func(c *sessionConfig) {
		c.timeout = timeout
	}
}

// WithRetryConfig enables retries of connection errors, 429 and 5xx
// responses. Retries are off by default.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *sessionConfig) {
		c.retryMax = retryMax
		c.retryWaitMin = waitMin
		c.retryWaitMax = waitMax
	}
}

// WithTransport replaces the pooled transport under the retry layer.
func WithTransport(transport stdhttp.RoundTripper) Option {
	return func(c *sessionConfig) {
		c.transport = transport
	}
}

// NewSession creates an *http.Client backed by go-retryablehttp.
//
// Non-2xx responses are always handed back to the caller untouched, even
// after the retry budget is spent, so status classification stays with the
// caller.
func NewSession(opts ...Option) *stdhttp.Client {
	cfg := &sessionConfig{
		userAgent:    constants.DefaultUserAgent,
		timeout:      constants.DefaultHTTPTimeout,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.retryMax
	retryClient.RetryWaitMin = cfg.retryWaitMin
	retryClient.RetryWaitMax = cfg.retryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if cfg.transport != nil {
		retryClient.HTTPClient = &stdhttp.Client{Transport: cfg.transport}
	}

	var transport stdhttp.RoundTripper = &retryablehttp.RoundTripper{Client: retryClient}

	if cfg.debug && cfg.logger != nil {
		transport = &loggingTransport{base: transport, logger: cfg.logger}
	}

	if cfg.userAgent != "" {
		transport = &userAgentTransport{base: transport, userAgent: cfg.userAgent}
	}

	return &stdhttp.Client{
		Transport: transport,
		Timeout:   cfg.timeout,
	}
}

type userAgentTransport struct {
	base      stdhttp.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *stdhttp.Request) (*stdhttp.Response, error) {
	if req.Header.Get(constants.HeaderUserAgent) != "" {
		return t.base.RoundTrip(req)
	}

	withAgent := req.Clone(req.Context())
	withAgent.Header.Set(constants.HeaderUserAgent, t.userAgent)

	return t.base.RoundTrip(withAgent)
}

type loggingTransport struct {
	base   stdhttp.RoundTripper
	logger Logger
}

func (t *loggingTransport) RoundTrip(req *stdhttp.Request) (*stdhttp.Response, error) {
	t.logger.Debug("HTTP Request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	start := time.Now()

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Error("HTTP Request failed", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL.String(),
			"error":  err.Error(),
		})

		return nil, err
	}

	t.logger.Debug("HTTP Response", map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	return resp, nil
}
