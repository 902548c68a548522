package ledgerrpc

import (
	"net/http"
	"time"
)

// Options holds client configuration.
type Options struct {
	// HTTPClient performs the underlying requests.
	HTTPClient *http.Client

	// RPCTimeout applies per call when the context has no deadline.
	// 0 disables the default timeout.
	RPCTimeout time.Duration

	// Headers are added to every upstream request.
	Headers http.Header
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		HTTPClient: &http.Client{},
		RPCTimeout: 3 * time.Second,
		Headers:    http.Header{},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *Options) { o.HTTPClient = hc }
}

// WithRPCTimeout sets the default per-call timeout.
func WithRPCTimeout(d time.Duration) Option {
	return func(o *Options) { o.RPCTimeout = d }
}

// WithHeader adds a header to every upstream request.
func WithHeader(key, value string) Option {
	return func(o *Options) { o.Headers.Add(key, value) }
}
