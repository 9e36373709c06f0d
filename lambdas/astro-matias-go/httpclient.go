package main

import (
	"crypto/tls"
	"net/http"
	"time"
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// loggingHTTPClient wraps an HTTP client and records how long each call took.
// It never retries: a failed webhook call is reported once.
type loggingHTTPClient struct {
	client *http.Client
	logger *Logger
}

// Do executes the HTTP request once.
func (c *loggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if c.logger != nil {
		if err != nil {
			c.logger.Debugf("%s %s failed after %v", req.Method, req.URL.Redacted(), time.Since(start))
		} else {
			c.logger.Debugf("%s %s returned %d after %v", req.Method, req.URL.Redacted(), resp.StatusCode, time.Since(start))
		}
	}
	return resp, err
}

// ClientOption is a function that configures a loggingHTTPClient.
type ClientOption func(*loggingHTTPClient)

// WithLogger returns a ClientOption that sets the logger for the client.
func WithLogger(logger *Logger) ClientOption {
	return func(client *loggingHTTPClient) {
		client.logger = logger
	}
}

// WithTimeout returns a ClientOption that sets the overall request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *loggingHTTPClient) {
		client.client.Timeout = timeout
	}
}

// WithTLSConfig returns a ClientOption that replaces the transport's TLS configuration.
func WithTLSConfig(tlsConfig *tls.Config) ClientOption {
	return func(client *loggingHTTPClient) {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		client.client.Transport = transport
	}
}

// NewHTTPClient creates a new HTTP client. The default timeout matches the webhook timeout.
// Options can be provided to configure the client:
//
//	NewHTTPClient(WithLogger(logger), WithTimeout(5*time.Second))
func NewHTTPClient(opts ...ClientOption) HTTPClient {
	client := &loggingHTTPClient{
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}
