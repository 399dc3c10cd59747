// Package http holds outbound HTTP helpers shared by the adapters that call
// third-party APIs.
package http

import (
	"net"
	"net/http"
	"time"
)

// UserAgent is sent on every outbound request that does not set its own.
const UserAgent = "mindflow-backend/1.0"

// NewHTTPClient returns a client for upstream APIs such as Gemini.
// http.DefaultClient has no timeout, so callers always go through here.
// A non-positive timeout falls back to 30s.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: t},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(r)
}
