package httpclient

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	MaxIdleConnsPerHost    = 4

	// UserAgent is sent on manifest checks. Some CDN edges reject Go's default agent.
	UserAgent = "ytlive-m3u/1.0 (+https://github.com/snapetech/ytlive-m3u)"
)

var defaultClient = &http.Client{
	Timeout: DefaultTimeout,
	Transport: &userAgentTransport{
		base: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: MaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		},
	},
}

// Default returns the shared client used for manifest checks.
func Default() *http.Client {
	return defaultClient
}

// WithTimeout returns a client with the given timeout sharing Default's transport settings.
func WithTimeout(timeout time.Duration) *http.Client {
	t, ok := defaultClient.Transport.(*userAgentTransport)
	if !ok {
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: t.base.Clone()},
	}
}

// userAgentTransport sets UserAgent on requests that carry none.
type userAgentTransport struct {
	base *http.Transport
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(r)
}
