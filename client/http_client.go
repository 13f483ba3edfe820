package client

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/famomatic/nicov1/internal/session"
)

// buildHTTPClient returns the HTTP client all requests go through. The
// managed jar is always installed so login, guest seeding and cookie
// persistence see the same cookies the transport sends.
func buildHTTPClient(cfg Config, jar *session.Jar) *http.Client {
	if cfg.HTTPClient != nil {
		c := *cfg.HTTPClient
		c.Jar = jar
		return &c
	}
	c := &http.Client{Jar: jar}
	if transport := proxyTransport(cfg.ProxyURL); transport != nil {
		c.Transport = transport
	}
	return c
}

func proxyTransport(proxyURL string) *http.Transport {
	if strings.TrimSpace(proxyURL) == "" {
		return nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil
	}
	transport := baseTransport.Clone()
	transport.Proxy = http.ProxyURL(parsed)
	return transport
}
