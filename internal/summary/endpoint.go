package summary

import (
	"net"
	"strings"
)

// Fixed paths on the proxy, relative to the endpoint base.
const (
	APIPrefix     = "/api"
	SummariesPath = "/utils/summaries"
	HealthPath    = "/utils/health"
)

// Endpoint is the proxy location, derived once from the configured proxy
// hostname and the host the dashboard runs on. It is a value; nothing
// recomputes it after construction.
type Endpoint struct {
	scheme string
	host   string
}

// NewEndpoint builds the endpoint for proxyHostname under the domain of
// pageHost. The domain is everything after the first "." of pageHost, so
// proxy "dash" with page host "ui.example.com" yields "dash.example.com".
// A page host without a dot is used whole. A port on pageHost is ignored.
// An empty scheme means "http".
func NewEndpoint(scheme, proxyHostname, pageHost string) Endpoint {
	if scheme == "" {
		scheme = "http"
	}
	return Endpoint{
		scheme: scheme,
		host:   proxyHostname + "." + DeriveDomain(pageHost),
	}
}

// DeriveDomain strips the leading label from host.
func DeriveDomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[i+1:]
	}
	return host
}

// Host returns the proxy host, e.g. "dash.example.com".
func (e Endpoint) Host() string { return e.host }

// Base returns the root URL of the proxy API, e.g. "http://dash.example.com/api".
func (e Endpoint) Base() string { return e.scheme + "://" + e.host + APIPrefix }

// SummariesURL returns the URL refreshes are fetched from.
func (e Endpoint) SummariesURL() string { return e.Base() + SummariesPath }

// HealthURL returns the proxy health check URL.
func (e Endpoint) HealthURL() string { return e.Base() + HealthPath }

func (e Endpoint) String() string { return e.Base() }
