package httpclient

import (
	"net/http"
	"time"
)

// New returns a client for outbound API calls. The timeout must be longer
// than any long-poll made through the client.
func New(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 90 * time.Second

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
