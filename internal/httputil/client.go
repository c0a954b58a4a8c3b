package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// NewClient returns the HTTP client used for delimited-source downloads.
// Meter gateways can be slow to stream a full snapshot, so the timeout
// covers the whole response body, not just the headers.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}
