package source

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gridsink/meterflow/internal/httputil"
)

// HTTP downloads the snapshot from a URL. Rate limiting and server errors
// are retried; missing resources and client errors are permanent.
type HTTP struct {
	URL    string
	client *http.Client
}

func NewHTTP(url string) *HTTP {
	return &HTTP{
		URL:    url,
		client: httputil.NewClient(0),
	}
}

func (h *HTTP) Open() (io.ReadCloser, error) {
	var body []byte
	operation := func() error {
		resp, err := h.client.Get(h.URL)
		if err != nil {
			return fmt.Errorf("fetch snapshot: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			return backoff.Permanent(fmt.Errorf("fetch snapshot: status %d: %w", resp.StatusCode, fs.ErrNotExist))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("fetch snapshot: status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch snapshot: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (h *HTTP) String() string {
	return h.URL
}
