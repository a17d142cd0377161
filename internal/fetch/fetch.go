// Package fetch downloads images referenced by URL on behalf of the add,
// search and compare operations.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/drforse/match/internal/errors"
	"github.com/drforse/match/internal/metrics"
)

// Client downloads image bytes with a bounded timeout and response size.
type Client struct {
	hc       *http.Client
	maxBytes int64
	retry    RetryPolicy
}

// New returns a client that gives up after timeout and refuses bodies larger
// than maxBytes. A non-positive maxBytes disables the size cap. Transport
// errors and 5xx responses are retried with backoff.
func New(timeout time.Duration, maxBytes int64) *Client {
	return &Client{
		hc:       &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		retry:    DefaultRetryPolicy(),
	}
}

// Get downloads the content at url.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeInvalidInput, "fetch", fmt.Sprintf("invalid image url %q", url))
	}

	var body []byte
	transient := false
	attempt := func() error {
		body = nil
		transient = false

		resp, err := c.hc.Do(req)
		if err != nil {
			metrics.ImageFetchesTotal.WithLabelValues("error").Inc()
			transient = true
			return errors.Wrap(err, errors.TypeNetwork, "fetch", fmt.Sprintf("downloading %q", url))
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			metrics.ImageFetchesTotal.WithLabelValues("error").Inc()
			transient = resp.StatusCode >= 500
			return errors.New(errors.TypeNetwork, "fetch",
				fmt.Sprintf("downloading %q: unexpected status %d", url, resp.StatusCode))
		}

		reader := io.Reader(resp.Body)
		if c.maxBytes > 0 {
			reader = io.LimitReader(resp.Body, c.maxBytes+1)
		}
		body, err = io.ReadAll(reader)
		if err != nil {
			metrics.ImageFetchesTotal.WithLabelValues("error").Inc()
			transient = true
			return errors.Wrap(err, errors.TypeNetwork, "fetch", fmt.Sprintf("reading %q", url))
		}
		if c.maxBytes > 0 && int64(len(body)) > c.maxBytes {
			metrics.ImageFetchesTotal.WithLabelValues("too_large").Inc()
			return errors.New(errors.TypeInvalidInput, "fetch",
				fmt.Sprintf("image at %q exceeds %d bytes", url, c.maxBytes))
		}

		metrics.ImageFetchesTotal.WithLabelValues("ok").Inc()
		return nil
	}

	if err := c.retry.do(ctx, attempt, func(error) bool { return transient }); err != nil {
		return nil, err
	}
	return body, nil
}
