// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across pipeline stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// StatusError reports a non-2xx response after retries were exhausted.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Get issues a GET for url and retries on any transport error or non-2xx
// status, up to maxRetries attempts with a fixed delay between them.
// Each attempt runs under its own deadline of timeout (no deadline when
// timeout is zero), so a stalled attempt is retried like any other
// transport failure instead of burning the whole budget. The caller owns
// the returned body; closing it releases the attempt's deadline.
//
// When maxRetries or delay are zero the defaults (3 attempts, 2 s) are
// used. Between attempts the response body, if any, is drained and
// closed. If ctx is cancelled during a wait the function returns
// ctx.Err(). After the final attempt the last error is returned.
func Get(ctx context.Context, client *http.Client, url, userAgent string, maxRetries int, delay, timeout time.Duration) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := attemptGet(ctx, client, req, timeout)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// attemptGet runs one attempt under its own deadline. On success the
// deadline stays armed until the returned body is closed; on failure it
// is released before returning.
func attemptGet(ctx context.Context, client *http.Client, req *http.Request, timeout time.Duration) (*http.Response, error) {
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	resp, err := client.Do(req.Clone(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		cancel()
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	resp.Body = &deadlineBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// deadlineBody ties an attempt's deadline to the response body lifetime.
type deadlineBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *deadlineBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
