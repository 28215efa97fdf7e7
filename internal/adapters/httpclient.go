package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

var errUpstreamUnavailable = errors.New("upstream returned a retryable status")
var errUpstreamRejected = errors.New("upstream rejected the request")

// Client wraps an *http.Client with the retry and rate-limit policy shared
// by both downstream adapters: retry only on Transport and
// HttpStatus∈{502,503,504}, up to 3 attempts, jittered exponential backoff
// (spec.md §4.3). Grounded on the teacher's retry-with-backoff loop in
// internal/llm/openai/client.go, replaced here with a library-backed policy
// per SPEC_FULL.md's domain-stack expansion.
type Client struct {
	HTTP    *http.Client
	Limiter *rate.Limiter // nil disables rate limiting
	Op      string        // label used in wrapped errors, e.g. "analysis.summary"
}

// NewClient builds a Client with the given timeout and an optional
// requests-per-second limiter (0 disables limiting).
func NewClient(timeout time.Duration, rps float64, op string) *Client {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Limiter: limiter,
		Op:      op,
	}
}

// Do executes req with up to 3 attempts, retrying Transport errors and
// 502/503/504 responses with jittered exponential backoff. The caller's
// context bounds the whole retry sequence, not just one attempt.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindForContext(ctx), Op: c.Op, Err: err}
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0 // bounded by attempt count below, not elapsed time
	bo := backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx) // 3 total attempts

	var resp *http.Response
	var bodyCopy []byte
	operation := func() error {
		clone := req.Clone(ctx)
		if bodyCopy != nil {
			clone.Body = io.NopCloser(bytes.NewReader(bodyCopy))
		}

		r, err := c.HTTP.Do(clone)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(&Error{Kind: KindForContext(ctx), Op: c.Op, Err: ctx.Err()})
			}
			return &Error{Kind: KindTransport, Op: c.Op, Err: err}
		}
		if r.StatusCode >= 500 {
			switch r.StatusCode {
			case 502, 503, 504:
				r.Body.Close()
				return &Error{Kind: KindHTTPStatus, StatusCode: r.StatusCode, Op: c.Op, Err: errUpstreamUnavailable}
			}
		}
		if r.StatusCode >= 400 {
			err := &Error{Kind: KindHTTPStatus, StatusCode: r.StatusCode, Op: c.Op, Err: errUpstreamRejected}
			r.Body.Close()
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}

	if req.Body != nil && req.GetBody != nil {
		if b, err := req.GetBody(); err == nil {
			bodyCopy, _ = io.ReadAll(b)
			b.Close()
		}
	}

	if err := backoff.RetryNotify(operation, bo, func(err error, wait time.Duration) {
		log.Printf("[adapters] %s: retrying after %v: %v", c.Op, wait, err)
	}); err != nil {
		if adapterErr, ok := err.(*Error); ok {
			return nil, adapterErr
		}
		return nil, &Error{Kind: KindTransport, Op: c.Op, Err: err}
	}
	return resp, nil
}
