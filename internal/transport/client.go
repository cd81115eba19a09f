// Package transport is the HTTP layer shared by every connector. It wraps a
// resty client with a request ceiling, bounded retries for transient
// failures, and the error taxonomy of pkg/errors.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/logging"
)

// DefaultUserAgent identifies permitmap to municipal portals.
const DefaultUserAgent = constants.AppName + "/1.0 (+https://github.com/agentstation/permitmap)"

// Options configures a Client.
type Options struct {
	// Timeout is the ceiling for a single attempt. The caller's context
	// deadline still applies across attempts.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryWait and RetryMaxWait bound the exponential backoff.
	RetryWait    time.Duration
	RetryMaxWait time.Duration

	UserAgent string

	// HTTPClient replaces the underlying http.Client, mainly for tests.
	HTTPClient *http.Client

	Logger *zerolog.Logger
}

// Client performs GET requests against one municipal endpoint.
type Client struct {
	rc     *resty.Client
	city   string
	auth   Authenticator
	secret string
}

// New creates a transport client for the given city.
func New(city string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultHTTPTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = constants.RetryBackoff
	}
	if opts.RetryMaxWait <= 0 {
		opts.RetryMaxWait = constants.MaxRetryBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries > constants.MaxRetries {
		opts.MaxRetries = constants.MaxRetries
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	rc := resty.New()
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	}
	rc.SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		AddRetryCondition(shouldRetry).
		SetResponseBodyLimit(constants.MaxResponseBytes).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		SetLogger(restyLogger{logger: opts.Logger})

	return &Client{
		rc:   rc,
		city: city,
		auth: &NoAuth{},
	}
}

// WithAuth returns a copy of the client that applies secret through auth.
func (c *Client) WithAuth(auth Authenticator, secret string) *Client {
	cp := *c
	cp.auth = auth
	cp.secret = secret
	return &cp
}

// Get requests rawURL with the given query parameters and returns the body
// of a 2xx response. Any other outcome is a NetworkError or TimeoutError.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	req := c.rc.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParamsFromValues(params)
	}
	if c.auth != nil {
		c.auth.Apply(req, c.secret)
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, errors.NewTimeoutError("fetch "+c.city, "", ctxErr.Error())
			}
			return nil, errors.WrapNetwork(c.city, rawURL, ctxErr)
		}
		return nil, errors.WrapNetwork(c.city, rawURL, err)
	}

	if !isSuccess(resp.StatusCode()) {
		return nil, &errors.NetworkError{
			City:       c.city,
			Endpoint:   rawURL,
			StatusCode: resp.StatusCode(),
			Message:    snippet(resp.Body()),
		}
	}

	return resp.Body(), nil
}

// shouldRetry retries transport failures, 429 and 5xx. Context errors are
// never retried.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// snippet shortens an error body for messages.
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	if len(body) == 0 {
		return "empty response"
	}
	return string(body)
}
