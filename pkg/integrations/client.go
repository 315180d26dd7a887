package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/httputil"
	"github.com/matzehuels/manifestcheck/pkg/observability"
)

// Validator checks a decoded JSON document before it is bound to a typed
// value. *jsonschema.Schema satisfies it.
type Validator interface {
	Validate(doc any) error
}

// Options configures a [Client].
type Options struct {
	Timeout      time.Duration   // Per-request timeout (default: 30s)
	UserAgent    string          // Sent on every request when set
	Retry        httputil.Policy // Retry policy for transient failures
	Logger       *log.Logger     // Receives retry notices (default: log.Default())
	MaxBodyBytes int64           // Response body cap (default: 128 MiB)
}

// Client provides shared HTTP functionality for registry API clients.
// It handles retry logic, response validation, and common request headers.
type Client struct {
	http    *http.Client
	headers map[string]string
	retry   httputil.Policy
	logger  *log.Logger
	maxBody int64
}

// NewClient creates a Client from opts. Headers are applied to all requests
// made through this client; pass nil if no default headers are needed.
func NewClient(opts Options, headers map[string]string) *Client {
	if opts.UserAgent != "" {
		h := make(map[string]string, len(headers)+1)
		for k, v := range headers {
			h[k] = v
		}
		h["User-Agent"] = opts.UserAgent
		headers = h
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Client{
		http:    NewHTTPClient(opts.Timeout),
		headers: headers,
		retry:   opts.Retry.WithDefaults(),
		logger:  logger,
		maxBody: maxBody,
	}
}

// Get performs an HTTP GET and JSON-decodes the response into v, retrying
// transient failures.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetValidated(ctx, rawURL, nil, v)
}

// GetValidated is like [Client.Get] but checks the decoded document against
// schema first. A body that is not valid JSON is transient and retried; a
// document that decodes but fails validation, or does not fit v, is returned
// immediately with code INVALID_MANIFEST. A body over the size cap fails
// without retry. Running out of attempts yields RETRIES_EXHAUSTED.
//
// With a nil schema the body is decoded once, straight into v.
func (c *Client) GetValidated(ctx context.Context, rawURL string, schema Validator, v any) error {
	host, path := splitURL(rawURL)
	notice := func(attempt int, delay time.Duration, err error) {
		observability.HTTP().OnRetry(ctx, host, path, attempt, err)
		c.logger.Warn("transient upstream failure, retrying",
			"url", rawURL, "attempt", attempt, "in", delay.Round(time.Millisecond), "err", err)
	}

	err := c.retry.Do(ctx, func() error { return c.getOnce(ctx, rawURL, schema, v) }, notice)

	var exhausted *httputil.ExhaustedError
	if errors.As(err, &exhausted) {
		return apperrors.Wrap(apperrors.ErrCodeRetriesExhausted, err, "fetch %s", rawURL)
	}
	return err
}

func (c *Client) getOnce(ctx context.Context, rawURL string, schema Validator, v any) error {
	body, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return httputil.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	if int64(len(data)) > c.maxBody {
		return apperrors.Wrap(apperrors.ErrCodeMalformedResponse,
			fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxBody), "read %s", rawURL)
	}

	if schema == nil {
		return decodeInto(rawURL, data, v)
	}
	var doc any
	if err := decodeInto(rawURL, data, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err, "unexpected document at %s", rawURL)
	}
	return decodeInto(rawURL, data, v)
}

// decodeInto separates bodies that are not JSON at all, which are retried,
// from JSON that does not fit v, which is not. json.Unmarshal checks syntax
// over the whole input before it binds any value.
func decodeInto(rawURL string, data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return httputil.Retryable(apperrors.Wrap(apperrors.ErrCodeMalformedResponse,
			fmt.Errorf("%w: %v", ErrMalformed, err), "decode %s", rawURL))
	}
	return apperrors.Wrap(apperrors.ErrCodeInvalidManifest, err, "decode %s", rawURL)
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	host, path := splitURL(rawURL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.EscapedPath()
}
