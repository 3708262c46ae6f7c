package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/log"
	"github.com/casadocigano/fidelidade/internal/version"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// ResponseType hints how the caller intends to consume the body.
type ResponseType int

const (
	// JSON is the default; the request advertises application/json.
	JSON ResponseType = iota
	// Binary is used for file downloads such as the birthday spreadsheet.
	Binary
)

// Client is the Fidelidade REST API client.
//
// A Client is safe for concurrent use. The bearer token and the
// interceptor list may change while requests are in flight; each request
// snapshots them when it starts.
type Client struct {
	mu           sync.RWMutex
	baseURL      string
	token        string
	interceptors []ResponseInterceptor

	httpClient *http.Client
	userAgent  string
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithInterceptor registers a response interceptor at construction time.
func WithInterceptor(i ResponseInterceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, i) }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    normalizeBaseURL(baseURL),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// Configure sets the origin prepended to every request path.
func (c *Client) Configure(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = normalizeBaseURL(baseURL)
}

// BaseURL returns the configured origin.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetToken sets the bearer token sent with subsequent requests.
// An empty token stops sending the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// HasToken reports whether requests currently carry a bearer token.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Use appends a response interceptor.
func (c *Client) Use(i ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, i)
}

func (c *Client) getLogger() *log.Logger {
	if c.logger != nil {
		return c.logger
	}
	return log.DefaultLogger()
}

// Response is a fully read API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into target.
func (r *Response) Decode(target any) error {
	if target == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, target); err != nil {
		return errors.Wrap(errors.ErrCodeAPIDecode, "failed to decode response", err)
	}
	return nil
}

// Filename returns the filename from the Content-Disposition header, or fallback.
func (r *Response) Filename(fallback string) string {
	cd := r.Header.Get("Content-Disposition")
	if cd == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return fallback
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return fallback
}

type requestOptions struct {
	responseType ResponseType
	query        url.Values
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

// WithResponseType sets the response-type hint.
func WithResponseType(t ResponseType) RequestOption {
	return func(o *requestOptions) { o.responseType = t }
}

// WithQuery adds query parameters.
func WithQuery(q url.Values) RequestOption {
	return func(o *requestOptions) { o.query = q }
}

// Do issues a request and returns the read response.
//
// path must start with "/". body is JSON-encoded unless the method is GET
// or body is nil. Non-2xx statuses return *HTTPError and transport failures
// return *NetworkError. Interceptors observe the outcome before Do returns,
// so their side effects are complete when the caller sees the error.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	c.mu.RLock()
	baseURL := c.baseURL
	token := c.token
	interceptors := append([]ResponseInterceptor(nil), c.interceptors...)
	c.mu.RUnlock()

	var reqBody io.Reader
	if body != nil && method != http.MethodGet {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to marshal request body", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	target := baseURL + path
	if len(ro.query) > 0 {
		target += "?" + ro.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to create request", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("User-Agent", c.userAgent)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ro.responseType == Binary {
		req.Header.Set("Accept", "application/octet-stream, */*")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger := c.getLogger().WithContext(log.ContextWithRequestID(ctx, requestID))
	start := time.Now()

	ex := &Exchange{Client: c, Method: method, Path: path, RequestID: requestID}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ex.Err = &NetworkError{Method: method, URL: target, Err: err}
		logger.Debug("request failed", "method", method, "path", path, "error", err.Error())
		runInterceptors(ctx, interceptors, ex)
		return nil, ex.Err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		ex.Err = &NetworkError{Method: method, URL: target, Err: err}
		runInterceptors(ctx, interceptors, ex)
		return nil, ex.Err
	}

	ex.Response = &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}
	logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"latency", time.Since(start).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ex.Err = newHTTPError(method, path, resp.StatusCode, data)
	}

	runInterceptors(ctx, interceptors, ex)
	if ex.Err != nil {
		return nil, ex.Err
	}
	return ex.Response, nil
}

// get issues a GET and decodes the JSON response into target.
func (c *Client) get(ctx context.Context, path string, query url.Values, target any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, WithQuery(query))
	if err != nil {
		return err
	}
	return resp.Decode(target)
}

// send issues a request with a JSON body and decodes the JSON response into target.
func (c *Client) send(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	return resp.Decode(target)
}
