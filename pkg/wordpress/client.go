package wordpress

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "wparchive/pkg/errors"
	"wparchive/pkg/logger"
)

// ClientOptions configures the HTTP fetch primitive.
type ClientOptions struct {
	Timeout   time.Duration
	VerifyTLS bool
	UserAgent string
}

// Client performs single GET requests against a WordPress site. It carries no
// retry policy; retries are the caller's responsibility.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	log        logger.Logger
}

// Response is a completed GET, whatever its status code.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewClient creates a client with the given timeout and TLS-verification
// toggle. The timeout covers the full request including body streaming.
func NewClient(opts ClientOptions, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !opts.VerifyTLS}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		headers: map[string]string{
			"User-Agent": opts.UserAgent,
		},
		log: log,
	}
}

// SetHeader sets a custom header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Get performs a GET request and reads the full body. Transport failures are
// returned as typed errors; any HTTP status is returned to the caller in the
// Response.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.NewNetwork(url, fmt.Sprintf("failed to create request: %v", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError(ctx, url, err)
	}

	c.log.DebugWithFields("GET completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	})

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// GetJSON performs a GET, requires HTTP 200, and decodes the body into
// target. Non-200 statuses and malformed bodies come back as typed errors.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return errs.NewAPI(url, resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(resp.Body, target); err != nil {
		return errs.NewParsing(url, fmt.Sprintf("failed to parse JSON: %v", err))
	}

	return nil
}

// Download streams the response body to w. Used for media files, where the
// body should not be buffered whole in memory.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.NewDownload(url, fmt.Sprintf("failed to create request: %v", err))
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errs.NewDownload(url, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return c.classifyTransportError(ctx, url, err)
	}

	return nil
}

// classifyTransportError maps a transport failure to the error taxonomy: TLS
// verification failures are distinct so callers can suggest disabling
// verification, and cancellation is distinct from genuine failures.
func (c *Client) classifyTransportError(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return errs.NewCancelled("request to " + url)
	}

	if isTLSVerificationError(err) {
		return errs.NewTLSVerification(url, err.Error())
	}

	return errs.NewNetwork(url, err.Error())
}

func isTLSVerificationError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}

	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid)
}
