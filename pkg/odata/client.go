package odata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/operion-odata/pkg/otelhelper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultTimeout = 30 * time.Second

// Authenticator attaches credentials to an outbound request.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// Client performs OData requests. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient returns a Client with an instrumented transport.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do validates desc, performs the request and classifies the response.
// The returned error is non-nil only for a *ValidationError, in which case nothing was sent.
func (c *Client) Do(ctx context.Context, desc RequestDescription, auth Authenticator) (Result, error) {
	ctx, span := otelhelper.StartSpan(ctx, otel.Tracer(otelhelper.TracerName), "odata.request",
		attribute.String(otelhelper.ODataMethodKey, string(desc.Method)),
		attribute.String(otelhelper.ODataRequestTypeKey, string(desc.RequestType)),
	)
	defer span.End()

	req, err := NewHTTPRequest(ctx, desc)
	if err != nil {
		otelhelper.SetError(span, err)

		return Result{}, err
	}

	url := req.URL.String()
	span.SetAttributes(attribute.String(otelhelper.ODataURLKey, url))

	if auth != nil {
		if err := auth.Apply(ctx, req); err != nil {
			terr := &TransportError{Reason: fmt.Sprintf("failed to apply credentials: %v", err), Err: err}
			otelhelper.SetError(span, terr)

			return transportFailureResult(url, terr), nil
		}
	}

	c.logger.DebugContext(ctx, "Sending OData request", "method", desc.Method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{Reason: fmt.Sprintf("request failed: %v", err), Err: err}
		otelhelper.SetError(span, terr)

		return transportFailureResult(url, terr), nil
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WarnContext(ctx, "Failed to close response body", "error", err)
		}
	}()

	span.SetAttributes(attribute.Int(otelhelper.ODataStatusCodeKey, resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{StatusCode: resp.StatusCode, Reason: fmt.Sprintf("failed to read response: %v", err), Err: err}
		otelhelper.SetError(span, terr)

		return transportFailureResult(url, terr), nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		terr := &TransportError{StatusCode: resp.StatusCode, Reason: string(raw)}
		otelhelper.SetError(span, terr)

		return transportFailureResult(url, terr), nil
	}

	return decode(url, resp.StatusCode, raw), nil
}

// decode never fails: a body that is not JSON becomes a ResultFormatError.
func decode(url string, status int, raw []byte) Result {
	if len(bytes.TrimSpace(raw)) == 0 {
		return okResult(url, status, nil)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return formatErrorResult(url, status, string(raw), err)
	}

	return okResult(url, status, value)
}
