package messaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// maxErrorBody limits how much of an error response is quoted in errors.
const maxErrorBody = 512

// HTTPProducer exchanges requests with a service over HTTP as JSON.
//
// A request is POSTed to <endpoint>/<service>/<action>. The response body is
// {"results": [{...}, ...]}; any non-2xx status is a transport error.
type HTTPProducer struct {
	endpoint string
	client   *http.Client
	header   http.Header
}

// HTTPOption configures an HTTPProducer.
type HTTPOption func(*HTTPProducer)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProducer) { p.client = c }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(p *HTTPProducer) { p.header.Add(key, value) }
}

// NewHTTPProducer creates a producer for endpoint.
func NewHTTPProducer(endpoint string, opts ...HTTPOption) *HTTPProducer {
	p := &HTTPProducer{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   http.DefaultClient,
		header:   http.Header{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// HTTPFactory returns a pool Factory creating HTTP producers for endpoint.
func HTTPFactory(endpoint string, opts ...HTTPOption) Factory {
	return func() (Producer, error) {
		if endpoint == "" {
			return nil, fmt.Errorf("endpoint is required")
		}
		return NewHTTPProducer(endpoint, opts...), nil
	}
}

type responseEnvelope struct {
	Results []Object `json:"results"`
}

// Exchange implements Producer.
func (p *HTTPProducer) Exchange(ctx context.Context, req Request) ([]Object, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", p.endpoint, req.Service, req.Action)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.CorrelationID != "" {
		httpReq.Header.Set("X-Correlation-ID", req.CorrelationID)
	}
	for k, vs := range p.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(data)
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(excerpt))
	}

	var env responseEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return env.Results, nil
}

// Close implements Producer.
func (p *HTTPProducer) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
