package transport

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/brenthale/elassandra/internal/core/domain"
	"github.com/brenthale/elassandra/internal/version"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxIdlePerHost = 10

	HeaderUserAgent   = "User-Agent"
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"

	contentTypeJSON = "application/json"
)

// HTTPClient is the slice of http.Client the transport needs, kept as
// an interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
}

// HTTPTransport resolves host-relative requests against a node and
// executes them over net/http. It holds no health state; outcomes are
// the dispatcher's to interpret.
type HTTPTransport struct {
	client    HTTPClient
	userAgent string
}

func NewHTTPTransport(requestTimeout time.Duration) *HTTPTransport {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &HTTPTransport{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: DefaultMaxIdlePerHost,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: fmt.Sprintf("elassandra-go/%s", version.Version),
	}
}

// NewHTTPTransportWithClient is used by tests and callers that need a
// custom client (proxies, TLS material).
func NewHTTPTransportWithClient(client HTTPClient) *HTTPTransport {
	return &HTTPTransport{
		client:    client,
		userAgent: fmt.Sprintf("elassandra-go/%s", version.Version),
	}
}

// Execute issues req against node. The http.Request is rebuilt from the
// immutable domain.Request on every call, so reissuing the same request
// against another node needs no reset step.
func (t *HTTPTransport) Execute(ctx context.Context, node *domain.Node, req *domain.Request) (*http.Response, error) {
	ref, err := url.Parse(req.Path)
	if err != nil {
		return nil, &domain.InvalidURIError{Endpoint: req.Path, Err: err}
	}
	target := node.URL.ResolveReference(ref)

	var body *bytes.Reader
	if req.HasBody() {
		body = bytes.NewReader(req.Body)
	}

	var httpReq *http.Request
	if body != nil {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method.String(), target.String(), body)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, req.Method.String(), target.String(), http.NoBody)
	}
	if err != nil {
		return nil, &domain.InvalidURIError{Endpoint: target.String(), Err: err}
	}

	t.injectDefaultHeaders(httpReq, req.HasBody())
	return t.client.Do(httpReq)
}

func (t *HTTPTransport) injectDefaultHeaders(req *http.Request, hasBody bool) {
	req.Header.Set(HeaderUserAgent, t.userAgent)
	req.Header.Set(HeaderAccept, contentTypeJSON)
	if hasBody {
		req.Header.Set(HeaderContentType, contentTypeJSON)
	}
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
