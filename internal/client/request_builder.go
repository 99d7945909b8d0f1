package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/brenthale/elassandra/internal/core/domain"
)

// BuildRequest translates (method, endpoint, params, body) into the
// immutable request value the transport consumes. Pure; every failure
// here surfaces before any network attempt.
func BuildRequest(method, endpoint string, params map[string]string, body []byte) (*domain.Request, error) {
	m, err := domain.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if len(body) > 0 && !m.AllowsBody() {
		return nil, &domain.UnsupportedOperationError{
			Operation: fmt.Sprintf("%s request with a body", m),
		}
	}

	path, err := BuildURI(endpoint, params)
	if err != nil {
		return nil, err
	}

	return &domain.Request{
		Method: m,
		Path:   path,
		Body:   body,
	}, nil
}

// BuildURI appends params to endpoint's query string and returns the
// host-relative URI. Endpoints must be host-relative; the dispatcher,
// not the caller, decides which node serves the request. Parameter keys
// are appended in sorted order so the rendered URI is deterministic.
func BuildURI(endpoint string, params map[string]string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", &domain.InvalidURIError{Endpoint: endpoint, Err: err}
	}
	if u.IsAbs() || u.Host != "" {
		return "", &domain.InvalidURIError{Endpoint: endpoint, Err: errors.New("endpoint must be host-relative")}
	}

	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}

	if len(params) > 0 {
		q := u.Query()
		for key, value := range params {
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
