package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/brenthale/elassandra/internal/core/domain"
	"github.com/brenthale/elassandra/pkg/pool"
)

var traceBuffers = pool.NewLitePool(func() *bytes.Buffer {
	return &bytes.Buffer{}
})

// CurlRequest renders a request as a shell-replayable curl line:
//
//	curl -iX GET 'http://node:9200/_search?q=x' -d '{"query":...}'
//
// The request body is an in-memory buffer by construction, so rendering
// never consumes anything destined for the wire.
func CurlRequest(node *domain.Node, req *domain.Request) string {
	buf := traceBuffers.Get()
	defer traceBuffers.Put(buf)

	fmt.Fprintf(buf, "curl -iX %s '%s%s'", req.Method, node.URLString, req.Path)
	if req.HasBody() {
		fmt.Fprintf(buf, " -d '%s'", req.Body)
	}
	return buf.String()
}

// CurlResponse renders a response for trace logging: the status line,
// each header, a bare "#" separator and the body, every other line
// prefixed with "# ".
// The body is drained and replaced with an equivalent buffered copy, so
// the caller can still read it afterwards.
func CurlResponse(resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil {
		return "", err
	}
	if closeErr != nil {
		return "", closeErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	buf := traceBuffers.Get()
	defer traceBuffers.Put(buf)

	fmt.Fprintf(buf, "# %s %s", resp.Proto, resp.Status)
	for _, name := range headerNames(resp.Header) {
		for _, value := range resp.Header[name] {
			fmt.Fprintf(buf, "\n# %s: %s", name, value)
		}
	}
	buf.WriteString("\n#")
	if len(body) > 0 {
		for _, line := range strings.Split(strings.TrimSuffix(string(body), "\n"), "\n") {
			fmt.Fprintf(buf, "\n# %s", line)
		}
	}
	return buf.String(), nil
}

// http.Header loses wire order, so headers render in sorted order
// instead, which at least keeps the output stable.
func headerNames(h http.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
