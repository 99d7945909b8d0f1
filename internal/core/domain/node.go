package domain

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultScheme = "http"
	DefaultPort   = "9200"
)

// Node is an addressable backend host (scheme, host, port). Immutable
// once built; identity is the normalised URL string.
type Node struct {
	URL       *url.URL
	Name      string
	URLString string
}

// NewNode parses raw into a Node. Bare host[:port] forms are accepted
// and get the default scheme; a missing port gets the default port.
func NewNode(raw string) (*Node, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("node address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid node address %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("node address %q has no host", raw)
	}
	if u.Port() == "" {
		u.Host = u.Host + ":" + DefaultPort
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return &Node{
		URL:       u,
		URLString: u.String(),
	}, nil
}

func (n *Node) String() string {
	return n.URLString
}

// Equal compares nodes by normalised URL.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.URLString == other.URLString
}
