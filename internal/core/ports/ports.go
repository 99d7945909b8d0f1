package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/brenthale/elassandra/internal/core/domain"
)

// Transport executes one request against one node. Implementations own
// connection establishment, TLS and socket I/O; the dispatcher owns
// node selection and retries.
type Transport interface {
	Execute(ctx context.Context, node *domain.Node, req *domain.Request) (*http.Response, error)
	Close() error
}

// NodePool tracks per-node health and hands out the order in which
// nodes should be tried for the next request.
type NodePool interface {
	// Next returns the connections to try, alive ones first in a
	// rotated order, then any dead connection whose backoff window has
	// elapsed. May be empty when every node is dead and cooling off.
	Next() []*domain.Connection
	// LastResort returns some connection regardless of state, used to
	// probe when Next is empty.
	LastResort() *domain.Connection
	MarkSuccess(conn *domain.Connection)
	MarkFailure(conn *domain.Connection)
	// UpdateNodes replaces the node set, preserving health state for
	// nodes that survive the swap. An empty set is rejected.
	UpdateNodes(nodes []*domain.Node) error
	Nodes() []*domain.Connection
	Close() error
}

// StatsCollector records per-node dispatch outcomes.
type StatsCollector interface {
	RecordSuccess(nodeURL string, statusCode int, latency time.Duration)
	RecordFailure(nodeURL string, latency time.Duration, err error)
}

// Requester is the slice of the dispatcher that collaborators such as
// the nodes sniffer need.
type Requester interface {
	PerformRequest(ctx context.Context, method, endpoint string, params map[string]string, body []byte) (*http.Response, error)
}
