package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
	"golang.org/x/time/rate"

	"github.com/brenthale/elassandra/internal/core/domain"
	"github.com/brenthale/elassandra/internal/core/ports"
)

const (
	DefaultSniffInterval = 5 * time.Minute
	DefaultSniffEndpoint = "/_nodes/http"

	// Failure-triggered sniffs are paced so a flapping node cannot turn
	// the sniffer into a request storm.
	minSniffSpacing = 10 * time.Second
)

type Config struct {
	Scheme   string
	Interval time.Duration
}

// NodesSniffer refreshes the pool's node set from the cluster's own
// view of itself. It rides the dispatcher for the fetch, so discovery
// gets the same failover behaviour as any other request.
type NodesSniffer struct {
	requester ports.Requester
	pool      ports.NodePool
	logger    *slog.Logger
	limiter   *rate.Limiter
	notifyCh  chan struct{}
	scheme    string
	interval  time.Duration
}

func NewNodesSniffer(requester ports.Requester, nodePool ports.NodePool, logger *slog.Logger, cfg Config) (*NodesSniffer, error) {
	if requester == nil {
		return nil, &domain.ConfigValidationError{Field: "sniffer.requester", Value: nil, Reason: "requester is required"}
	}
	if nodePool == nil {
		return nil, &domain.ConfigValidationError{Field: "sniffer.pool", Value: nil, Reason: "node pool is required"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = domain.DefaultScheme
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSniffInterval
	}

	return &NodesSniffer{
		requester: requester,
		pool:      nodePool,
		logger:    logger,
		scheme:    scheme,
		interval:  interval,
		limiter:   rate.NewLimiter(rate.Every(minSniffSpacing), 1),
		notifyCh:  make(chan struct{}, 1),
	}, nil
}

// Run sniffs on the configured interval and whenever Notify fires,
// until ctx is cancelled.
func (s *NodesSniffer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.notifyCh:
		}

		if !s.limiter.Allow() {
			continue
		}
		if err := s.Sniff(ctx); err != nil {
			s.logger.Warn("node discovery failed", "error", err)
		}
	}
}

// Notify requests an out-of-band sniff, typically from the dispatcher's
// failure hook. Never blocks; coalesces with a pending notification.
func (s *NodesSniffer) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Sniff fetches the cluster's HTTP-exposed nodes and swaps the result
// into the pool. Health state for surviving nodes is preserved by the
// pool; an empty result is discarded.
func (s *NodesSniffer) Sniff(ctx context.Context) error {
	resp, err := s.requester.PerformRequest(ctx, "GET", DefaultSniffEndpoint, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload nodesInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding nodes info: %w", err)
	}

	nodes := make([]*domain.Node, 0, len(payload.Nodes))
	for id, info := range payload.Nodes {
		if info.HTTP == nil || info.HTTP.PublishAddress == "" {
			continue
		}
		address, err := parsePublishAddress(info.HTTP.PublishAddress)
		if err != nil {
			s.logger.Warn("skipping node with unusable publish address",
				"node_id", id,
				"publish_address", info.HTTP.PublishAddress,
				"error", err)
			continue
		}
		node, err := domain.NewNode(s.scheme + "://" + address)
		if err != nil {
			s.logger.Warn("skipping unparseable node address", "node_id", id, "error", err)
			continue
		}
		node.Name = info.Name
		nodes = append(nodes, node)
	}

	if len(nodes) == 0 {
		return fmt.Errorf("cluster reported no HTTP-exposed nodes")
	}

	if err := s.pool.UpdateNodes(nodes); err != nil {
		return err
	}
	s.logger.Debug("node discovery complete", "cluster", payload.ClusterName, "nodes", len(nodes))
	return nil
}

type nodesInfoResponse struct {
	Nodes       map[string]nodeInfo `json:"nodes"`
	ClusterName string              `json:"cluster_name"`
}

type nodeInfo struct {
	HTTP *nodeHTTPInfo `json:"http"`
	Name string        `json:"name"`
}

type nodeHTTPInfo struct {
	PublishAddress string `json:"publish_address"`
}

// parsePublishAddress normalises the publish address forms the backend
// family has used over time: "1.2.3.4:9200", "hostname/1.2.3.4:9200"
// and the legacy "inet[/1.2.3.4:9200]".
func parsePublishAddress(address string) (string, error) {
	address = strings.TrimPrefix(address, "inet[")
	address = strings.TrimSuffix(address, "]")

	if idx := strings.IndexByte(address, '/'); idx >= 0 {
		host := address[:idx]
		rest := address[idx+1:]
		colon := strings.LastIndexByte(rest, ':')
		if colon < 0 {
			return "", fmt.Errorf("publish address %q has no port", address)
		}
		if host == "" {
			// Legacy form carries only the socket address.
			return rest, nil
		}
		return host + rest[colon:], nil
	}

	if !strings.ContainsRune(address, ':') {
		return "", fmt.Errorf("publish address %q has no port", address)
	}
	return address, nil
}
