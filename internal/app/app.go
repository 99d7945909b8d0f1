package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/brenthale/elassandra/internal/adapter/discovery"
	"github.com/brenthale/elassandra/internal/adapter/pool"
	"github.com/brenthale/elassandra/internal/adapter/stats"
	"github.com/brenthale/elassandra/internal/adapter/transport"
	"github.com/brenthale/elassandra/internal/client"
	"github.com/brenthale/elassandra/internal/config"
	"github.com/brenthale/elassandra/internal/core/domain"
	"github.com/brenthale/elassandra/internal/logger"
	"github.com/brenthale/elassandra/pkg/format"
)

// Application wires the dispatcher, pool, sniffer and stats together
// for the CLI.
type Application struct {
	config    *config.Config
	styled    *logger.StyledLogger
	plain     *slog.Logger
	pool      *pool.StaticPool
	transport *transport.HTTPTransport
	client    *client.RestClient
	sniffer   *discovery.NodesSniffer
	stats     *stats.Collector
}

// New creates a new application instance
func New(cfg *config.Config, styled *logger.StyledLogger) (*Application, error) {
	plain := styled.Plain()

	nodes, err := cfg.ClusterNodes()
	if err != nil {
		return nil, err
	}

	nodePool, err := pool.New(nodes, plain)
	if err != nil {
		return nil, err
	}

	a := &Application{
		config:    cfg,
		styled:    styled,
		plain:     plain,
		pool:      nodePool,
		transport: transport.NewHTTPTransport(cfg.Client.RequestTimeout),
		stats:     stats.NewCollector(),
	}

	tracer := logger.NewDiscard()
	if cfg.Client.EnableTrace {
		tracer = plain.With("logger", "trace.request")
	}

	restClient, err := client.New(a.transport, nodePool, client.Options{
		MaxRetryTimeout: cfg.Client.MaxRetryTimeout,
		Logger:          plain,
		Tracer:          tracer,
		Stats:           a.stats,
		OnFailure:       a.onNodeFailure,
	})
	if err != nil {
		return nil, err
	}
	a.client = restClient

	if cfg.Sniff.Enabled {
		sniffer, err := discovery.NewNodesSniffer(restClient, nodePool, plain, discovery.Config{
			Scheme:   cfg.Sniff.Scheme,
			Interval: cfg.Sniff.Interval,
		})
		if err != nil {
			return nil, err
		}
		a.sniffer = sniffer
	}

	return a, nil
}

func (a *Application) onNodeFailure(_ *domain.Node) {
	if a.sniffer != nil && a.config.Sniff.OnFailure {
		a.sniffer.Notify()
	}
}

// Start runs node discovery if configured: one synchronous sniff so the
// first request already sees the cluster's view, then the periodic loop.
func (a *Application) Start(ctx context.Context) {
	if a.sniffer == nil {
		return
	}
	if err := a.sniffer.Sniff(ctx); err != nil {
		a.styled.Warn("Initial node discovery failed", "error", err)
	}
	go a.sniffer.Run(ctx)
}

// Execute performs one request and writes the response to stdout.
func (a *Application) Execute(ctx context.Context, method, endpoint string, params map[string]string, body []byte) error {
	resp, err := a.client.PerformRequest(ctx, method, endpoint, params, body)
	if err != nil {
		for i, cause := range domain.SuppressedErrors(err) {
			a.styled.Warn("Attempt failed", "attempt", i+1, "error", cause)
		}
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	a.styled.Info("Request complete",
		"status", resp.Status,
		"size", format.Bytes(uint64(len(payload))))

	if len(payload) == 0 {
		return nil
	}
	fmt.Println(renderBody(resp.Header.Get("Content-Type"), payload))
	return nil
}

func renderBody(contentType string, payload []byte) string {
	if !strings.Contains(contentType, "json") || !json.Valid(payload) {
		return string(payload)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		return string(payload)
	}
	return pretty.String()
}

// PrintStatus renders the pool's health and per-node counters.
func (a *Application) PrintStatus() {
	conns := a.pool.Nodes()
	snapshot := a.stats.Snapshot()

	alive := 0
	for _, conn := range conns {
		if conn.Status == domain.StatusAlive {
			alive++
		}
	}
	a.styled.InfoWithNode("Cluster", a.config.Cluster.Name, "nodes_up", format.NodesUp(alive, len(conns)))

	for _, conn := range conns {
		args := []any{
			"dead_count", conn.DeadCount,
		}
		if conn.Status == domain.StatusDead {
			args = append(args, "dead_until", conn.DeadUntil.Format("15:04:05"))
		}
		if ns, ok := snapshot[conn.Node.URLString]; ok {
			args = append(args,
				"attempts", ns.Attempts,
				"failures", ns.Failures,
				"last_latency", format.Latency(ns.LastLatency),
				"last_seen", format.Since(ns.LastAttemptAt))
		}
		a.styled.InfoNodeStatus("Node", conn.Node.URLString, conn.Status, args...)
	}
}

// ReloadNodes re-reads the watched config file and applies the node
// list to the pool, keeping health state for surviving nodes.
func (a *Application) ReloadNodes() {
	cfg, err := config.Reload()
	if err != nil {
		a.styled.Warn("Config reload failed", "error", err)
		return
	}
	nodes, err := cfg.ClusterNodes()
	if err != nil {
		a.styled.Warn("Config reload failed", "error", err)
		return
	}
	if err := a.pool.UpdateNodes(nodes); err != nil {
		a.styled.Warn("Config reload rejected", "error", err)
		return
	}
	a.config.Cluster = cfg.Cluster
	a.styled.InfoWithCount("Applied reloaded node list", len(nodes))
}

// Stop releases the client, which closes the pool and then the
// transport.
func (a *Application) Stop() {
	if err := a.client.Close(); err != nil {
		a.styled.Error("Error during shutdown", "error", err)
	}
}

// ReadBodyArg resolves the CLI's -d argument: literal JSON, @file, or
// "-" for stdin.
func ReadBodyArg(arg string) ([]byte, error) {
	switch {
	case arg == "":
		return nil, nil
	case arg == "-":
		return io.ReadAll(os.Stdin)
	case strings.HasPrefix(arg, "@"):
		return os.ReadFile(strings.TrimPrefix(arg, "@"))
	default:
		return []byte(arg), nil
	}
}
