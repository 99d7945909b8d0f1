package pool

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brenthale/elassandra/internal/core/domain"
)

const (
	// Dead nodes back off for baseDeadDuration doubled per consecutive
	// failure, capped at maxDeadDuration.
	baseDeadDuration = time.Minute
	maxDeadDuration  = 30 * time.Minute

	// DeadCount saturates well past the point where the backoff cap is
	// reached; anything beyond it carries no information.
	maxDeadCount = 16
)

// StaticPool manages the connection records for a fixed node set.
// Selection rotates across calls so successive requests do not always
// start at the same node; every health mutation happens under one lock.
type StaticPool struct {
	logger  *slog.Logger
	conns   []*domain.Connection
	mu      sync.Mutex
	counter uint64
	closed  bool
}

func New(nodes []*domain.Node, logger *slog.Logger) (*StaticPool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conns := dedupe(nodes, nil)
	if len(conns) == 0 {
		return nil, &domain.ConfigValidationError{Field: "cluster.nodes", Value: len(nodes), Reason: "at least one node is required"}
	}
	return &StaticPool{
		conns:  conns,
		logger: logger,
	}, nil
}

func dedupe(nodes []*domain.Node, existing map[string]*domain.Connection) []*domain.Connection {
	seen := make(map[string]struct{}, len(nodes))
	conns := make([]*domain.Connection, 0, len(nodes))
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if _, ok := seen[node.URLString]; ok {
			continue
		}
		seen[node.URLString] = struct{}{}
		if prev, ok := existing[node.URLString]; ok {
			conns = append(conns, prev)
			continue
		}
		conns = append(conns, domain.NewConnection(node))
	}
	return conns
}

// Next returns the connections to try for one request: alive nodes
// first, rotated round-robin across calls, then dead nodes whose
// backoff has elapsed, most overdue first. The slices under the
// returned pointers are a snapshot; concurrent callbacks may already
// have moved individual records on.
func (p *StaticPool) Next() []*domain.Connection {
	now := time.Now()

	p.mu.Lock()
	alive := make([]*domain.Connection, 0, len(p.conns))
	var overdue []*domain.Connection
	for _, conn := range p.conns {
		switch {
		case conn.Status == domain.StatusAlive:
			alive = append(alive, conn)
		case conn.Resurrectable(now):
			overdue = append(overdue, conn)
		}
	}
	p.mu.Unlock()

	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].DeadUntil.Before(overdue[j].DeadUntil)
	})

	if len(alive) == 0 {
		return overdue
	}

	rot := int((atomic.AddUint64(&p.counter, 1) - 1) % uint64(len(alive)))
	ordered := make([]*domain.Connection, 0, len(alive)+len(overdue))
	ordered = append(ordered, alive[rot:]...)
	ordered = append(ordered, alive[:rot]...)
	ordered = append(ordered, overdue...)
	return ordered
}

// LastResort returns some connection regardless of state: the dead one
// longest overdue for rehabilitation, ties broken by configuration
// order. Used when Next comes back empty so a mass failure cannot wedge
// the pool shut.
func (p *StaticPool) LastResort() *domain.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pick *domain.Connection
	for _, conn := range p.conns {
		if conn.Status != domain.StatusDead {
			continue
		}
		if pick == nil || conn.DeadUntil.Before(pick.DeadUntil) {
			pick = conn
		}
	}
	if pick == nil && len(p.conns) > 0 {
		pick = p.conns[0]
	}
	return pick
}

func (p *StaticPool) MarkSuccess(conn *domain.Connection) {
	p.mu.Lock()
	wasDead := conn.Status == domain.StatusDead
	conn.Status = domain.StatusAlive
	conn.DeadCount = 0
	conn.DeadUntil = time.Time{}
	p.mu.Unlock()

	if wasDead {
		p.logger.Info("node returned to service", "node", conn.Node.URLString)
	}
}

func (p *StaticPool) MarkFailure(conn *domain.Connection) {
	now := time.Now()

	p.mu.Lock()
	if conn.DeadCount < maxDeadCount {
		conn.DeadCount++
	}
	conn.Status = domain.StatusDead
	conn.LastFailure = now
	conn.DeadUntil = now.Add(Backoff(conn.DeadCount))
	deadCount := conn.DeadCount
	deadUntil := conn.DeadUntil
	p.mu.Unlock()

	p.logger.Debug("node marked dead",
		"node", conn.Node.URLString,
		"dead_count", deadCount,
		"dead_until", deadUntil)
}

// Backoff returns how long a node stays blacklisted after its k-th
// consecutive failure: one minute doubled per failure, capped at thirty
// minutes. Monotonic in k.
func Backoff(deadCount int) time.Duration {
	if deadCount < 1 {
		deadCount = 1
	}
	d := float64(baseDeadDuration) * math.Pow(2, float64(deadCount-1))
	if d > float64(maxDeadDuration) {
		return maxDeadDuration
	}
	return time.Duration(d)
}

// UpdateNodes swaps in a refreshed node set, keeping the health record
// of every node that survives the swap. An empty set is rejected so the
// pool never drops below one connection.
func (p *StaticPool) UpdateNodes(nodes []*domain.Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing := make(map[string]*domain.Connection, len(p.conns))
	for _, conn := range p.conns {
		existing[conn.Node.URLString] = conn
	}

	conns := dedupe(nodes, existing)
	if len(conns) == 0 {
		return &domain.ConfigValidationError{Field: "cluster.nodes", Value: len(nodes), Reason: "refusing to update pool to an empty node set"}
	}

	added, removed := 0, len(p.conns)
	for _, conn := range conns {
		if _, ok := existing[conn.Node.URLString]; ok {
			removed--
		} else {
			added++
		}
	}

	p.conns = conns
	if added > 0 || removed > 0 {
		p.logger.Info("node set updated", "nodes", len(conns), "added", added, "removed", removed)
	}
	return nil
}

// Nodes returns a snapshot of every connection record, configuration
// order, for status reporting.
func (p *StaticPool) Nodes() []*domain.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Connection, len(p.conns))
	copy(out, p.conns)
	return out
}

func (p *StaticPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
