package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brenthale/elassandra/internal/core/domain"
)

func testNodes(t *testing.T, count int) []*domain.Node {
	t.Helper()
	nodes := make([]*domain.Node, 0, count)
	for i := 0; i < count; i++ {
		node, err := domain.NewNode(fmt.Sprintf("http://node%d:9200", i))
		if err != nil {
			t.Fatalf("NewNode failed: %v", err)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func testPool(t *testing.T, count int) *StaticPool {
	t.Helper()
	p, err := New(testNodes(t, count), slog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestNew_EmptyNodes(t *testing.T) {
	if _, err := New(nil, slog.Default()); err == nil {
		t.Fatal("expected error for empty node set")
	}
	if _, err := New([]*domain.Node{}, slog.Default()); err == nil {
		t.Fatal("expected error for empty node set")
	}
}

func TestNew_DeduplicatesNodes(t *testing.T) {
	nodes := testNodes(t, 2)
	nodes = append(nodes, nodes[0])

	p, err := New(nodes, slog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := len(p.Nodes()); got != 2 {
		t.Errorf("expected 2 connections after dedupe, got %d", got)
	}
}

func TestNext_RotatesAcrossCalls(t *testing.T) {
	p := testPool(t, 3)

	first := make(map[string]int)
	for i := 0; i < 6; i++ {
		conns := p.Next()
		if len(conns) != 3 {
			t.Fatalf("expected 3 connections, got %d", len(conns))
		}
		first[conns[0].Node.URLString]++
	}

	if len(first) != 3 {
		t.Errorf("expected rotation across all 3 nodes, got starts: %v", first)
	}
	for node, count := range first {
		if count != 2 {
			t.Errorf("expected %s to lead twice, led %d times", node, count)
		}
	}
}

func TestNext_AliveBeforeResurrectable(t *testing.T) {
	p := testPool(t, 3)
	conns := p.Nodes()

	p.MarkFailure(conns[0])
	// Force the backoff window into the past so the node is a
	// rehabilitation candidate.
	p.mu.Lock()
	conns[0].DeadUntil = time.Now().Add(-time.Second)
	p.mu.Unlock()

	for i := 0; i < 4; i++ {
		ordered := p.Next()
		if len(ordered) != 3 {
			t.Fatalf("expected 3 connections, got %d", len(ordered))
		}
		if ordered[len(ordered)-1] != conns[0] {
			t.Errorf("resurrectable node must come after every alive node, got order ending in %s", ordered[len(ordered)-1].Node)
		}
	}
}

func TestNext_ExcludesDeadWithinBackoff(t *testing.T) {
	p := testPool(t, 2)
	conns := p.Nodes()

	p.MarkFailure(conns[1])

	ordered := p.Next()
	if len(ordered) != 1 {
		t.Fatalf("expected only the alive connection, got %d", len(ordered))
	}
	if ordered[0] != conns[0] {
		t.Errorf("expected %s, got %s", conns[0].Node, ordered[0].Node)
	}
}

func TestNext_EmptyWhenAllDead(t *testing.T) {
	p := testPool(t, 2)
	for _, conn := range p.Nodes() {
		p.MarkFailure(conn)
	}
	if got := p.Next(); len(got) != 0 {
		t.Errorf("expected empty selection, got %d connections", len(got))
	}
}

func TestLastResort_PicksLongestOverdue(t *testing.T) {
	p := testPool(t, 3)
	conns := p.Nodes()

	// Second failure pushes the backoff window further out, so the
	// once-failed node is the longest overdue.
	p.MarkFailure(conns[2])
	p.MarkFailure(conns[1])
	p.MarkFailure(conns[1])
	p.MarkFailure(conns[0])
	p.MarkFailure(conns[0])
	p.MarkFailure(conns[0])

	if pick := p.LastResort(); pick != conns[2] {
		t.Errorf("expected last resort %s, got %s", conns[2].Node, pick.Node)
	}
}

func TestMarkFailure_Backoff(t *testing.T) {
	p := testPool(t, 1)
	conn := p.Nodes()[0]

	before := time.Now()
	p.MarkFailure(conn)

	if conn.Status != domain.StatusDead {
		t.Errorf("expected dead, got %s", conn.Status)
	}
	if conn.DeadCount != 1 {
		t.Errorf("expected dead count 1, got %d", conn.DeadCount)
	}
	if conn.LastFailure.Before(before) {
		t.Error("last failure not stamped")
	}
	if conn.DeadUntil.Before(conn.LastFailure) {
		t.Error("dead_until must not precede last_failure")
	}

	want := before.Add(time.Minute)
	if diff := conn.DeadUntil.Sub(want); diff < 0 || diff > time.Second {
		t.Errorf("expected dead_until ~%v, got %v", want, conn.DeadUntil)
	}
}

func TestMarkSuccess_ResetsHealth(t *testing.T) {
	p := testPool(t, 1)
	conn := p.Nodes()[0]

	p.MarkFailure(conn)
	p.MarkFailure(conn)
	p.MarkSuccess(conn)

	if conn.Status != domain.StatusAlive {
		t.Errorf("expected alive, got %s", conn.Status)
	}
	if conn.DeadCount != 0 {
		t.Errorf("expected dead count 0, got %d", conn.DeadCount)
	}
	if !conn.DeadUntil.IsZero() {
		t.Errorf("expected cleared dead_until, got %v", conn.DeadUntil)
	}
}

func TestBackoff_MonotonicAndCapped(t *testing.T) {
	if got := Backoff(1); got != time.Minute {
		t.Errorf("Backoff(1) = %v, want 1m", got)
	}
	if got := Backoff(2); got != 2*time.Minute {
		t.Errorf("Backoff(2) = %v, want 2m", got)
	}

	prev := time.Duration(0)
	for k := 1; k <= 20; k++ {
		got := Backoff(k)
		if got < prev {
			t.Errorf("Backoff(%d) = %v decreased below %v", k, got, prev)
		}
		if got > maxDeadDuration {
			t.Errorf("Backoff(%d) = %v exceeds cap", k, got)
		}
		prev = got
	}
	if got := Backoff(20); got != maxDeadDuration {
		t.Errorf("Backoff(20) = %v, want cap %v", got, maxDeadDuration)
	}
}

func TestUpdateNodes_PreservesHealth(t *testing.T) {
	p := testPool(t, 2)
	conns := p.Nodes()
	p.MarkFailure(conns[0])

	fresh := testNodes(t, 3)
	if err := p.UpdateNodes(fresh); err != nil {
		t.Fatalf("UpdateNodes failed: %v", err)
	}

	updated := p.Nodes()
	if len(updated) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(updated))
	}
	if updated[0] != conns[0] {
		t.Error("expected surviving node to keep its connection record")
	}
	if updated[0].Status != domain.StatusDead {
		t.Error("expected surviving node to keep its health state")
	}
}

func TestUpdateNodes_RejectsEmpty(t *testing.T) {
	p := testPool(t, 2)
	if err := p.UpdateNodes(nil); err == nil {
		t.Fatal("expected error for empty update")
	}
	if got := len(p.Nodes()); got != 2 {
		t.Errorf("pool must be unchanged after rejected update, got %d nodes", got)
	}
}

func TestPool_ConcurrentCallbacks(t *testing.T) {
	p := testPool(t, 4)
	conns := p.Nodes()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				conn := conns[(i+j)%len(conns)]
				if j%3 == 0 {
					p.MarkFailure(conn)
				} else {
					p.MarkSuccess(conn)
				}
				p.Next()
			}
		}(i)
	}
	wg.Wait()

	for _, conn := range p.Nodes() {
		if conn.Status == domain.StatusAlive && conn.DeadCount != 0 {
			t.Errorf("alive connection %s has dead count %d", conn.Node, conn.DeadCount)
		}
	}
}
