package domain

import "time"

const (
	StatusStringAlive = "alive"
	StatusStringDead  = "dead"
)

type ConnectionStatus string

const (
	StatusAlive ConnectionStatus = StatusStringAlive
	StatusDead  ConnectionStatus = StatusStringDead
)

func (s ConnectionStatus) String() string {
	return string(s)
}

// Connection is a health-tracked handle to one backend node. Instances
// are owned by the pool; the pool serialises every mutation, readers may
// observe state one callback behind.
type Connection struct {
	Node        *Node
	Status      ConnectionStatus
	DeadCount   int
	DeadUntil   time.Time
	LastFailure time.Time
}

func NewConnection(node *Node) *Connection {
	return &Connection{
		Node:   node,
		Status: StatusAlive,
	}
}

// Resurrectable reports whether a dead connection has served out its
// backoff window and may be probed again.
func (c *Connection) Resurrectable(now time.Time) bool {
	return c.Status == StatusDead && !c.DeadUntil.After(now)
}
