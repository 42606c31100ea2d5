// Package history implements the review cursor over a ledger.
package history

import "fmt"

// Latest is the cursor position that follows the newest record.
const Latest = -1

// Direction of a cursor move.
type Direction string

// Directions.
const (
	Backward Direction = "backward"
	Forward  Direction = "forward"
)

// ParseDirection validates a direction received at the boundary.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Backward, Forward:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Length reports how many records the cursor can address.
type Length interface {
	Len() int
}

// Cursor is a read-only position into a ledger. It never mutates the ledger.
type Cursor struct {
	ledger Length
	index  int
}

// New returns a cursor following the latest record of l.
func New(l Length) *Cursor {
	return &Cursor{ledger: l, index: Latest}
}

// Position is the raw cursor value: Latest or an index into the ledger.
func (c *Cursor) Position() int {
	return c.index
}

// Index resolves the cursor to a record index; -1 on an empty ledger.
func (c *Cursor) Index() int {
	n := c.ledger.Len()
	if c.index == Latest || c.index >= n {
		return n - 1
	}
	return c.index
}

// IsAtLatest reports whether the cursor shows the live state.
func (c *Cursor) IsAtLatest() bool {
	return c.index == Latest || c.index >= c.ledger.Len()-1
}

// CanMoveBackward reports whether a backward move would change the position.
func (c *Cursor) CanMoveBackward() bool {
	return c.Index() > 0
}

// CanMoveForward reports whether a forward move would change the position.
func (c *Cursor) CanMoveForward() bool {
	return !c.IsAtLatest()
}

// Move shifts the cursor one step. It is a no-op at either bound.
func (c *Cursor) Move(dir Direction) {
	switch dir {
	case Backward:
		if c.CanMoveBackward() {
			c.index = c.Index() - 1
		}
	case Forward:
		if !c.CanMoveForward() {
			return
		}
		c.index++
		if c.index >= c.ledger.Len()-1 {
			c.index = Latest
		}
	}
}

// JumpToLatest makes the cursor follow the newest record again.
func (c *Cursor) JumpToLatest() {
	c.index = Latest
}
