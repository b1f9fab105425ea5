// Package container holds items of one kind in a client or server role and
// reconciles a client container with a server container.
//
// Item ids are positions. They stay valid on a client until the next SyncSelf
// or Sync, which renumber every item; callers must not carry an id across one.
package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/mtc/internal/model"
)

// ErrNotFound is returned when an id does not resolve to a live item
var ErrNotFound = errors.New("item not found")

// Item is the capability set the container needs from an item kind
type Item[T any] interface {
	ForDate(date model.Date) bool
	State() model.State
	ID() int
	WithState(s model.State) T
	WithID(id int) T
	ContentEquals(other T) bool
	Expired(today model.Date) bool
}

// Container is an ordered list of items with a fixed client or server role.
// The id of every item equals its index.
type Container[T Item[T]] struct {
	items    []T
	isServer bool
}

// New creates an empty container
func New[T Item[T]](isServer bool) *Container[T] {
	return &Container[T]{items: []T{}, isServer: isServer}
}

// IsServer reports the role fixed at construction
func (c *Container[T]) IsServer() bool {
	return c.isServer
}

// Len returns the physical length, Removed items included
func (c *Container[T]) Len() int {
	return len(c.items)
}

// Add appends item and returns its id. Clients stamp it New, servers Neutral.
func (c *Container[T]) Add(item T) int {
	state := model.StateNew
	if c.isServer {
		state = model.StateNeutral
	}
	id := len(c.items)
	c.items = append(c.items, item.WithState(state).WithID(id))
	return id
}

// MarkRemoved removes the item with the given id. A server drops it at once
// and renumbers the rest; a client only flags it Removed so other ids hold.
func (c *Container[T]) MarkRemoved(id int) error {
	if id < 0 || id >= len(c.items) {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}

	if c.isServer {
		c.items = append(c.items[:id], c.items[id+1:]...)
		c.reindex()
		return nil
	}

	if c.items[id].State() == model.StateRemoved {
		return fmt.Errorf("id %d already removed: %w", id, ErrNotFound)
	}
	c.items[id] = c.items[id].WithState(model.StateRemoved)
	return nil
}

// GetByID returns the live item with the given id
func (c *Container[T]) GetByID(id int) (T, bool) {
	var zero T
	if id < 0 || id >= len(c.items) {
		return zero, false
	}
	item := c.items[id]
	if item.State() == model.StateRemoved {
		return zero, false
	}
	return item, true
}

// Items returns every item that is not Removed, in container order
func (c *Container[T]) Items() []T {
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if item.State() != model.StateRemoved {
			out = append(out, item)
		}
	}
	return out
}

// ItemsForDate returns the live items applying on date
func (c *Container[T]) ItemsForDate(date model.Date) []T {
	var out []T
	for _, item := range c.Items() {
		if item.ForDate(date) {
			out = append(out, item)
		}
	}
	return out
}

// ItemsForWeekday returns the live items applying on the next occurrence of
// wd, counting from today
func (c *Container[T]) ItemsForWeekday(wd time.Weekday, today model.Date) []T {
	return c.ItemsForDate(model.NextOccurrence(wd, today))
}

// RemoveExpired flags every expired item Removed and returns how many were
// flagged. Compaction happens on the next SyncSelf or Sync.
func (c *Container[T]) RemoveExpired(today model.Date) int {
	n := 0
	for i, item := range c.items {
		if item.State() != model.StateRemoved && item.Expired(today) {
			c.items[i] = item.WithState(model.StateRemoved)
			n++
		}
	}
	return n
}

// SyncSelf drops Removed items and resets the survivors to Neutral with
// dense ids.
func (c *Container[T]) SyncSelf() {
	kept := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if item.State() == model.StateRemoved {
			continue
		}
		kept = append(kept, item.WithState(model.StateNeutral).WithID(len(kept)))
	}
	c.items = kept
}

// HasRemoved reports whether the next SyncSelf will drop items and so
// renumber the ones after them
func (c *Container[T]) HasRemoved() bool {
	for _, item := range c.items {
		if item.State() == model.StateRemoved {
			return true
		}
	}
	return false
}

// CloneAs returns a deep copy of c in the given role
func (c *Container[T]) CloneAs(isServer bool) *Container[T] {
	items := make([]T, len(c.items))
	for i, item := range c.items {
		items[i] = item.WithID(item.ID())
	}
	return &Container[T]{items: items, isServer: isServer}
}

func (c *Container[T]) reindex() {
	for i := range c.items {
		c.items[i] = c.items[i].WithID(i)
	}
}

// indexOf returns the index of the first item content-equal to item that is
// not Removed, or -1
func (c *Container[T]) indexOf(item T) int {
	for i, other := range c.items {
		if other.State() != model.StateRemoved && other.ContentEquals(item) {
			return i
		}
	}
	return -1
}

type containerJSON[T any] struct {
	Items    []T  `json:"items"`
	IsServer bool `json:"is_server"`
}

// MarshalJSON encodes the container with every item, Removed ones included
func (c *Container[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(containerJSON[T]{Items: c.items, IsServer: c.isServer})
}

// UnmarshalJSON restores a container written by MarshalJSON
func (c *Container[T]) UnmarshalJSON(data []byte) error {
	var in containerJSON[T]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Items == nil {
		in.Items = []T{}
	}
	c.items = in.Items
	c.isServer = in.IsServer
	return nil
}
