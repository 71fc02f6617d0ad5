package astipsi

import (
	"encoding/json"

	"golang.org/x/exp/slices"
)

// Capacities
const (
	MaxEITEvents        = 5
	MaxEventDescriptors = 20
	MaxPATPrograms      = 20
	MaxPMTStreams       = 20
)

// Bounded is an ordered collection holding at most Cap() items. Items added
// beyond capacity are dropped but still counted so that Total() reports how
// many items the section actually carried.
type Bounded[T any] struct {
	capacity int
	items    []T
	total    int
}

func newBounded[T any](capacity int) *Bounded[T] {
	return &Bounded[T]{capacity: capacity}
}

// add counts v and keeps it if there is room left. It returns whether v was kept.
func (b *Bounded[T]) add(v T) bool {
	b.total++
	if len(b.items) >= b.capacity {
		return false
	}
	b.items = append(b.items, v)
	return true
}

// full checks whether no more items can be kept
func (b *Bounded[T]) full() bool {
	return len(b.items) >= b.capacity
}

// At returns the ith kept item
func (b *Bounded[T]) At(i int) T {
	return b.items[i]
}

// Cap returns the capacity
func (b *Bounded[T]) Cap() int {
	if b == nil {
		return 0
	}
	return b.capacity
}

// Items returns a copy of the kept items
func (b *Bounded[T]) Items() []T {
	if b == nil {
		return nil
	}
	return slices.Clone(b.items)
}

// Len returns the number of kept items
func (b *Bounded[T]) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Total returns the number of items seen, kept or not
func (b *Bounded[T]) Total() int {
	if b == nil {
		return 0
	}
	return b.total
}

// Truncated checks whether items were dropped
func (b *Bounded[T]) Truncated() bool {
	return b.Total() > b.Len()
}

// capacityErr returns a *CapacityError when items were dropped
func (b *Bounded[T]) capacityErr(table string) error {
	if !b.Truncated() {
		return nil
	}
	return &CapacityError{Capacity: b.capacity, Table: table, Total: b.total}
}

// MarshalJSON implements the json.Marshaler interface
func (b *Bounded[T]) MarshalJSON() ([]byte, error) {
	items := b.Items()
	if items == nil {
		items = []T{}
	}
	return json.Marshal(struct {
		Capacity int `json:"capacity"`
		Items    []T `json:"items"`
		Total    int `json:"total"`
	}{
		Capacity: b.Cap(),
		Items:    items,
		Total:    b.Total(),
	})
}
