package astipsi

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrBufferTooShort   = errors.New("astipsi: buffer too short")
	ErrCapacityExceeded = errors.New("astipsi: capacity exceeded")
	ErrInvalidLength    = errors.New("astipsi: invalid section length")
	ErrNoProgram        = errors.New("astipsi: no such program")
	ErrNoStream         = errors.New("astipsi: no playable stream")
	ErrTruncatedSection = errors.New("astipsi: truncated section")
	ErrUnsupportedTable = errors.New("astipsi: unsupported table")
)

// CapacityError is the soft condition reported when a section carries more
// entries than a table can hold. Decoding still succeeds with the first
// Capacity entries.
type CapacityError struct {
	Capacity int
	Table    string
	Total    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("astipsi: %s carries %d entries, only %d kept", e.Table, e.Total, e.Capacity)
}

// Is makes errors.Is(err, ErrCapacityExceeded) succeed
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
