package astipsi

import (
	"context"
	"fmt"
	"sync"
)

// SectionWaiter hands the first successfully decoded section of a given
// table type over to a waiting goroutine. HandleSection is meant to be called
// from the demuxer callback while Wait blocks the goroutine that needs the
// table.
type SectionWaiter struct {
	accept  func(Table) bool
	c       chan Table
	o       sync.Once
	opts    []DecodeOpt
	tableID TableID
}

// NewSectionWaiter creates a waiter for sections whose table id matches id.
// Any id of the EIT range matches any other one.
func NewSectionWaiter(id TableID, opts ...DecodeOpt) *SectionWaiter {
	return &SectionWaiter{
		c:       make(chan Table, 1),
		opts:    opts,
		tableID: id,
	}
}

func (w *SectionWaiter) match(id TableID) bool {
	if w.tableID.IsEIT() {
		return id.IsEIT()
	}
	return id == w.tableID
}

// HandleSection decodes the section and delivers it if it is the first one
// that matches. Sections with another table id or following the first one are
// ignored. Decode errors are returned so that the caller can log them and wait
// for the next section.
func (w *SectionWaiter) HandleSection(b []byte) error {
	if len(b) == 0 || !w.match(TableID(b[0])) {
		return nil
	}

	t, err := DecodeSection(b, w.opts...)
	if err != nil {
		logger.Debugf("astipsi: rejecting %s section: %s", TableID(b[0]), err)
		return fmt.Errorf("astipsi: decoding section failed: %w", err)
	}

	// Section is valid but not the one we are looking for
	if w.accept != nil && !w.accept(t) {
		return nil
	}

	// Following sections are dropped
	w.o.Do(func() { w.c <- t })
	return nil
}

// Wait blocks until a section has been delivered or the context is done
func (w *SectionWaiter) Wait(ctx context.Context) (Table, error) {
	select {
	case t := <-w.c:
		return t, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("astipsi: waiting for section failed: %w", ctx.Err())
	}
}
