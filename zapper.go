package astipsi

import (
	"context"
	"fmt"
	"time"
)

// PIDs
const (
	PIDPAT  = 0x0    // Program Association Table (PAT) contains a directory listing of all Program Map Tables.
	PIDEIT  = 0x12   // Event Information Table (EIT) as defined by DVB
	PIDNull = 0x1fff // Null Packet (used for fixed bandwidth padding)
)

// SectionFilter is implemented by the demuxer. Once a filter is set, every
// section carried by pid with the given table id is handed to fn, possibly
// from another goroutine, until stop is called. The demuxer may reuse b as soon
// as fn returns.
type SectionFilter interface {
	SetFilter(pid uint16, tableID TableID, fn func(b []byte)) (stop func(), err error)
}

// Player is implemented by the playback device
type Player interface {
	CreateStream(pid uint16, t StreamType) error
}

// ZapperOptions represents zapper options
type ZapperOptions struct {
	Filter SectionFilter
	Player Player
	// Maximum time to wait for a section. Defaults to 10s.
	SectionTimeout time.Duration
}

// Zapper switches the player to a program. It only relies on the PAT and
// the PMT of the program.
type Zapper struct {
	f          SectionFilter
	p          Player
	programMap programMap
	timeout    time.Duration
}

// Channel represents the outcome of a zap
type Channel struct {
	Audio *PMTEntry
	PAT   *PATTable
	PMT   *PMTTable
	Video *PMTEntry
}

// NewZapper creates a new zapper
func NewZapper(o ZapperOptions) *Zapper {
	z := &Zapper{
		f:          o.Filter,
		p:          o.Player,
		programMap: newProgramMap(),
		timeout:    o.SectionTimeout,
	}
	if z.timeout <= 0 {
		z.timeout = 10 * time.Second
	}
	return z
}

// Programs waits for the PAT and returns the program numbers it announces,
// the NIT excluded
func (z *Zapper) Programs(ctx context.Context) ([]uint16, error) {
	if _, err := z.refreshPAT(ctx); err != nil {
		return nil, err
	}
	return z.programMap.numbers(), nil
}

// Zap waits for the PAT if needed, then for the PMT of the program and
// creates its video stream and its first audio stream
func (z *Zapper) Zap(ctx context.Context, programNumber uint16) (c *Channel, err error) {
	c = &Channel{}

	// Get PMT PID
	pid, ok := z.programMap.get(programNumber)
	if !ok {
		if c.PAT, err = z.refreshPAT(ctx); err != nil {
			return nil, err
		}
		if pid, ok = z.programMap.get(programNumber); !ok {
			return nil, fmt.Errorf("astipsi: program %d: %w", programNumber, ErrNoProgram)
		}
	}

	// Wait for PMT
	w := NewSectionWaiter(TableIDPMT)
	w.accept = func(t Table) bool { return t.(*PMTTable).Header.ProgramNumber == programNumber }
	var t Table
	if t, err = z.wait(ctx, pid, w); err != nil {
		return nil, fmt.Errorf("astipsi: waiting for PMT of program %d on pid %d failed: %w", programNumber, pid, err)
	}
	c.PMT = t.(*PMTTable)

	// Pick streams
	if v, ok := c.PMT.VideoStream(); ok {
		c.Video = &v
	}
	if as := c.PMT.AudioStreams(); len(as) > 0 {
		c.Audio = &as[0]
	}
	if c.Video == nil && c.Audio == nil {
		return nil, fmt.Errorf("astipsi: program %d: %w", programNumber, ErrNoStream)
	}

	// Create streams
	for _, e := range []*PMTEntry{c.Video, c.Audio} {
		if e == nil {
			continue
		}
		if err = z.p.CreateStream(e.ElementaryPID, e.StreamType); err != nil {
			return nil, fmt.Errorf("astipsi: creating %s stream on pid %d failed: %w", e.StreamType, e.ElementaryPID, err)
		}
	}
	return
}

func (z *Zapper) refreshPAT(ctx context.Context) (pat *PATTable, err error) {
	var t Table
	if t, err = z.wait(ctx, PIDPAT, NewSectionWaiter(TableIDPAT)); err != nil {
		err = fmt.Errorf("astipsi: waiting for PAT failed: %w", err)
		return
	}
	pat = t.(*PATTable)
	z.programMap.setPAT(pat)
	return
}

// wait sets a filter feeding w and waits for its first section
func (z *Zapper) wait(ctx context.Context, pid uint16, w *SectionWaiter) (Table, error) {
	stop, err := z.f.SetFilter(pid, w.tableID, func(b []byte) {
		// Errors are logged by the waiter, next section will be tried
		_ = w.HandleSection(b)
	})
	if err != nil {
		return nil, fmt.Errorf("astipsi: setting filter failed: %w", err)
	}
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, z.timeout)
	defer cancel()
	return w.Wait(ctx)
}
