package astipsi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockedSectionFilter struct {
	filters  []uint16
	m        sync.Mutex
	sections map[uint16][][]byte
}

func (f *mockedSectionFilter) SetFilter(pid uint16, tableID TableID, fn func(b []byte)) (stop func(), err error) {
	f.m.Lock()
	f.filters = append(f.filters, pid)
	ss := f.sections[pid]
	f.m.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, s := range ss {
			if ctx.Err() != nil {
				return
			}
			if len(s) > 0 && TableID(s[0]) != tableID {
				continue
			}
			fn(s)
		}
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

type mockedStream struct {
	pid uint16
	t   StreamType
}

type mockedPlayer struct {
	err     error
	streams []mockedStream
}

func (p *mockedPlayer) CreateStream(pid uint16, t StreamType) error {
	if p.err != nil {
		return p.err
	}
	p.streams = append(p.streams, mockedStream{pid: pid, t: t})
	return nil
}

func zapperPATBytes() []byte {
	return psiSectionBytes(uint8(TableIDPAT), 1, patProgramsBytes([]PATEntry{
		{ProgramNumber: 0, PID: 0x10},
		{ProgramNumber: 7, PID: 0x30},
		{ProgramNumber: 8, PID: 0x40},
	}))
}

func newMockedZapper() (*Zapper, *mockedSectionFilter, *mockedPlayer) {
	truncated := pmtBytes(pmtStreams)
	f := &mockedSectionFilter{sections: map[uint16][][]byte{
		PIDPAT: {zapperPATBytes()},
		// Program 7 and 8 share the same PID in the first section
		0x30: {
			psiSectionBytes(uint8(TableIDPMT), 8, pmtBodyBytes(0x1fff, nil, nil)),
			truncated[:len(truncated)-1],
			pmtBytes(pmtStreams),
		},
		0x40: {psiSectionBytes(uint8(TableIDPMT), 8, pmtBodyBytes(0x1fff, nil, []pmtStream{
			{streamType: StreamTypeMPEG2PacketizedData, pid: 0x41, descriptors: []byte{DescriptorTagTeletext, 0x00}},
		}))},
	}}
	p := &mockedPlayer{}
	return NewZapper(ZapperOptions{Filter: f, Player: p, SectionTimeout: 50 * time.Millisecond}), f, p
}

func TestZapperPrograms(t *testing.T) {
	z, _, _ := newMockedZapper()
	ps, err := z.Programs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint16{7, 8}, ps)
}

func TestZapperZap(t *testing.T) {
	z, f, p := newMockedZapper()
	c, err := z.Zap(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, c.PAT)
	assert.Equal(t, 3, c.PAT.Programs.Len())
	assert.Equal(t, pmt, c.PMT)
	assert.Equal(t, &PMTEntry{StreamType: StreamTypeH264Video, ElementaryPID: 0x100}, c.Video)
	assert.Equal(t, &PMTEntry{StreamType: StreamTypeADTS, ElementaryPID: 0x101, ESInfoLength: 6}, c.Audio)
	assert.Equal(t, []mockedStream{
		{pid: 0x100, t: StreamTypeH264Video},
		{pid: 0x101, t: StreamTypeADTS},
	}, p.streams)
	assert.Equal(t, []uint16{PIDPAT, 0x30}, f.filters)

	// PAT is not waited for once known
	c, err = z.Zap(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, c.PAT)
	assert.Equal(t, []uint16{PIDPAT, 0x30, 0x30}, f.filters)
}

func TestZapperZapErrors(t *testing.T) {
	z, _, p := newMockedZapper()

	// Unknown program
	_, err := z.Zap(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNoProgram)

	// No playable stream
	_, err = z.Zap(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNoStream)

	// Player error
	p.err = errors.New("player: failed")
	_, err = z.Zap(context.Background(), 7)
	assert.ErrorIs(t, err, p.err)
}

func TestZapperTimeout(t *testing.T) {
	f := &mockedSectionFilter{sections: map[uint16][][]byte{}}
	z := NewZapper(ZapperOptions{Filter: f, Player: &mockedPlayer{}, SectionTimeout: 10 * time.Millisecond})
	_, err := z.Zap(context.Background(), 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Parent context cancellation
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = z.Programs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
