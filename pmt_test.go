package astipsi

import (
	"bytes"
	"testing"

	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pmtStream struct {
	descriptors []byte
	pid         uint16
	streamType  StreamType
}

var pmtStreams = []pmtStream{
	{streamType: StreamTypeH264Video, pid: 0x100},
	{streamType: StreamTypeADTS, pid: 0x101, descriptors: []byte{0x0a, 0x04, 'f', 'r', 'a', 0x00}},
	{streamType: StreamTypeMPEG2PacketizedData, pid: 0x102, descriptors: []byte{DescriptorTagTeletext, 0x00}},
	{streamType: StreamTypeMPEG1Audio, pid: 0x103},
}

var pmt = &PMTTable{
	Header: PMTHeader{
		CurrentNextIndicator:   true,
		LastSectionNumber:      3,
		PCRPID:                 0x100,
		ProgramInfoLength:      2,
		ProgramNumber:          7,
		SectionLength:          43,
		SectionNumber:          2,
		SectionSyntaxIndicator: true,
		TableID:                TableIDPMT,
		VersionNumber:          5,
	},
	HasTeletext: true,
	Streams: &Bounded[PMTEntry]{
		capacity: MaxPMTStreams,
		items: []PMTEntry{
			{StreamType: StreamTypeH264Video, ElementaryPID: 0x100},
			{StreamType: StreamTypeADTS, ElementaryPID: 0x101, ESInfoLength: 6},
			{StreamType: StreamTypeMPEG2PacketizedData, ElementaryPID: 0x102, ESInfoLength: 2},
			{StreamType: StreamTypeMPEG1Audio, ElementaryPID: 0x103},
		},
		total: 4,
	},
}

func pmtBodyBytes(pcrPID uint16, programDescriptors []byte, ss []pmtStream) []byte {
	buf := &bytes.Buffer{}
	w := astikit.NewBitsWriter(astikit.BitsWriterOptions{Writer: buf})
	w.Write("111")                                // Reserved bits
	w.WriteN(pcrPID, 13)                          // PCR PID
	w.Write("1111")                               // Reserved
	w.WriteN(uint16(len(programDescriptors)), 12) // Program info length
	w.Write(programDescriptors)                   // Program descriptors
	for _, s := range ss {
		w.Write(uint8(s.streamType))             // Stream type
		w.Write("111")                           // Stream reserved
		w.WriteN(s.pid, 13)                      // Stream PID
		w.Write("1111")                          // Stream reserved
		w.WriteN(uint16(len(s.descriptors)), 12) // Stream es info length
		w.Write(s.descriptors)                   // Stream descriptors
	}
	return buf.Bytes()
}

func pmtBytes(ss []pmtStream) []byte {
	return psiSectionBytes(uint8(TableIDPMT), 7, pmtBodyBytes(0x100, []byte{0x0e, 0x00}, ss))
}

func TestDecodePMT(t *testing.T) {
	d, err := DecodePMT(pmtBytes(pmtStreams))
	require.NoError(t, err)
	assert.Equal(t, pmt, d)
	assert.NoError(t, d.Err())
	assert.Equal(t, TableIDPMT, d.TableID())

	v, ok := d.VideoStream()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x100), v.ElementaryPID)
	as := d.AudioStreams()
	require.Len(t, as, 2)
	assert.Equal(t, uint16(0x101), as[0].ElementaryPID)
	assert.Equal(t, uint16(0x103), as[1].ElementaryPID)
}

func TestDecodePMTTeletext(t *testing.T) {
	ss := []pmtStream{{streamType: StreamTypeMPEG2PacketizedData, pid: 0x20, descriptors: []byte{DescriptorTagTeletext}}}
	b := pmtBytes(ss)
	d, err := DecodePMT(b)
	require.NoError(t, err)
	assert.True(t, d.HasTeletext)

	// Same buffer with another tag
	b[len(b)-5] = 0x10
	d, err = DecodePMT(b)
	require.NoError(t, err)
	assert.False(t, d.HasTeletext)
}

func TestDecodePMTTeletextIsSticky(t *testing.T) {
	d, err := DecodePMT(pmtBytes([]pmtStream{
		{streamType: StreamTypeMPEG2PacketizedData, pid: 0x20, descriptors: []byte{DescriptorTagTeletext, 0x00}},
		{streamType: StreamTypeMPEG2PacketizedData, pid: 0x21, descriptors: []byte{0x59, 0x00}},
		{streamType: StreamTypeMPEG1Audio, pid: 0x22},
	}))
	require.NoError(t, err)
	assert.True(t, d.HasTeletext)
	assert.Equal(t, 3, d.Streams.Len())

	// Only the first descriptor of a stream is looked at
	d, err = DecodePMT(pmtBytes([]pmtStream{
		{streamType: StreamTypeMPEG2PacketizedData, pid: 0x20, descriptors: []byte{0x59, 0x00, DescriptorTagTeletext, 0x00}},
	}))
	require.NoError(t, err)
	assert.False(t, d.HasTeletext)
}

func TestDecodePMTCapacityExceeded(t *testing.T) {
	var ss []pmtStream
	for i := 0; i < 23; i++ {
		ss = append(ss, pmtStream{streamType: StreamTypeMPEG1Audio, pid: uint16(0x100 + i)})
	}
	// Teletext is not looked for in dropped streams
	ss[22].descriptors = []byte{DescriptorTagTeletext, 0x00}

	d, err := DecodePMT(pmtBytes(ss))
	require.NoError(t, err)
	assert.Equal(t, MaxPMTStreams, d.Streams.Len())
	assert.Equal(t, 23, d.Streams.Total())
	assert.False(t, d.HasTeletext)
	assert.Equal(t, uint16(0x113), d.Streams.At(MaxPMTStreams-1).ElementaryPID)
	assert.ErrorIs(t, d.Err(), ErrCapacityExceeded)
}

func TestDecodePMTErrors(t *testing.T) {
	// Header cannot be read
	_, err := DecodePMT([]byte{0x02, 0xb0, 0x0d, 0x00, 0x01, 0xc1, 0x00, 0x00, 0xe1, 0x00})
	assert.ErrorIs(t, err, ErrBufferTooShort)

	// Section length below protocol minimum
	b := pmtBytes(nil)
	setSectionLength(b, 12)
	_, err = DecodePMT(b)
	assert.ErrorIs(t, err, ErrInvalidLength)

	// Section length past the buffer
	b = pmtBytes(pmtStreams)
	_, err = DecodePMT(b[:len(b)-2])
	assert.ErrorIs(t, err, ErrTruncatedSection)

	// Program info length past the section
	b = psiSectionBytes(uint8(TableIDPMT), 7, pmtBodyBytes(0x100, nil, nil))
	b[10] = 0xf0
	b[11] = 0x20
	_, err = DecodePMT(b)
	assert.ErrorIs(t, err, ErrTruncatedSection)

	// ES info length past the section
	b = pmtBytes([]pmtStream{{streamType: StreamTypeMPEG1Audio, pid: 0x20, descriptors: []byte{0x0a, 0x00}}})
	b[len(b)-8] = 0xf0
	b[len(b)-7] = 0xff
	_, err = DecodePMT(b)
	assert.ErrorIs(t, err, ErrTruncatedSection)

	// Stream entry overlapping the CRC32
	b = psiSectionBytes(uint8(TableIDPMT), 7, append(pmtBodyBytes(0x100, nil, nil), 0x1b, 0xe1))
	_, err = DecodePMT(b)
	assert.ErrorIs(t, err, ErrTruncatedSection)
}

func TestStreamType(t *testing.T) {
	assert.True(t, StreamTypeH265Video.IsVideo())
	assert.False(t, StreamTypeH265Video.IsAudio())
	assert.True(t, StreamTypeMPEG2HalvedSampleRateAudio.IsAudio())
	assert.False(t, StreamTypeMPEG2PacketizedData.IsAudio())
	assert.False(t, StreamTypeMPEG2PacketizedData.IsVideo())
	assert.Equal(t, "H264 video", StreamTypeH264Video.String())
	assert.Equal(t, "unlisted stream type 134", StreamType(0x86).String())
}

func BenchmarkDecodePMT(b *testing.B) {
	b.ReportAllocs()
	bs := pmtBytes(pmtStreams)

	for i := 0; i < b.N; i++ {
		DecodePMT(bs) //nolint:errcheck
	}
}
