package astipsi

import "fmt"

// PMT layout
const (
	pmtEntrySize        = 5
	pmtHeaderSize       = 12
	pmtMinSectionLength = 13 // 9 fixed bytes after section_length and 4 CRC32 bytes
)

// Descriptor tags
// Page: 42 | Chapter: 6.1 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
const (
	DescriptorTagShortEvent = 0x4d
	DescriptorTagTeletext   = 0x56
)

// StreamType is the type of an elementary stream announced in a PMT
type StreamType uint8

// Stream types
const (
	StreamTypeMPEG1Video                 StreamType = 0x01 // ISO/IEC 11172-2
	StreamTypeMPEG2Video                 StreamType = 0x02 // ITU-T Rec. H.262 and ISO/IEC 13818-2
	StreamTypeMPEG1Audio                 StreamType = 0x03 // ISO/IEC 11172-3
	StreamTypeMPEG2HalvedSampleRateAudio StreamType = 0x04 // ISO/IEC 13818-3
	StreamTypeMPEG2PacketizedData        StreamType = 0x06 // ITU-T Rec. H.222 and ISO/IEC 13818-1 i.e., DVB subtitles/VBI and AC-3
	StreamTypeADTS                       StreamType = 0x0f // ISO/IEC 13818-7 Audio with ADTS transport syntax
	StreamTypeH264Video                  StreamType = 0x1b // ITU-T Rec. H.264 and ISO/IEC 14496-10
	StreamTypeH265Video                  StreamType = 0x24 // ITU-T Rec. H.265 and ISO/IEC 23008-2
)

// IsVideo checks whether the stream type is a video one
func (t StreamType) IsVideo() bool {
	switch t {
	case StreamTypeMPEG1Video, StreamTypeMPEG2Video, StreamTypeH264Video, StreamTypeH265Video:
		return true
	}
	return false
}

// IsAudio checks whether the stream type is an audio one
func (t StreamType) IsAudio() bool {
	switch t {
	case StreamTypeMPEG1Audio, StreamTypeMPEG2HalvedSampleRateAudio, StreamTypeADTS:
		return true
	}
	return false
}

func (t StreamType) String() string {
	switch t {
	case StreamTypeMPEG1Video:
		return "MPEG-1 video"
	case StreamTypeMPEG2Video:
		return "MPEG-2 video"
	case StreamTypeMPEG1Audio:
		return "MPEG-1 audio"
	case StreamTypeMPEG2HalvedSampleRateAudio:
		return "MPEG-2 halved sample rate audio"
	case StreamTypeMPEG2PacketizedData:
		return "DVB subtitles/VBI or AC-3"
	case StreamTypeADTS:
		return "ADTS"
	case StreamTypeH264Video:
		return "H264 video"
	case StreamTypeH265Video:
		return "H265 video"
	}
	return fmt.Sprintf("unlisted stream type %d", uint8(t))
}

// PMTHeader represents a PMT header
// https://en.wikipedia.org/wiki/Program-specific_information
type PMTHeader struct {
	TableID                TableID
	SectionSyntaxIndicator bool
	SectionLength          uint16
	ProgramNumber          uint16
	VersionNumber          uint8
	CurrentNextIndicator   bool
	SectionNumber          uint8
	LastSectionNumber      uint8
	PCRPID                 uint16 // The packet identifier carrying the PCR. 0x1FFF if unused.
	ProgramInfoLength      uint16 // Number of bytes of program descriptors following the header
}

// PMTEntry represents a PMT elementary stream
type PMTEntry struct {
	StreamType    StreamType
	ElementaryPID uint16 // The packet identifier carrying the elementary stream
	ESInfoLength  uint16 // Number of bytes of elementary stream descriptors following the entry
}

// PMTTable represents a decoded PMT section
type PMTTable struct {
	Header      PMTHeader
	Streams     *Bounded[PMTEntry]
	HasTeletext bool // Whether at least one kept stream starts its descriptors with a teletext descriptor
}

// TableID implements the Table interface
func (t *PMTTable) TableID() TableID { return t.Header.TableID }

// Err returns a *CapacityError if streams were dropped, nil otherwise
func (t *PMTTable) Err() error { return t.Streams.capacityErr(TableTypePMT) }

// StreamsOfType returns the kept streams matching fn, in section order
func (t *PMTTable) StreamsOfType(fn func(StreamType) bool) (es []PMTEntry) {
	for _, e := range t.Streams.items {
		if fn(e.StreamType) {
			es = append(es, e)
		}
	}
	return
}

// VideoStream returns the first video stream
func (t *PMTTable) VideoStream() (PMTEntry, bool) {
	if es := t.StreamsOfType(StreamType.IsVideo); len(es) > 0 {
		return es[0], true
	}
	return PMTEntry{}, false
}

// AudioStreams returns the audio streams
func (t *PMTTable) AudioStreams() []PMTEntry {
	return t.StreamsOfType(StreamType.IsAudio)
}

// DecodePMT decodes a PMT section
func DecodePMT(b []byte) (t *PMTTable, err error) {
	// Parse header
	var h sectionHeader
	if h, err = parseSectionHeader(b, pmtHeaderSize, pmtMinSectionLength); err != nil {
		err = fmt.Errorf("astipsi: parsing PMT header failed: %w", err)
		return
	}

	// Init
	t = &PMTTable{
		Header: PMTHeader{
			TableID:                h.TableID,
			SectionSyntaxIndicator: h.SectionSyntaxIndicator,
			SectionLength:          h.SectionLength,
			ProgramNumber:          h.TableIDExtension,
			VersionNumber:          h.VersionNumber,
			CurrentNextIndicator:   h.CurrentNextIndicator,
			SectionNumber:          h.SectionNumber,
			LastSectionNumber:      h.LastSectionNumber,
		},
		Streams: newBounded[PMTEntry](MaxPMTStreams),
	}

	// PCR PID and program info length
	r := &fieldReader{b: b}
	t.Header.PCRPID = r.uint16(8, 0x1fff)
	t.Header.ProgramInfoLength = r.uint16(10, 0x0fff)
	if err = r.err; err != nil {
		return nil, fmt.Errorf("astipsi: parsing PMT header failed: %w", err)
	}

	// Loop through elementary streams
	if err = parsePMTStreams(b, t, h.dataEnd()); err != nil {
		return nil, fmt.Errorf("astipsi: parsing PMT streams failed: %w", err)
	}

	if err := t.Err(); err != nil {
		logger.Debugf("%s", err)
	}
	return
}

// parsePMTStreams walks the elementary stream loop which starts right after
// the program descriptors and stops at the CRC32. Every read and every skip is
// checked against end, which never exceeds the buffer length.
func parsePMTStreams(b []byte, t *PMTTable, end int) (err error) {
	cursor := pmtHeaderSize + int(t.Header.ProgramInfoLength)
	if cursor > end {
		return fmt.Errorf("astipsi: program info length %d points past offset %d: %w", t.Header.ProgramInfoLength, end, ErrTruncatedSection)
	}

	for cursor < end {
		// Entry fixed part
		if cursor+pmtEntrySize > end {
			return fmt.Errorf("astipsi: stream #%d at offset %d overlaps offset %d: %w", t.Streams.Total(), cursor, end, ErrTruncatedSection)
		}
		var e PMTEntry
		var st uint8
		if st, err = readUint8(b, cursor); err != nil {
			return
		}
		e.StreamType = StreamType(st)
		if e.ElementaryPID, err = readUint16(b, cursor+1, 0x1fff); err != nil {
			return
		}
		if e.ESInfoLength, err = readUint16(b, cursor+3, 0x0fff); err != nil {
			return
		}
		cursor += pmtEntrySize

		// Descriptors must fit in the section
		if cursor+int(e.ESInfoLength) > end {
			return fmt.Errorf("astipsi: stream #%d es info length %d overlaps offset %d: %w", t.Streams.Total(), e.ESInfoLength, end, ErrTruncatedSection)
		}

		// Teletext is sticky and only looked for in kept streams
		kept := t.Streams.add(e)
		if kept && !t.HasTeletext && e.ESInfoLength > 0 && b[cursor] == DescriptorTagTeletext {
			t.HasTeletext = true
		}

		// Skip descriptors
		cursor += int(e.ESInfoLength)
	}
	return
}
