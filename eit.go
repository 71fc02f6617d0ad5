package astipsi

import "fmt"

// EIT layout
const (
	eitEventOffset      = 13
	eitEventSize        = 12
	eitHeaderSize       = 14
	eitMinSectionLength = 11 // header bytes following section_length
)

// EITHeader represents an EIT header
// Page: 36 | Chapter: 5.2.4 | Link:
// https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type EITHeader struct {
	TableID                  TableID
	SectionSyntaxIndicator   bool
	SectionLength            uint16
	ServiceID                uint16
	VersionNumber            uint8
	CurrentNextIndicator     bool
	SectionNumber            uint8
	LastSectionNumber        uint8
	TransportStreamID        uint16
	OriginalNetworkID        uint16
	SegmentLastSectionNumber uint8
	LastTableID              uint8
}

// EITEvent represents an EIT event. Start time and duration are kept as
// they were found on the wire.
type EITEvent struct {
	EventID              uint16
	StartTime            DVBTime
	Duration             DVBDuration
	RunningStatus        uint8
	FreeCAMode           bool // Whether one or more streams may be controlled by a CA system
	DescriptorLoopLength uint16

	// Only populated with EITOptShortEventDescriptors
	Descriptors *Bounded[ShortEventDescriptor]
}

// EITTable represents a decoded EIT section. Only the first event of the
// section is decoded.
type EITTable struct {
	Header EITHeader
	Events *Bounded[EITEvent]
}

// TableID implements the Table interface
func (t *EITTable) TableID() TableID { return t.Header.TableID }

// Err returns a *CapacityError if events or descriptors were dropped, nil otherwise
func (t *EITTable) Err() error {
	if err := t.Events.capacityErr(TableTypeEIT); err != nil {
		return err
	}
	for _, e := range t.Events.items {
		if err := e.Descriptors.capacityErr(TableTypeEIT + " event descriptors"); err != nil {
			return err
		}
	}
	return nil
}

// DecodeEIT decodes an EIT section
func DecodeEIT(b []byte, opts ...DecodeOpt) (t *EITTable, err error) {
	o := newDecodeOptions(opts)

	// Parse header
	var h sectionHeader
	if h, err = parseSectionHeader(b, eitHeaderSize, eitMinSectionLength); err != nil {
		err = fmt.Errorf("astipsi: parsing EIT header failed: %w", err)
		return
	}

	// Init
	t = &EITTable{
		Header: EITHeader{
			TableID:                h.TableID,
			SectionSyntaxIndicator: h.SectionSyntaxIndicator,
			SectionLength:          h.SectionLength,
			ServiceID:              h.TableIDExtension,
			VersionNumber:          h.VersionNumber,
			CurrentNextIndicator:   h.CurrentNextIndicator,
			SectionNumber:          h.SectionNumber,
			LastSectionNumber:      h.LastSectionNumber,
		},
		Events: newBounded[EITEvent](MaxEITEvents),
	}

	// Header extension
	r := &fieldReader{b: b}
	t.Header.TransportStreamID = r.uint16(8, 0xffff)
	t.Header.OriginalNetworkID = r.uint16(10, 0xffff)
	t.Header.SegmentLastSectionNumber = r.uint8(12)
	t.Header.LastTableID = r.uint8(13)
	if err = r.err; err != nil {
		return nil, fmt.Errorf("astipsi: parsing EIT header failed: %w", err)
	}

	// No event
	end := h.dataEnd()
	if end < eitEventOffset+eitEventSize {
		return
	}

	// Parse first event
	var e EITEvent
	if e, err = parseEITEvent(b, eitEventOffset, end, o); err != nil {
		return nil, fmt.Errorf("astipsi: parsing EIT event failed: %w", err)
	}
	t.Events.add(e)

	if err := t.Err(); err != nil {
		logger.Debugf("%s", err)
	}
	return
}

// parseEITEvent parses the event starting at offset. end is the offset of the
// first CRC32 byte.
func parseEITEvent(b []byte, offset, end int, o decodeOptions) (e EITEvent, err error) {
	r := &fieldReader{b: b}
	e.EventID = r.uint16(offset, 0xffff)
	copy(e.StartTime[:], b[offset+2:offset+7])
	copy(e.Duration[:], b[offset+7:offset+10])
	e.RunningStatus = uint8(r.field(offset+10, 0, 3))
	e.FreeCAMode = r.flag(offset+10, 3)
	e.DescriptorLoopLength = r.uint16(offset+10, 0x0fff)
	if err = r.err; err != nil {
		return
	}

	// Descriptors
	if !o.eventDescriptors {
		return
	}
	start := offset + eitEventSize
	if start+int(e.DescriptorLoopLength) > end {
		err = fmt.Errorf("astipsi: descriptor loop length %d overlaps offset %d: %w", e.DescriptorLoopLength, end, ErrTruncatedSection)
		return
	}
	if e.Descriptors, err = parseEventDescriptors(b[start : start+int(e.DescriptorLoopLength)]); err != nil {
		err = fmt.Errorf("astipsi: parsing event descriptors failed: %w", err)
		return
	}
	return
}
