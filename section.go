package astipsi

import "fmt"

// Table types
const (
	TableTypeEIT     = "EIT"
	TableTypePAT     = "PAT"
	TableTypePMT     = "PMT"
	TableTypeUnknown = "Unknown"
)

// TableID is the first byte of every PSI section
type TableID uint8

// Table IDs
// Page: 28 | https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
const (
	TableIDPAT      TableID = 0x00
	TableIDPMT      TableID = 0x02
	TableIDEITStart TableID = 0x4e // actual transport stream, present/following
	TableIDEITEnd   TableID = 0x6f
)

// Section layout
const (
	crc32Size           = 4
	sectionLengthOffset = 3 // table_id + section_syntax_indicator/section_length
)

func (t TableID) String() string {
	switch {
	case t == TableIDPAT:
		return TableTypePAT
	case t == TableIDPMT:
		return TableTypePMT
	case t.IsEIT():
		return TableTypeEIT
	default:
		return TableTypeUnknown
	}
}

// IsEIT checks whether the table id belongs to the EIT range
func (t TableID) IsEIT() bool {
	return t >= TableIDEITStart && t <= TableIDEITEnd
}

// sectionHeader holds the 8 bytes every long-form section starts with.
// The 16 bits following section_length are the table id extension: the
// transport stream id for a PAT, the program number for a PMT and the service
// id for an EIT.
type sectionHeader struct {
	CurrentNextIndicator   bool
	LastSectionNumber      uint8
	SectionLength          uint16
	SectionNumber          uint8
	SectionSyntaxIndicator bool
	TableID                TableID
	TableIDExtension       uint16
	VersionNumber          uint8
}

// parseSectionHeader parses the common header and validates the declared
// section length against minLength and against the buffer. fixedSize is the
// number of bytes the caller's fixed header needs.
func parseSectionHeader(b []byte, fixedSize int, minLength uint16) (h sectionHeader, err error) {
	// Fixed header must be fully available
	if len(b) < fixedSize {
		err = fmt.Errorf("astipsi: %d bytes header needed, got %d: %w", fixedSize, len(b), ErrBufferTooShort)
		return
	}

	r := &fieldReader{b: b}
	h.TableID = TableID(r.uint8(0))
	h.SectionSyntaxIndicator = r.flag(1, 0)
	h.SectionLength = r.uint16(1, 0x0fff)
	h.TableIDExtension = r.uint16(3, 0xffff)
	h.VersionNumber = uint8(r.field(5, 2, 5))
	h.CurrentNextIndicator = r.flag(5, 7)
	h.SectionNumber = r.uint8(6)
	h.LastSectionNumber = r.uint8(7)
	if err = r.err; err != nil {
		err = fmt.Errorf("astipsi: parsing section header failed: %w", err)
		return
	}

	// Section length must be consistent with the protocol
	if h.SectionLength < minLength {
		err = fmt.Errorf("astipsi: %s section length %d < %d: %w", h.TableID, h.SectionLength, minLength, ErrInvalidLength)
		return
	}

	// Section length must not point past the buffer
	if l := h.sectionEnd(); len(b) < l {
		err = fmt.Errorf("astipsi: %s section length %d requires %d bytes, got %d: %w", h.TableID, h.SectionLength, l, len(b), ErrTruncatedSection)
		return
	}
	return
}

// sectionEnd returns the offset following the last byte of the section
func (h sectionHeader) sectionEnd() int {
	return sectionLengthOffset + int(h.SectionLength)
}

// dataEnd returns the offset of the first CRC32 byte
func (h sectionHeader) dataEnd() int {
	return h.sectionEnd() - crc32Size
}
