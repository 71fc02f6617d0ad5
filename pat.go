package astipsi

import "fmt"

// PAT layout
const (
	patEntrySize        = 4
	patHeaderSize       = 8
	patMinSectionLength = 8
	patOverhead         = 10 // bytes of section_length not counted as program entries
)

// PATHeader represents a PAT header
// https://en.wikipedia.org/wiki/Program-specific_information
type PATHeader struct {
	TableID                TableID
	SectionSyntaxIndicator bool
	SectionLength          uint16 // Number of bytes following the section length field, CRC32 included
	TransportStreamID      uint16
	VersionNumber          uint8
	CurrentNextIndicator   bool
	SectionNumber          uint8
	LastSectionNumber      uint8
}

// PATEntry represents a PAT program
type PATEntry struct {
	ProgramNumber uint16 // Relates to the program number of the associated PMT. 0 is reserved for the NIT PID.
	PID           uint16 // The packet identifier carrying the associated PMT
}

// PATTable represents a decoded PAT section
type PATTable struct {
	Header   PATHeader
	Programs *Bounded[PATEntry]
}

// TableID implements the Table interface
func (t *PATTable) TableID() TableID { return t.Header.TableID }

// Err returns a *CapacityError if programs were dropped, nil otherwise
func (t *PATTable) Err() error { return t.Programs.capacityErr(TableTypePAT) }

// PMTPID returns the PID carrying the PMT of the program
func (t *PATTable) PMTPID(programNumber uint16) (uint16, bool) {
	for _, e := range t.Programs.items {
		if e.ProgramNumber == programNumber {
			return e.PID, true
		}
	}
	return 0, false
}

// NetworkPID returns the NIT PID announced by program number 0
func (t *PATTable) NetworkPID() (uint16, bool) {
	return t.PMTPID(0)
}

// patEntryCount returns the number of entries a PAT section length accounts for
func patEntryCount(sectionLength uint16) int {
	if sectionLength < patOverhead {
		return 0
	}
	return int(sectionLength-patOverhead) / patEntrySize
}

// DecodePAT decodes a PAT section
func DecodePAT(b []byte) (t *PATTable, err error) {
	// Parse header
	var h sectionHeader
	if h, err = parseSectionHeader(b, patHeaderSize, patMinSectionLength); err != nil {
		err = fmt.Errorf("astipsi: parsing PAT header failed: %w", err)
		return
	}

	// Init
	t = &PATTable{
		Header: PATHeader{
			TableID:                h.TableID,
			SectionSyntaxIndicator: h.SectionSyntaxIndicator,
			SectionLength:          h.SectionLength,
			TransportStreamID:      h.TableIDExtension,
			VersionNumber:          h.VersionNumber,
			CurrentNextIndicator:   h.CurrentNextIndicator,
			SectionNumber:          h.SectionNumber,
			LastSectionNumber:      h.LastSectionNumber,
		},
		Programs: newBounded[PATEntry](MaxPATPrograms),
	}

	// Loop through entries
	count := patEntryCount(h.SectionLength)
	for i := 0; i < count; i++ {
		// Entries beyond capacity are only counted
		if t.Programs.full() {
			t.Programs.total = count
			break
		}

		offset := patHeaderSize + patEntrySize*i
		var e PATEntry
		if e.ProgramNumber, err = readUint16(b, offset, 0xffff); err != nil {
			err = fmt.Errorf("astipsi: reading PAT program #%d number failed: %w", i, err)
			return nil, err
		}
		if e.PID, err = readUint16(b, offset+2, 0x1fff); err != nil {
			err = fmt.Errorf("astipsi: reading PAT program #%d pid failed: %w", i, err)
			return nil, err
		}
		t.Programs.add(e)
	}

	if err := t.Err(); err != nil {
		logger.Debugf("%s", err)
	}
	return
}
