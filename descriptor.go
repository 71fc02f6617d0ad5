package astipsi

import (
	"fmt"

	"github.com/asticode/go-astikit"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ShortEventDescriptor represents a short event descriptor
// Page: 87 | Chapter: 6.2.37 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type ShortEventDescriptor struct {
	Tag             uint8
	Length          uint8
	LanguageCode    [3]byte // ISO 639-2
	EventNameLength uint8
	EventName       []byte // Raw bytes, prefixed by the character table selector if any
	Text            []byte
}

// Language returns the ISO 639-2 language code
func (d ShortEventDescriptor) Language() string {
	return string(d.LanguageCode[:])
}

// Name decodes the event name
func (d ShortEventDescriptor) Name() (string, error) {
	return decodeDVBString(d.EventName)
}

// parseEventDescriptors walks a descriptor loop and keeps its short event
// descriptors. Other descriptors are skipped.
func parseEventDescriptors(b []byte) (ds *Bounded[ShortEventDescriptor], err error) {
	ds = newBounded[ShortEventDescriptor](MaxEventDescriptors)
	i := astikit.NewBytesIterator(b)
	for i.HasBytesLeft() {
		// Tag and length
		var bs []byte
		if bs, err = i.NextBytesNoCopy(2); err != nil {
			err = fmt.Errorf("astipsi: fetching descriptor #%d header failed: %s: %w", ds.Total(), err, ErrTruncatedSection)
			return
		}

		// Data
		var data []byte
		if data, err = i.NextBytes(int(bs[1])); err != nil {
			err = fmt.Errorf("astipsi: fetching descriptor 0x%x data failed: %s: %w", bs[0], err, ErrTruncatedSection)
			return
		}

		if bs[0] != DescriptorTagShortEvent {
			logger.Debugf("astipsi: skipping event descriptor 0x%x", bs[0])
			continue
		}

		var d ShortEventDescriptor
		if d, err = newShortEventDescriptor(bs[0], bs[1], data); err != nil {
			err = fmt.Errorf("astipsi: parsing short event descriptor failed: %w", err)
			return
		}
		ds.add(d)
	}
	return
}

func newShortEventDescriptor(tag, length uint8, data []byte) (d ShortEventDescriptor, err error) {
	d = ShortEventDescriptor{Tag: tag, Length: length}
	i := astikit.NewBytesIterator(data)

	// Language code
	var bs []byte
	if bs, err = i.NextBytesNoCopy(3); err != nil {
		err = fmt.Errorf("%s: %w", err, ErrTruncatedSection)
		return
	}
	copy(d.LanguageCode[:], bs)

	// Event name
	var b byte
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("%s: %w", err, ErrTruncatedSection)
		return
	}
	d.EventNameLength = b
	if d.EventName, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("%s: %w", err, ErrTruncatedSection)
		return
	}

	// Text, some muxers omit it
	if !i.HasBytesLeft() {
		return
	}
	if b, err = i.NextByte(); err != nil {
		err = fmt.Errorf("%s: %w", err, ErrTruncatedSection)
		return
	}
	if d.Text, err = i.NextBytes(int(b)); err != nil {
		err = fmt.Errorf("%s: %w", err, ErrTruncatedSection)
		return
	}
	return
}

// decodeDVBString decodes a string using the character table selected by its
// first byte
// Page: 128 | Annex A | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
func decodeDVBString(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	var e encoding.Encoding
	switch c := b[0]; {
	case c >= 0x20:
		// Default table is ISO/IEC 6937 which shares its printable ASCII
		// range with ISO/IEC 8859-1
		e = charmap.ISO8859_1
	case c == 0x10:
		if len(b) < 3 {
			return "", fmt.Errorf("astipsi: dynamic character table selector is %d bytes long: %w", len(b), ErrBufferTooShort)
		}
		var ok bool
		if e, ok = iso8859Tables[b[2]]; !ok {
			return "", fmt.Errorf("astipsi: unsupported ISO/IEC 8859 part %d", b[2])
		}
		b = b[3:]
	case c == 0x11:
		e = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		b = b[1:]
	case c == 0x15:
		return string(b[1:]), nil
	default:
		var ok bool
		if e, ok = fixedTables[c]; !ok {
			return "", fmt.Errorf("astipsi: unsupported character table 0x%x", c)
		}
		b = b[1:]
	}

	o, err := e.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("astipsi: decoding string failed: %w", err)
	}
	return string(o), nil
}

var fixedTables = map[byte]encoding.Encoding{
	0x01: charmap.ISO8859_5,
	0x02: charmap.ISO8859_6,
	0x03: charmap.ISO8859_7,
	0x04: charmap.ISO8859_8,
	0x05: charmap.ISO8859_9,
	0x06: charmap.ISO8859_10,
	0x09: charmap.ISO8859_13,
	0x0a: charmap.ISO8859_14,
	0x0b: charmap.ISO8859_15,
}

var iso8859Tables = map[byte]encoding.Encoding{
	0x01: charmap.ISO8859_1,
	0x02: charmap.ISO8859_2,
	0x03: charmap.ISO8859_3,
	0x04: charmap.ISO8859_4,
	0x05: charmap.ISO8859_5,
	0x06: charmap.ISO8859_6,
	0x07: charmap.ISO8859_7,
	0x08: charmap.ISO8859_8,
	0x09: charmap.ISO8859_9,
	0x0a: charmap.ISO8859_10,
	0x0d: charmap.ISO8859_13,
	0x0e: charmap.ISO8859_14,
	0x0f: charmap.ISO8859_15,
	0x10: charmap.ISO8859_16,
}
