package astipsi

import "fmt"

// Table is implemented by every decoded table
type Table interface {
	TableID() TableID
	// Err returns a *CapacityError when entries were dropped
	Err() error
}

type decodeOptions struct {
	eventDescriptors bool
}

// DecodeOpt represents a decode option
type DecodeOpt func(o *decodeOptions)

// EITOptShortEventDescriptors returns the option to walk the descriptor loop
// of EIT events and keep their short event descriptors
func EITOptShortEventDescriptors() DecodeOpt {
	return func(o *decodeOptions) {
		o.eventDescriptors = true
	}
}

func newDecodeOptions(opts []DecodeOpt) (o decodeOptions) {
	for _, opt := range opts {
		opt(&o)
	}
	return
}

// DecodeSection decodes a section with the decoder matching its table id
func DecodeSection(b []byte, opts ...DecodeOpt) (t Table, err error) {
	if len(b) == 0 {
		err = fmt.Errorf("astipsi: empty section: %w", ErrBufferTooShort)
		return
	}

	switch id := TableID(b[0]); {
	case id == TableIDPAT:
		var pat *PATTable
		if pat, err = DecodePAT(b); err != nil {
			return
		}
		t = pat
	case id == TableIDPMT:
		var pmt *PMTTable
		if pmt, err = DecodePMT(b); err != nil {
			return
		}
		t = pmt
	case id.IsEIT():
		var eit *EITTable
		if eit, err = DecodeEIT(b, opts...); err != nil {
			return
		}
		t = eit
	default:
		err = fmt.Errorf("astipsi: table id 0x%x: %w", uint8(id), ErrUnsupportedTable)
	}
	return
}
