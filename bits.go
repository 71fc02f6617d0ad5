package astipsi

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// readField extracts an unsigned field of width bits. The field starts bit bits
// into the big-endian bytes located at offset, bit 0 being the most significant
// bit of b[offset]. Bytes are combined as (hi << 8) | lo before the field is
// shifted down and masked.
func readField[T constraints.Unsigned](b []byte, offset, bit, width int) (v T, err error) {
	if offset < 0 || bit < 0 || width <= 0 || bit+width > 64 {
		err = fmt.Errorf("astipsi: invalid field at offset %d bit %d width %d", offset, bit, width)
		return
	}

	// Number of bytes spanned by the field
	n := (bit + width + 7) / 8
	if offset+n > len(b) {
		err = fmt.Errorf("astipsi: reading %d bits at offset %d of a %d bytes buffer: %w", width, offset, len(b), ErrBufferTooShort)
		return
	}

	var u uint64
	for _, c := range b[offset : offset+n] {
		u = u<<8 | uint64(c)
	}
	u >>= uint(n*8 - bit - width)
	if width < 64 {
		u &= uint64(1)<<uint(width) - 1
	}
	v = T(u)
	return
}

// readUint8 reads the byte at offset
func readUint8(b []byte, offset int) (uint8, error) {
	return readField[uint8](b, offset, 0, 8)
}

// readUint16 reads the big-endian 16 bits value at offset and applies mask
func readUint16(b []byte, offset int, mask uint16) (v uint16, err error) {
	if v, err = readField[uint16](b, offset, 0, 16); err != nil {
		return
	}
	v &= mask
	return
}

// fieldReader chains reads over the same buffer and keeps the first error, so
// that fixed headers can be parsed without checking every single field.
type fieldReader struct {
	b   []byte
	err error
}

func (r *fieldReader) field(offset, bit, width int) uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	v, r.err = readField[uint64](r.b, offset, bit, width)
	return v
}

func (r *fieldReader) uint8(offset int) uint8 {
	return uint8(r.field(offset, 0, 8))
}

func (r *fieldReader) uint16(offset int, mask uint16) uint16 {
	return uint16(r.field(offset, 0, 16)) & mask
}

func (r *fieldReader) flag(offset, bit int) bool {
	return r.field(offset, bit, 1) == 1
}
