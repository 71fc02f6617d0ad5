package astipsi

import (
	"fmt"
	"time"
)

// Running statuses
// Page: 30 | Chapter: 5.2.4 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
const (
	RunningStatusUndefined           = 0
	RunningStatusNotRunning          = 1
	RunningStatusStartsInAFewSeconds = 2
	RunningStatusPausing             = 3
	RunningStatusRunning             = 4
	RunningStatusServiceOffAir       = 5
)

// DVBTime is the raw 40 bits start time of an event: 16 bits giving the 16
// LSBs of the MJD followed by 24 bits coded as 6 digits in 4-bit BCD. If the
// start time is undefined (e.g. for an event in a NVOD reference service) all
// bits are set to 1.
//
// Page: 160 | Annex C | Link:
// https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type DVBTime [5]byte

// IsUndefined checks whether all bits are set
func (t DVBTime) IsUndefined() bool {
	return t == DVBTime{0xff, 0xff, 0xff, 0xff, 0xff}
}

// MJD returns the modified julian date
func (t DVBTime) MJD() uint16 {
	return uint16(t[0])<<8 | uint16(t[1])
}

// Time converts the MJD and BCD parts to an UTC time
func (t DVBTime) Time() (time.Time, error) {
	if t.IsUndefined() {
		return time.Time{}, fmt.Errorf("astipsi: start time is undefined")
	}

	// Date
	mjd := float64(t.MJD())
	yt := int((mjd - 15078.2) / 365.25)
	mt := int((mjd - 14956.1 - float64(int(float64(yt)*365.25))) / 30.6001)
	d := int(mjd) - 14956 - int(float64(yt)*365.25) - int(float64(mt)*30.6001)
	var k int
	if mt == 14 || mt == 15 {
		k = 1
	}
	y := 1900 + yt + k
	m := mt - 1 - k*12

	// Time of day
	s, err := bcdDuration(t[2], t[3], t[4])
	if err != nil {
		return time.Time{}, fmt.Errorf("astipsi: parsing start time of day failed: %w", err)
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Add(s), nil
}

func (t DVBTime) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x", t[0], t[1], t[2], t[3], t[4])
}

// DVBDuration is the raw 24 bits duration of an event: hours, minutes and
// seconds as 6 digits in 4-bit BCD. 02:25:30 is coded as 0x022530.
type DVBDuration [3]byte

// Duration converts the BCD digits
func (d DVBDuration) Duration() (time.Duration, error) {
	return bcdDuration(d[0], d[1], d[2])
}

func (d DVBDuration) String() string {
	return fmt.Sprintf("%02x:%02x:%02x", d[0], d[1], d[2])
}

// bcdDuration converts hours, minutes and seconds BCD bytes
func bcdDuration(h, m, s byte) (d time.Duration, err error) {
	for _, b := range []byte{h, m, s} {
		if b>>4 > 9 || b&0xf > 9 {
			err = fmt.Errorf("astipsi: 0x%02x is not a valid BCD byte", b)
			return
		}
	}
	d = bcdByte(h)*time.Hour + //nolint:durationcheck
		bcdByte(m)*time.Minute + //nolint:durationcheck
		bcdByte(s)*time.Second //nolint:durationcheck
	return
}

// bcdByte converts a 2 digits BCD byte
func bcdByte(i byte) time.Duration {
	return time.Duration(i>>4*10 + i&0xf)
}
