package astipsi

import (
	"sync"

	"golang.org/x/exp/slices"
)

// programMap represents a program numbers map
type programMap struct {
	m *sync.Mutex
	p map[uint16]uint16 // map[ProgramNumber]PMTPID
}

// newProgramMap creates a new program numbers map
func newProgramMap() programMap {
	return programMap{
		m: &sync.Mutex{},
		p: make(map[uint16]uint16),
	}
}

// get returns the PMT PID of the program
func (m programMap) get(number uint16) (pid uint16, ok bool) {
	m.m.Lock()
	defer m.m.Unlock()
	pid, ok = m.p[number]
	return
}

// setPAT replaces the map content with the programs of a PAT. Program number 0
// is reserved to the NIT and is skipped.
func (m programMap) setPAT(t *PATTable) {
	m.m.Lock()
	defer m.m.Unlock()
	for k := range m.p {
		delete(m.p, k)
	}
	for _, e := range t.Programs.items {
		if e.ProgramNumber > 0 {
			m.p[e.ProgramNumber] = e.PID
		}
	}
}

// numbers returns the sorted program numbers
func (m programMap) numbers() (ns []uint16) {
	m.m.Lock()
	defer m.m.Unlock()
	for n := range m.p {
		ns = append(ns, n)
	}
	slices.Sort(ns)
	return
}
