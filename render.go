package astipsi

import (
	"fmt"
	"strings"
)

// Render dumps every field of a decoded table. Output is deterministic but is
// meant for logs only.
func Render(t Table) string {
	var w strings.Builder
	switch v := t.(type) {
	case *PATTable:
		renderPAT(&w, v)
	case *PMTTable:
		renderPMT(&w, v)
	case *EITTable:
		renderEIT(&w, v)
	default:
		fmt.Fprintf(&w, "unlisted table %T\n", t)
	}
	return w.String()
}

func renderPAT(w *strings.Builder, t *PATTable) {
	h := t.Header
	fmt.Fprintf(w, "PAT\n")
	fmt.Fprintf(w, "  Table ID: %d\n", h.TableID)
	fmt.Fprintf(w, "  Section syntax indicator: %v\n", h.SectionSyntaxIndicator)
	fmt.Fprintf(w, "  Section length: %d\n", h.SectionLength)
	fmt.Fprintf(w, "  Transport stream ID: %d\n", h.TransportStreamID)
	fmt.Fprintf(w, "  Version number: %d\n", h.VersionNumber)
	fmt.Fprintf(w, "  Current next indicator: %v\n", h.CurrentNextIndicator)
	fmt.Fprintf(w, "  Section number: %d\n", h.SectionNumber)
	fmt.Fprintf(w, "  Last section number: %d\n", h.LastSectionNumber)
	renderCount(w, "Programs", t.Programs.Len(), t.Programs.Total())
	for _, e := range t.Programs.items {
		fmt.Fprintf(w, "    Program number: %d | PID: %d\n", e.ProgramNumber, e.PID)
	}
}

func renderPMT(w *strings.Builder, t *PMTTable) {
	h := t.Header
	fmt.Fprintf(w, "PMT\n")
	fmt.Fprintf(w, "  Table ID: %d\n", h.TableID)
	fmt.Fprintf(w, "  Section syntax indicator: %v\n", h.SectionSyntaxIndicator)
	fmt.Fprintf(w, "  Section length: %d\n", h.SectionLength)
	fmt.Fprintf(w, "  Program number: %d\n", h.ProgramNumber)
	fmt.Fprintf(w, "  Version number: %d\n", h.VersionNumber)
	fmt.Fprintf(w, "  Current next indicator: %v\n", h.CurrentNextIndicator)
	fmt.Fprintf(w, "  Section number: %d\n", h.SectionNumber)
	fmt.Fprintf(w, "  Last section number: %d\n", h.LastSectionNumber)
	fmt.Fprintf(w, "  PCR PID: %d\n", h.PCRPID)
	fmt.Fprintf(w, "  Program info length: %d\n", h.ProgramInfoLength)
	renderCount(w, "Streams", t.Streams.Len(), t.Streams.Total())
	for _, e := range t.Streams.items {
		fmt.Fprintf(w, "    Stream type: %d (%s) | Elementary PID: %d | ES info length: %d\n", e.StreamType, e.StreamType, e.ElementaryPID, e.ESInfoLength)
	}
	fmt.Fprintf(w, "  Teletext: %v\n", t.HasTeletext)
}

func renderEIT(w *strings.Builder, t *EITTable) {
	h := t.Header
	fmt.Fprintf(w, "EIT\n")
	fmt.Fprintf(w, "  Table ID: %d\n", h.TableID)
	fmt.Fprintf(w, "  Section syntax indicator: %v\n", h.SectionSyntaxIndicator)
	fmt.Fprintf(w, "  Section length: %d\n", h.SectionLength)
	fmt.Fprintf(w, "  Service ID: %d\n", h.ServiceID)
	fmt.Fprintf(w, "  Version number: %d\n", h.VersionNumber)
	fmt.Fprintf(w, "  Current next indicator: %v\n", h.CurrentNextIndicator)
	fmt.Fprintf(w, "  Section number: %d\n", h.SectionNumber)
	fmt.Fprintf(w, "  Last section number: %d\n", h.LastSectionNumber)
	fmt.Fprintf(w, "  Transport stream ID: %d\n", h.TransportStreamID)
	fmt.Fprintf(w, "  Original network ID: %d\n", h.OriginalNetworkID)
	fmt.Fprintf(w, "  Segment last section number: %d\n", h.SegmentLastSectionNumber)
	fmt.Fprintf(w, "  Last table ID: %d\n", h.LastTableID)
	renderCount(w, "Events", t.Events.Len(), t.Events.Total())
	for _, e := range t.Events.items {
		fmt.Fprintf(w, "    Event ID: %d | Start time: %s | Duration: %s | Running status: %s | Free CA mode: %v | Descriptors loop length: %d\n",
			e.EventID, e.StartTime, e.Duration, runningStatusToString(e.RunningStatus), e.FreeCAMode, e.DescriptorLoopLength)
		for _, d := range e.Descriptors.Items() {
			name, err := d.Name()
			if err != nil {
				name = fmt.Sprintf("%x", d.EventName)
			}
			fmt.Fprintf(w, "      [Short event] language: %s | name: %s\n", d.Language(), name)
		}
	}
}

func renderCount(w *strings.Builder, label string, n, total int) {
	if total > n {
		fmt.Fprintf(w, "  %s: %d (%d in section)\n", label, n, total)
		return
	}
	fmt.Fprintf(w, "  %s: %d\n", label, n)
}

func runningStatusToString(s uint8) string {
	switch s {
	case RunningStatusNotRunning:
		return "not running"
	case RunningStatusStartsInAFewSeconds:
		return "starts in a few seconds"
	case RunningStatusPausing:
		return "pausing"
	case RunningStatusRunning:
		return "running"
	case RunningStatusServiceOffAir:
		return "service off-air"
	}
	return "undefined"
}
