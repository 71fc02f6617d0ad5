package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/asticode/go-astikit"
	"github.com/asticode/go-astipsi"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"
)

// Flags
var (
	ctx, cancel      = context.WithCancel(context.Background())
	cpuProfiling     = flag.Bool("cp", false, "if yes, cpu profiling is enabled")
	dataTypes        = astikit.NewFlagStrings()
	eventDescriptors = flag.Bool("e", false, "if yes, short event descriptors of EIT events are decoded")
	format           = flag.String("f", "", "the format")
	hexSections      = astikit.NewFlagStrings()
	inputPaths       = astikit.NewFlagStrings()
	memoryProfiling  = flag.Bool("mp", false, "if yes, memory profiling is enabled")
	verbose          = flag.Bool("v", false, "if yes, decoder debug messages are logged")
)

// section represents a decoded input
type section struct {
	Err    string        `json:"error,omitempty"`
	Source string        `json:"source"`
	Table  astipsi.Table `json:"table,omitempty"`
	Type   string        `json:"type,omitempty"`
}

func main() {
	// Init
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s <decode|summary>:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Var(dataTypes, "d", "the datatypes whitelist (all, pat, pmt, eit)")
	flag.Var(hexSections, "x", "a section as an hex string")
	flag.Var(inputPaths, "i", "the path of a file containing exactly one section")
	cmd := astikit.FlagCmd()
	flag.Parse()

	// Handle signals
	handleSignals()

	// Start profiling
	if *cpuProfiling {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	} else if *memoryProfiling {
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	// Logger
	if *verbose {
		astipsi.SetLogger(log.Default())
	}

	// Decode
	ss, err := decode(ctx)
	if err != nil {
		log.Fatal(fmt.Errorf("astipsi: decoding sections failed: %w", err))
	}

	// Filter
	ss = filter(ss)

	// Print
	switch *format {
	case "json":
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "  ")
		if err = e.Encode(ss); err != nil {
			log.Fatal(fmt.Errorf("astipsi: json encoding to stdout failed: %w", err))
		}
	default:
		for _, s := range ss {
			switch cmd {
			case "summary":
				fmt.Println(summary(s))
			default:
				if s.Err != "" {
					fmt.Printf("%s: %s\n", s.Source, s.Err)
					continue
				}
				fmt.Printf("%s:\n%s", s.Source, astipsi.Render(s.Table))
			}
		}
	}
}

func handleSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch)
	go func() {
		for s := range ch {
			if s != syscall.SIGURG {
				log.Printf("Received signal %s\n", s)
			}
			switch s {
			case syscall.SIGABRT, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				cancel()
				return
			}
		}
	}()
}

type input struct {
	name string
	read func() ([]byte, error)
}

func inputs() (is []input, err error) {
	for _, p := range *inputPaths.Slice {
		p := p
		is = append(is, input{name: p, read: func() ([]byte, error) { return os.ReadFile(p) }})
	}
	for idx, x := range *hexSections.Slice {
		x := x
		is = append(is, input{
			name: fmt.Sprintf("hex #%d", idx+1),
			read: func() ([]byte, error) {
				return hex.DecodeString(strings.Join(strings.Fields(x), ""))
			},
		})
	}
	if len(is) == 0 {
		err = errors.New("use -i or -x to indicate a section")
	}
	return
}

// decode decodes every input concurrently, keeping the inputs order
func decode(ctx context.Context) (ss []section, err error) {
	var is []input
	if is, err = inputs(); err != nil {
		return
	}

	var opts []astipsi.DecodeOpt
	if *eventDescriptors {
		opts = append(opts, astipsi.EITOptShortEventDescriptors())
	}

	ss = make([]section, len(is))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for idx, i := range is {
		idx, i := idx, i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			b, err := i.read()
			if err != nil {
				return fmt.Errorf("astipsi: reading %s failed: %w", i.name, err)
			}

			s := section{Source: i.name}
			if len(b) > 0 {
				s.Type = astipsi.TableID(b[0]).String()
			}
			if s.Table, err = astipsi.DecodeSection(b, opts...); err != nil {
				s.Err = err.Error()
			}
			ss[idx] = s
			return nil
		})
	}
	err = g.Wait()
	return
}

func filter(ss []section) (o []section) {
	if len(dataTypes.Map) == 0 || dataTypes.Map["all"] {
		return ss
	}
	for _, s := range ss {
		if dataTypes.Map[strings.ToLower(s.Type)] {
			o = append(o, s)
		}
	}
	return
}

func summary(s section) string {
	if s.Err != "" {
		return fmt.Sprintf("%s | %s | error: %s", s.Source, s.Type, s.Err)
	}
	o := fmt.Sprintf("%s | %s", s.Source, s.Type)
	switch t := s.Table.(type) {
	case *astipsi.PATTable:
		o += fmt.Sprintf(" | ts id: %d | programs: %d/%d", t.Header.TransportStreamID, t.Programs.Len(), t.Programs.Total())
	case *astipsi.PMTTable:
		o += fmt.Sprintf(" | program: %d | streams: %d/%d | teletext: %v", t.Header.ProgramNumber, t.Streams.Len(), t.Streams.Total(), t.HasTeletext)
	case *astipsi.EITTable:
		o += fmt.Sprintf(" | service id: %d | events: %d", t.Header.ServiceID, t.Events.Len())
	}
	if err := s.Table.Err(); err != nil {
		o += " | " + err.Error()
	}
	return o
}
