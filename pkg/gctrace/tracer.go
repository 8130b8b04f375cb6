// Package gctrace tails a file or fifo carrying the Go runtime's gctrace
// output and turns collection lines into structured events.
package gctrace

import (
	"context"
	"regexp"
	"strconv"
	"syscall"
	"time"

	"github.com/containerd/fifo"
	"github.com/nxadm/tail"
)

// lineRe matches runtime gctrace collection lines, for example:
//
//	gc 12 @35.129s 0%: 0.022+2.2+0.005 ms clock, ... 11->12->6 MB, 12 MB goal, ...
var lineRe = regexp.MustCompile(`^gc (\d+) @([\d.]+)s (\d+)%: .* (\d+)->(\d+)->(\d+) MB, (\d+) MB goal`)

// Event is one parsed garbage collection.
type Event struct {
	Sequence int           `json:"sequence"`
	Uptime   time.Duration `json:"uptime"`
	// UtilPct is the fraction of available CPU spent in GC since program
	// start, as reported by the runtime.
	UtilPct     int    `json:"util_pct"`
	HeapStartMB uint64 `json:"heap_start_mb"`
	HeapEndMB   uint64 `json:"heap_end_mb"`
	HeapLiveMB  uint64 `json:"heap_live_mb"`
	GoalMB      uint64 `json:"goal_mb"`
	Err         error  `json:"-"`
}

// Tracer follows a gctrace stream. Lines that are not collection records,
// such as interleaved application output, are skipped.
type Tracer struct {
	tail   *tail.Tail
	Events chan *Event
}

// NewTracer tails path. With createFifo the path is created as a named pipe
// first, which lets the traced process open it for writing later.
func NewTracer(path string, createFifo bool) (*Tracer, error) {
	if createFifo {
		f, err := fifo.OpenFifo(context.Background(), path, syscall.O_CREAT|syscall.O_RDONLY|syscall.O_NONBLOCK, 0655)
		if err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}

	t, err := tail.TailFile(path, tail.Config{
		ReOpen: true,
		Pipe:   true,
		Follow: true,
		Logger: tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	return &Tracer{
		tail:   t,
		Events: make(chan *Event),
	}, nil
}

func (t *Tracer) Stop() error {
	return t.tail.Stop()
}

// Start consumes the tailed stream until Stop is called, publishing parsed
// collections on Events.
func (t *Tracer) Start() {
	for line := range t.tail.Lines {
		if line.Err != nil {
			t.Events <- &Event{Err: line.Err}
			continue
		}

		if ev, ok := parseLine(line.Text); ok {
			t.Events <- ev
		}
	}
}

func parseLine(text string) (*Event, bool) {
	m := lineRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}

	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	uptimeSec, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, false
	}
	util, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, false
	}

	ev := &Event{
		Sequence: seq,
		Uptime:   time.Duration(uptimeSec * float64(time.Second)),
		UtilPct:  util,
	}

	fields := []*uint64{&ev.HeapStartMB, &ev.HeapEndMB, &ev.HeapLiveMB, &ev.GoalMB}
	for i, dst := range fields {
		v, err := strconv.ParseUint(m[4+i], 10, 64)
		if err != nil {
			return nil, false
		}
		*dst = v
	}

	return ev, true
}
