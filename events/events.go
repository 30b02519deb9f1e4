// Package events carries the per-interaction model.Event records a
// handler emits during Handle, distinct from progress's once-per-step
// folding cadence: an event is domain data the guest chose to surface,
// a progress step is the engine's own bookkeeping.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/warp-contracts/weave-engine/model"
)

// Sink receives every event a fold emits, in emission order.
type Sink interface {
	Emit(event model.Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(event model.Event)

func (f SinkFunc) Emit(event model.Event) { f(event) }

// Noop discards every event. It is the default when no sink is supplied.
var Noop Sink = SinkFunc(func(model.Event) {})

// Composite fans an event out to every child sink.
func Composite(children ...Sink) Sink {
	return SinkFunc(func(e model.Event) {
		for _, c := range children {
			c.Emit(e)
		}
	})
}

// Latch blocks a waiting goroutine until an event with the given name
// arrives, the way a caller polling for a specific cross-contract
// notification would.
type Latch interface {
	Sink
	WaitFor(name string)
}

type latch struct {
	mu         sync.Mutex
	cond       *sync.Cond
	waitingFor string
}

func NewLatch() Latch {
	l := &latch{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *latch) WaitFor(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waitingFor = name
	for l.waitingFor != "" {
		l.cond.Wait()
	}
}

func (l *latch) Emit(e model.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.waitingFor != "" && l.waitingFor == e.Name {
		l.waitingFor = ""
		l.cond.Broadcast()
	}
}

// BufferedLog accumulates every event it sees and prints them in order
// on Flush, for a caller (the CLI, a batch job) that wants a trailing
// summary rather than a line per event as it happens.
type BufferedLog interface {
	Sink
	Flush()
}

type bufferedLog struct {
	mu     sync.Mutex
	name   string
	events []string
}

func NewBufferedLog(name string) BufferedLog {
	b := &bufferedLog{name: name}
	b.record("start of log")
	return b
}

func (b *bufferedLog) Emit(e model.Event) {
	b.record(fmt.Sprintf("%s@%s: %v", e.InteractionId, e.Name, e.Data))
}

func (b *bufferedLog) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range b.events {
		fmt.Println(line)
	}
}

func (b *bufferedLog) record(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, fmt.Sprintf("[%s] [%s]: %s", b.name, time.Now().Format("15:04:05.999999999"), message))
}
