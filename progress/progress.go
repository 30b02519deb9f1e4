// Package progress reports fold progress to a caller-supplied sink and
// carries the cancellation token a long-running evaluation checks between
// interactions.
package progress

import (
	"context"

	"github.com/warp-contracts/weave-engine/instrumentation/log"
)

// Step describes where a fold is at the moment an Interaction has just
// been applied.
type Step struct {
	ContractTxId  string
	SortKey       string
	InteractionId string
	Index         int
	Total         int
}

// Percent returns the percentage (0-100) of interactions applied so far, or 0 when
// Total is unknown (streaming loaders may not know the count up front).
func (s Step) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Index+1) / float64(s.Total) * 100
}

func (s Step) LogFields() []*log.Field {
	return []*log.Field{
		log.ContractId(s.ContractTxId),
		log.SortKey(s.SortKey),
		log.InteractionId(s.InteractionId),
		log.Int("index", s.Index),
		log.Int("total", s.Total),
	}
}

// Reporter is notified as an evaluation progresses. Handlers must return
// quickly; the evaluator calls Report synchronously on the folding
// goroutine between interactions.
type Reporter interface {
	Report(step Step)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(step Step)

func (f ReporterFunc) Report(step Step) { f(step) }

// Noop discards every step. It is the default when no reporter is supplied.
var Noop Reporter = ReporterFunc(func(Step) {})

// LoggingReporter emits one log line per step at the given logger.
func LoggingReporter(logger log.BasicLogger) Reporter {
	return ReporterFunc(func(step Step) {
		logger.Info("interaction applied", step.LogFields()...)
	})
}

// Composite fans a step out to every child reporter.
func Composite(children ...Reporter) Reporter {
	return ReporterFunc(func(step Step) {
		for _, c := range children {
			c.Report(step)
		}
	})
}

type cancelKeyType string

const cancelKey cancelKeyType = "cancel-token"

// WithCancelToken decorates ctx so CancelRequested can recover the flag
// from any descendant context without threading it through call sites.
func WithCancelToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, cancelKey, token)
}

// TokenFromContext recovers the cancellation token installed by
// WithCancelToken, if any.
func TokenFromContext(ctx context.Context) (*Token, bool) {
	t, ok := ctx.Value(cancelKey).(*Token)
	return t, ok
}

// Token lets a caller outside the fold loop request an early stop. The
// evaluator checks Cancelled() before each interaction and returns an
// AbortError; staged entries not yet committed are not persisted.
type Token struct {
	cancelled chan struct{}
}

func NewToken() *Token {
	return &Token{cancelled: make(chan struct{})}
}

func (t *Token) Cancel() {
	select {
	case <-t.cancelled:
	default:
		close(t.cancelled)
	}
}

func (t *Token) Cancelled() bool {
	select {
	case <-t.cancelled:
		return true
	default:
		return false
	}
}
