// Package sandbox defines the boundary between the evaluator and a
// pluggable contract handler (spec.md §4.5). No plugin body (a JS VM, a
// wasm runtime) ships here; the evaluator depends only on this contract.
package sandbox

import (
	"context"
	"encoding/json"

	"github.com/warp-contracts/weave-engine/model"
)

// ResultKind tags the three shapes a Handler.Handle call can return.
type ResultKind string

const (
	ResultOk        ResultKind = "ok"
	ResultError     ResultKind = "error"
	ResultException ResultKind = "exception"
)

// Result is the tagged union a handler returns from Handle. Exactly the
// fields relevant to Kind are meaningful; the evaluator switches on Kind
// before reading anything else.
type Result[S any] struct {
	Kind         ResultKind
	State        S
	ReturnValue  json.RawMessage
	GasUsed      uint64
	Event        *model.Event
	ErrorMessage string
}

// InteractionData is what Handle receives about the interaction driving
// this call: the raw input tag payload plus the fields a guest contract
// is allowed to see about its caller and the transaction that invoked it.
type InteractionData struct {
	Input         json.RawMessage
	Caller        string
	Block         model.Block
	InteractionId string
	SortKey       string
}

// Host is the capability set a Handle call can invoke on the engine
// while folding one interaction, implemented by services/evaluator on top
// of the services/interactionstate scratchpad so state reads and writes
// observe transactional, interaction-local writes (spec.md §4.5/§4.8).
type Host interface {
	// ReadContractState returns other's state as of sortKey (or as of the
	// sort-key of the interaction being handled when sortKey is empty).
	ReadContractState(ctx context.Context, other string, sortKey string) (json.RawMessage, error)
	// ViewContractState evaluates other's view entrypoint with input
	// without mutating any state.
	ViewContractState(ctx context.Context, other string, input json.RawMessage) (json.RawMessage, error)
	// Write applies input to other as an internal write, classified and
	// gated by config.InternalWrites per spec.md §4.7 step 5.
	Write(ctx context.Context, other string, input json.RawMessage) (Result[json.RawMessage], error)
	// RefreshState re-reads this contract's own state, observing any
	// internal writes applied to it earlier in the same fold.
	RefreshState(ctx context.Context) (json.RawMessage, error)
	// KV is this contract's key/value sub-store, available only when
	// config.UseKvStorage is set (nil otherwise). It is one store per
	// contract, not scoped by sort-key.
	KV() KVStore
}

// KVStore is the key/value sub-store a handler may use instead of (or
// alongside) the folded state value. Its writes take effect immediately;
// they are not staged in the scratchpad and are not undone by a rollback.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Handler is the per-contract sandbox instance an ExecutorFactory
// produces. One Handler instance is reused across every interaction of a
// fold, reseeded with InitState between calls.
type Handler[S any] interface {
	InitState(state S)
	Handle(ctx context.Context, host Host, current *model.EvalStateResult[S], data InteractionData) Result[S]
	// MaybeCallStateConstructor invokes the contract's __init exactly
	// once, before any other interaction, when its manifest enables a
	// constructor (spec.md §4.5/§9 constructor exactness).
	MaybeCallStateConstructor(ctx context.Context, host Host, initialState S, deploymentCaller string) (S, error)
}
