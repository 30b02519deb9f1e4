// Package contract is the per-call-site facade over one contract id
// (spec.md §4.9): readState, viewState, dryWrite and the PST balance
// convenience, all wrapping a shared evaluator.Evaluator.
package contract

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/evaluator"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

// InteractionResult is the outcome of viewState/dryWrite: the handler's
// tagged result, never itself reaching the persistent cache.
type InteractionResult struct {
	Kind         sandbox.ResultKind
	ReturnValue  json.RawMessage
	ErrorMessage string
}

func toInteractionResult(res sandbox.Result[json.RawMessage]) InteractionResult {
	return InteractionResult{Kind: res.Kind, ReturnValue: res.ReturnValue, ErrorMessage: res.ErrorMessage}
}

// WriteOptions carries the tags a real interaction would be broadcast
// with; WriteInteraction itself is out of scope (spec.md §1).
type WriteOptions struct {
	Tags []model.Tag
}

var errWriteNotSupported = errors.New("writeInteraction is delegated to an external transport")

// Contract binds an Evaluator to one contract id and a fixed evaluation
// config, giving call sites the narrow surface spec.md §4.9 names
// instead of the evaluator's re-entrant Request/eval plumbing.
type Contract struct {
	Engine *evaluator.Evaluator
	TxId   string
	Config config.EvaluationConfig
}

// New binds engine to txId. A nil cfg falls back to config.Defaults().
func New(engine *evaluator.Evaluator, txId string, cfg config.EvaluationConfig) *Contract {
	return &Contract{Engine: engine, TxId: txId, Config: cfg}
}

// ReadState folds the contract's interaction stream up to sortKey, or to
// the latest known interaction when sortKey is empty.
func (c *Contract) ReadState(ctx context.Context, sortKey string) (string, *model.EvalStateResult[json.RawMessage], error) {
	return c.Engine.Eval(ctx, evaluator.Request{Contract: c.TxId, RequestedSortKey: sortKey, Config: c.Config})
}

// CurrentState is ReadState at the latest known sort-key.
func (c *Contract) CurrentState(ctx context.Context) (*model.EvalStateResult[json.RawMessage], error) {
	_, result, err := c.ReadState(ctx, "")
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CurrentBalance is the PST convenience from spec.md §5: address's entry
// in a top-level `balances` map, or 0 when the contract carries no such
// map at all.
func (c *Contract) CurrentBalance(ctx context.Context, address string) (int64, error) {
	state, err := c.CurrentState(ctx)
	if err != nil {
		return 0, err
	}
	var shape struct {
		Balances map[string]int64 `json:"balances"`
	}
	if err := json.Unmarshal(state.State, &shape); err != nil {
		return 0, nil
	}
	return shape.Balances[address], nil
}

// ViewState runs input against the latest state read-only.
func (c *Contract) ViewState(ctx context.Context, input json.RawMessage, caller string) (InteractionResult, error) {
	res, err := c.Engine.ViewState(ctx, evaluator.Request{Contract: c.TxId, Config: c.Config}, input, caller)
	if err != nil {
		return InteractionResult{}, err
	}
	return toInteractionResult(res), nil
}

// DryWrite runs input as a confirmed interaction would, internal writes
// included, but nothing it does survives past this call. overriddenCaller
// lets the caller simulate a write from another address.
func (c *Contract) DryWrite(ctx context.Context, input json.RawMessage, overriddenCaller string) (InteractionResult, error) {
	res, err := c.Engine.DryWrite(ctx, evaluator.Request{Contract: c.TxId, Config: c.Config}, input, overriddenCaller)
	if err != nil {
		return InteractionResult{}, err
	}
	return toInteractionResult(res), nil
}

// WriteInteraction would broadcast input to the network and is left to
// an external transport; the engine only evaluates, never publishes.
func (c *Contract) WriteInteraction(ctx context.Context, input json.RawMessage, opts WriteOptions) (string, error) {
	return "", errWriteNotSupported
}
