package evaluator

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/interactionstate"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

// ViewState runs input against contract's latest known state read-only
// (spec.md §4.9): nothing it touches, including any internal write the
// guest attempts, ever reaches the persistent cache.
func (e *Evaluator) ViewState(ctx context.Context, req Request, input json.RawMessage, caller string) (sandbox.Result[json.RawMessage], error) {
	return e.runDry(ctx, req, input, caller)
}

// DryWrite runs input the same way a confirmed interaction would,
// including internal writes, but the synthesized interaction is marked
// dry so nothing it stages survives past this call (spec.md §4.9).
// overriddenCaller lets the caller simulate a write from another address.
func (e *Evaluator) DryWrite(ctx context.Context, req Request, input json.RawMessage, overriddenCaller string) (sandbox.Result[json.RawMessage], error) {
	return e.runDry(ctx, req, input, overriddenCaller)
}

func (e *Evaluator) runDry(ctx context.Context, req Request, input json.RawMessage, caller string) (sandbox.Result[json.RawMessage], error) {
	cfg := req.Config
	if cfg == nil {
		cfg = config.Defaults().Build()
	}

	sp := interactionstate.New(e.Cache)
	_, current, err := e.eval(ctx, Request{Contract: req.Contract, RequestedSortKey: req.RequestedSortKey, Config: cfg, ForcedSrcTxId: req.ForcedSrcTxId}, sp, nil)
	if err != nil {
		return sandbox.Result[json.RawMessage]{}, err
	}

	handler, _, err := e.resolveHandler(ctx, req.Contract, cfg)
	if err != nil {
		return sandbox.Result[json.RawMessage]{}, err
	}
	handler.InitState(current.State)

	i := synthesizeDryInteraction(input, caller)
	host := e.hostForInteraction(sp, nil, req.Contract, i, cfg)
	data := sandbox.InteractionData{Input: input, Caller: caller, InteractionId: i.Id}
	return e.callWithTimeout(ctx, cfg, handler, host, current, data), nil
}

// synthesizeDryInteraction fabricates the interaction record a view/dry
// call pretends to apply. It never came from a loader, so it needs an
// id of its own rather than a network-issued one.
func synthesizeDryInteraction(input json.RawMessage, caller string) model.Interaction {
	return model.Interaction{
		Id:           "dry-" + uuid.NewString(),
		Dry:          true,
		OwnerAddress: caller,
		Tags:         []model.Tag{{Name: inputTagName, Value: string(input)}},
	}
}
