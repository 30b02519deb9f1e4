package evaluator

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/interactionstate"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

// hostImpl is the sandbox.Host a handler sees while folding one
// interaction of contract. Every call reenters the owning Evaluator,
// sharing the root call's scratchpad so cross-contract effects stay
// transactional (spec.md §4.5/§4.8).
type hostImpl struct {
	ev             *Evaluator
	sp             *interactionstate.Scratchpad
	stack          []Frame
	contract       string
	interactionId  string
	currentSortKey string
	cfg            config.EvaluationConfig
	kv             sandbox.KVStore
}

func (h *hostImpl) ReadContractState(ctx context.Context, other string, sortKey string) (json.RawMessage, error) {
	if sortKey == "" {
		sortKey = h.currentSortKey
	}
	childStack := append(append([]Frame{}, h.stack...), Frame{Contract: h.contract, InteractionId: h.interactionId})
	_, result, err := h.ev.eval(ctx, Request{Contract: other, RequestedSortKey: sortKey, Config: h.cfg}, h.sp, childStack)
	if err != nil {
		return nil, errors.Wrapf(err, "read_contract_state %s", other)
	}
	return result.State, nil
}

func (h *hostImpl) ViewContractState(ctx context.Context, other string, input json.RawMessage) (json.RawMessage, error) {
	state, err := h.ReadContractState(ctx, other, "")
	if err != nil {
		return nil, err
	}
	handler, _, err := h.ev.resolveHandler(ctx, other, h.cfg)
	if err != nil {
		return nil, err
	}
	handler.InitState(state)
	current := model.NewEvalStateResult[json.RawMessage](state)
	data := sandbox.InteractionData{Input: input, Caller: h.contract, SortKey: h.currentSortKey}
	res := handler.Handle(ctx, h, current, data)
	if res.Kind != sandbox.ResultOk {
		return nil, errors.Errorf("view_contract_state %s: %s", other, res.ErrorMessage)
	}
	return res.ReturnValue, nil
}

// Write applies input to other's handler using other's latest known
// state and stages the result in the shared scratchpad at this
// interaction's sort-key, where the fold of other (the contract written
// to) later reads it back (spec.md §4.7 step 7).
func (h *hostImpl) Write(ctx context.Context, other string, input json.RawMessage) (sandbox.Result[json.RawMessage], error) {
	if !h.cfg.InternalWrites() {
		return sandbox.Result[json.RawMessage]{}, errors.New("internal writes are disabled")
	}

	base, _, _, err := h.sp.GetLessOrEqual(other, "")
	if err != nil {
		return sandbox.Result[json.RawMessage]{}, err
	}
	var baseState json.RawMessage
	if base != nil {
		baseState = base.State
	}

	handler, _, err := h.ev.resolveHandler(ctx, other, h.cfg)
	if err != nil {
		return sandbox.Result[json.RawMessage]{}, err
	}
	handler.InitState(baseState)

	current := model.NewEvalStateResult[json.RawMessage](baseState)
	data := sandbox.InteractionData{Input: input, Caller: h.contract, SortKey: h.currentSortKey}
	childStack := append(append([]Frame{}, h.stack...), Frame{Contract: h.contract, InteractionId: h.interactionId})
	childHost := h.ev.hostFor(h.sp, childStack, other, h.currentSortKey, h.cfg)
	childHost.interactionId = h.interactionId
	res := handler.Handle(ctx, childHost, current, data)

	staged := model.NewEvalStateResult[json.RawMessage](res.State)
	staged.Validity.Set(writeValidityKey, res.Kind == sandbox.ResultOk)
	if res.Kind != sandbox.ResultOk {
		staged.ErrorMessages.Set(writeValidityKey, res.ErrorMessage)
	}
	h.sp.Update(other, h.currentSortKey, staged, false)

	return res, nil
}

func (h *hostImpl) RefreshState(ctx context.Context) (json.RawMessage, error) {
	result, _, found, err := h.sp.GetLessOrEqual(h.contract, "")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return result.State, nil
}

func (h *hostImpl) KV() sandbox.KVStore {
	if !h.cfg.UseKvStorage() {
		return nil
	}
	return h.kv
}

// memKV is the in-process key/value sub-store backing sandbox.KVStore
// when config.UseKvStorage is set. There is one per contract, living for
// the lifetime of the owning Evaluator; it is not written to the sort-key
// cache, and its writes apply immediately, outside the scratchpad's
// commit/rollback.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (k *memKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *memKV) Put(ctx context.Context, key string, value []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = value
	return nil
}

func (k *memKV) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, key)
	return nil
}
