package evaluator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/instrumentation/log"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/definition"
	"github.com/warp-contracts/weave-engine/services/loader"
	"github.com/warp-contracts/weave-engine/services/sandbox"
	"github.com/warp-contracts/weave-engine/services/statestorage"
	"github.com/warp-contracts/weave-engine/services/statestorage/adapter/memory"
)

type counterHandler struct{}

func (counterHandler) InitState(json.RawMessage) {}

func (counterHandler) Handle(ctx context.Context, host sandbox.Host, current *model.EvalStateResult[json.RawMessage], data sandbox.InteractionData) sandbox.Result[json.RawMessage] {
	var in struct {
		Delta     int  `json:"delta"`
		Fail      bool `json:"fail"`
		Exception bool `json:"exception"`
	}
	if err := json.Unmarshal(data.Input, &in); err != nil {
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultException, State: current.State, ErrorMessage: err.Error()}
	}
	if in.Exception {
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultException, State: current.State, ErrorMessage: "unexpected failure"}
	}
	if in.Fail {
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultError, State: current.State, ErrorMessage: "rejected by contract"}
	}
	var st struct {
		Counter int `json:"counter"`
	}
	_ = json.Unmarshal(current.State, &st)
	st.Counter += in.Delta
	next, _ := json.Marshal(st)
	return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultOk, State: next}
}

func (counterHandler) MaybeCallStateConstructor(ctx context.Context, host sandbox.Host, initial json.RawMessage, caller string) (json.RawMessage, error) {
	return initial, nil
}

type fakeExecutor struct{}

func (fakeExecutor) Create(def model.ContractDefinition, cfg config.EvaluationConfig) (sandbox.Handler[json.RawMessage], error) {
	return counterHandler{}, nil
}

type fakeDefSource struct {
	byId map[string]definition.Transaction
}

func (s *fakeDefSource) GetTransaction(ctx context.Context, id string) (definition.Transaction, error) {
	tx, ok := s.byId[id]
	if !ok {
		return definition.Transaction{}, errNotFound(id)
	}
	return tx, nil
}

type notFoundErr struct{ id string }

func (e notFoundErr) Error() string { return "not found: " + e.id }
func errNotFound(id string) error   { return notFoundErr{id: id} }

func newDefinitionLoader(initState string) *definition.Loader {
	source := &fakeDefSource{byId: map[string]definition.Transaction{
		"contract-1": {
			Id: "contract-1",
			Tags: []model.Tag{
				{Name: "content-type", Value: "application/javascript"},
				{Name: "init-state", Value: initState},
			},
		},
	}}
	return definition.New(source, false)
}

func inputTag(t *testing.T, body string) model.Tag {
	t.Helper()
	return model.Tag{Name: "input", Value: body}
}

func delta(n int) string { return `{"delta":` + itoaTest(n) + `}` }

func itoaTest(n int) string {
	neg := n < 0
	if n == 0 {
		return "0"
	}
	if neg {
		n = -n
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func baseEvaluator(interactions []model.Interaction) *Evaluator {
	return &Evaluator{
		Definitions: newDefinitionLoader(`{"counter":0}`),
		Loader:      loader.LoaderFunc(func(ctx context.Context, contract, from, to string, opts loader.Options) ([]model.Interaction, error) { return interactions, nil }),
		Executor:    fakeExecutor{},
	}
}

func TestEvalEmptyHistoryReturnsInitStateAtGenesis(t *testing.T) {
	ev := baseEvaluator(nil)
	key, result, err := ev.Eval(context.Background(), Request{Contract: "contract-1"})
	require.NoError(t, err)
	require.Equal(t, "", key)
	require.JSONEq(t, `{"counter":0}`, string(result.State))
	require.Empty(t, result.Validity.Keys())
}

func TestEvalFoldsOkInteractionsInAscendingOrder(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, delta(5))}},
		{Id: "i2", SortKey: "000000000002", Tags: []model.Tag{inputTag(t, delta(3))}},
	}
	ev := baseEvaluator(interactions)
	key, result, err := ev.Eval(context.Background(), Request{Contract: "contract-1"})
	require.NoError(t, err)
	require.Equal(t, "000000000002", key)
	require.JSONEq(t, `{"counter":8}`, string(result.State))

	v1, _ := result.Validity.Get("i1")
	v2, _ := result.Validity.Get("i2")
	require.True(t, v1)
	require.True(t, v2)
}

func TestEvalKnownErrorIsNotFatal(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, `{"fail":true}`)}},
		{Id: "i2", SortKey: "000000000002", Tags: []model.Tag{inputTag(t, delta(2))}},
	}
	ev := baseEvaluator(interactions)
	_, result, err := ev.Eval(context.Background(), Request{Contract: "contract-1"})
	require.NoError(t, err)

	v1, _ := result.Validity.Get("i1")
	require.False(t, v1)
	msg, _ := result.ErrorMessages.Get("i1")
	require.Equal(t, "rejected by contract", msg)
	require.JSONEq(t, `{"counter":2}`, string(result.State))
}

func TestEvalExceptionIsInvalidatedWhenIgnored(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, `{"exception":true}`)}},
	}
	ev := baseEvaluator(interactions)
	cfg := config.Defaults().WithIgnoreExceptions(true).Build()
	_, result, err := ev.Eval(context.Background(), Request{Contract: "contract-1", Config: cfg})
	require.NoError(t, err)
	v1, _ := result.Validity.Get("i1")
	require.False(t, v1)
}

func TestEvalExceptionIsFatalWhenNotIgnored(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, `{"exception":true}`)}},
	}
	ev := baseEvaluator(interactions)
	cfg := config.Defaults().WithIgnoreExceptions(false).Build()
	_, _, err := ev.Eval(context.Background(), Request{Contract: "contract-1", Config: cfg})
	require.Error(t, err)
}

func TestEvalSurfacesNetworkErrorFromLoader(t *testing.T) {
	ev := &Evaluator{
		Definitions: newDefinitionLoader(`{"counter":0}`),
		Loader: loader.LoaderFunc(func(ctx context.Context, contract, from, to string, opts loader.Options) ([]model.Interaction, error) {
			return nil, apperrors.NewNetworkError(504, nil)
		}),
		Executor: fakeExecutor{},
	}
	_, _, err := ev.Eval(context.Background(), Request{Contract: "contract-1"})
	require.Error(t, err)
	var netErr *apperrors.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, 504, netErr.Status)
}

func TestEvalCommitsOnlyCacheableInteractionsToPersistentCache(t *testing.T) {
	adapter := memory.New()
	cache := statestorage.NewEvalStateResultCache[json.RawMessage](adapter)

	interactions := []model.Interaction{
		{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, delta(1))}},
		{Id: "i2", SortKey: "000000000002", Tags: []model.Tag{inputTag(t, delta(1))}, ConfirmationStatus: model.ConfirmationCorrupted},
	}
	ev := baseEvaluator(interactions)
	ev.Cache = cache

	_, result, err := ev.Eval(context.Background(), Request{Contract: "contract-1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"counter":2}`, string(result.State))

	_, ok, err := cache.Get("contract-1", "000000000001")
	require.NoError(t, err)
	require.True(t, ok, "confirmed interaction must reach the persistent cache")

	_, ok, err = cache.Get("contract-1", "000000000002")
	require.NoError(t, err)
	require.False(t, ok, "corrupted interaction must never reach the persistent cache")
}

func TestEvalExactCacheProbeShortCircuitsRefold(t *testing.T) {
	adapter := memory.New()
	cache := statestorage.NewEvalStateResultCache[json.RawMessage](adapter)

	called := 0
	interactions := []model.Interaction{{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, delta(1))}}}
	ev := &Evaluator{
		Definitions: newDefinitionLoader(`{"counter":0}`),
		Loader: loader.LoaderFunc(func(ctx context.Context, contract, from, to string, opts loader.Options) ([]model.Interaction, error) {
			called++
			return interactions, nil
		}),
		Executor: fakeExecutor{},
		Cache:    cache,
	}

	_, _, err := ev.Eval(context.Background(), Request{Contract: "contract-1", RequestedSortKey: "000000000001"})
	require.NoError(t, err)
	require.Equal(t, 1, called)

	// A fresh Evaluator sharing the same persistent cache must hit the
	// exact-match probe and never call the loader again.
	ev2 := &Evaluator{
		Definitions: newDefinitionLoader(`{"counter":0}`),
		Loader: loader.LoaderFunc(func(ctx context.Context, contract, from, to string, opts loader.Options) ([]model.Interaction, error) {
			called++
			return interactions, nil
		}),
		Executor: fakeExecutor{},
		Cache:    cache,
	}
	_, result, err := ev2.Eval(context.Background(), Request{Contract: "contract-1", RequestedSortKey: "000000000001"})
	require.NoError(t, err)
	require.Equal(t, 1, called, "exact cache probe must avoid refetching and refolding")
	require.JSONEq(t, `{"counter":1}`, string(result.State))
}

func TestEvolveModifierRebindsSourceOnAcceptedTag(t *testing.T) {
	source := &fakeDefSource{byId: map[string]definition.Transaction{
		"contract-1": {Tags: []model.Tag{{Name: "content-type", Value: "application/javascript"}, {Name: "init-state", Value: "{}"}}},
		"new-src": {Tags: []model.Tag{{Name: "content-type", Value: "application/javascript"}, {Name: "init-state", Value: "{}"}}},
	}}
	defs := definition.New(source, false)
	modifier := EvolveModifier{Definitions: defs}

	i := model.Interaction{Id: "i1", Tags: []model.Tag{{Name: "evolve", Value: "new-src"}}}
	result := sandbox.Result[json.RawMessage]{Kind: sandbox.ResultOk}

	newDef, err := modifier.Apply(context.Background(), "contract-1", model.ContractDefinition{SrcTxId: "contract-1"}, i, result)
	require.NoError(t, err)
	require.Equal(t, "new-src", newDef.SrcTxId)
}

func TestEvalWithLoggerRecordsNoUnexpectedErrors(t *testing.T) {
	ev := baseEvaluator([]model.Interaction{
		{Id: "i1", SortKey: "000000000001", Tags: []model.Tag{inputTag(t, delta(4))}},
	})
	ev.Logger = log.DefaultTestingLogger(t)

	_, result, err := ev.Eval(context.Background(), Request{Contract: "contract-1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"counter":4}`, string(result.State))
}

func TestEvolveModifierIgnoresRejectedInteraction(t *testing.T) {
	modifier := EvolveModifier{Definitions: definition.New(&fakeDefSource{}, false)}
	i := model.Interaction{Id: "i1", Tags: []model.Tag{{Name: "evolve", Value: "new-src"}}}
	result := sandbox.Result[json.RawMessage]{Kind: sandbox.ResultError}

	newDef, err := modifier.Apply(context.Background(), "contract-1", model.ContractDefinition{SrcTxId: "contract-1"}, i, result)
	require.NoError(t, err)
	require.Equal(t, "contract-1", newDef.SrcTxId)
}
