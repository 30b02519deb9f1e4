package contract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/definition"
	"github.com/warp-contracts/weave-engine/services/evaluator"
	"github.com/warp-contracts/weave-engine/services/loader"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

type pstHandler struct{}

func (pstHandler) InitState(json.RawMessage) {}

func (pstHandler) Handle(ctx context.Context, host sandbox.Host, current *model.EvalStateResult[json.RawMessage], data sandbox.InteractionData) sandbox.Result[json.RawMessage] {
	var in struct {
		Function string `json:"function"`
		To       string `json:"to"`
		Qty      int64  `json:"qty"`
	}
	if err := json.Unmarshal(data.Input, &in); err != nil {
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultException, State: current.State, ErrorMessage: err.Error()}
	}

	var st struct {
		Balances map[string]int64 `json:"balances"`
	}
	_ = json.Unmarshal(current.State, &st)
	if st.Balances == nil {
		st.Balances = map[string]int64{}
	}

	switch in.Function {
	case "transfer":
		if st.Balances[data.Caller] < in.Qty {
			return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultError, State: current.State, ErrorMessage: "insufficient balance"}
		}
		st.Balances[data.Caller] -= in.Qty
		st.Balances[in.To] += in.Qty
		next, _ := json.Marshal(st)
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultOk, State: next}
	case "balance":
		out, _ := json.Marshal(map[string]int64{"balance": st.Balances[in.To]})
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultOk, State: current.State, ReturnValue: out}
	default:
		return sandbox.Result[json.RawMessage]{Kind: sandbox.ResultError, State: current.State, ErrorMessage: "unknown function"}
	}
}

func (pstHandler) MaybeCallStateConstructor(ctx context.Context, host sandbox.Host, initial json.RawMessage, caller string) (json.RawMessage, error) {
	return initial, nil
}

type pstExecutor struct{}

func (pstExecutor) Create(def model.ContractDefinition, cfg config.EvaluationConfig) (sandbox.Handler[json.RawMessage], error) {
	return pstHandler{}, nil
}

type fakeDefSource struct{ byId map[string]definition.Transaction }

func (s *fakeDefSource) GetTransaction(ctx context.Context, id string) (definition.Transaction, error) {
	tx, ok := s.byId[id]
	if !ok {
		return definition.Transaction{}, errWriteNotSupported
	}
	return tx, nil
}

func newPstContract(initState string, interactions []model.Interaction) *Contract {
	source := &fakeDefSource{byId: map[string]definition.Transaction{
		"pst-1": {Tags: []model.Tag{
			{Name: "content-type", Value: "application/javascript"},
			{Name: "init-state", Value: initState},
		}},
	}}
	engine := &evaluator.Evaluator{
		Definitions: definition.New(source, false),
		Loader:      loader.LoaderFunc(func(ctx context.Context, contract, from, to string, opts loader.Options) ([]model.Interaction, error) { return interactions, nil }),
		Executor:    pstExecutor{},
	}
	return New(engine, "pst-1", nil)
}

func TestCurrentBalanceReflectsAppliedTransfers(t *testing.T) {
	interactions := []model.Interaction{
		{Id: "i1", SortKey: "000000000001", OwnerAddress: "alice", Tags: []model.Tag{{Name: "input", Value: `{"function":"transfer","to":"bob","qty":40}`}}},
	}
	c := newPstContract(`{"balances":{"alice":100}}`, interactions)

	balance, err := c.CurrentBalance(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, int64(40), balance)

	balance, err = c.CurrentBalance(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(60), balance)
}

func TestCurrentBalanceDefaultsToZeroWithoutBalancesMap(t *testing.T) {
	c := newPstContract(`{"counter":0}`, nil)
	balance, err := c.CurrentBalance(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(0), balance)
}

func TestViewStateNeverMutatesStoredState(t *testing.T) {
	c := newPstContract(`{"balances":{"alice":100}}`, nil)

	result, err := c.ViewState(context.Background(), json.RawMessage(`{"function":"balance","to":"alice"}`), "alice")
	require.NoError(t, err)
	require.Equal(t, sandbox.ResultOk, result.Kind)

	var out struct{ Balance int64 `json:"balance"` }
	require.NoError(t, json.Unmarshal(result.ReturnValue, &out))
	require.Equal(t, int64(100), out.Balance)

	balance, err := c.CurrentBalance(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), balance, "viewState must not affect persisted state")
}

func TestDryWriteRejectsInsufficientBalanceWithoutPersisting(t *testing.T) {
	c := newPstContract(`{"balances":{"alice":10}}`, nil)

	result, err := c.DryWrite(context.Background(), json.RawMessage(`{"function":"transfer","to":"bob","qty":999}`), "alice")
	require.NoError(t, err)
	require.Equal(t, sandbox.ResultError, result.Kind)
	require.Equal(t, "insufficient balance", result.ErrorMessage)
}

func TestWriteInteractionIsUnsupported(t *testing.T) {
	c := newPstContract(`{}`, nil)
	_, err := c.WriteInteraction(context.Background(), json.RawMessage(`{}`), WriteOptions{})
	require.Error(t, err)
}
