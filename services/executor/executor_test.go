package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

type counterState struct {
	Counter int
}

type fakeHandler struct{}

func (fakeHandler) InitState(counterState)                                      {}
func (fakeHandler) Handle(context.Context, sandbox.Host, *model.EvalStateResult[counterState], sandbox.InteractionData) sandbox.Result[counterState] {
	return sandbox.Result[counterState]{Kind: sandbox.ResultOk}
}
func (fakeHandler) MaybeCallStateConstructor(context.Context, sandbox.Host, counterState, string) (counterState, error) {
	return counterState{}, nil
}

type fakePlugin struct {
	contractType model.ContractType
	compileCalls *int
	err          error
}

func (p fakePlugin) ContractType() model.ContractType { return p.contractType }

func (p fakePlugin) Compile(def model.ContractDefinition) (sandbox.Handler[counterState], error) {
	if p.compileCalls != nil {
		*p.compileCalls++
	}
	if p.err != nil {
		return nil, p.err
	}
	return fakeHandler{}, nil
}

func TestCreateSelectsPluginByContractType(t *testing.T) {
	factory := NewFactory[counterState](nil, fakePlugin{contractType: model.ContractTypeJS})
	handler, err := factory.Create(model.ContractDefinition{SrcTxId: "src-1", ContractType: model.ContractTypeJS}, config.Defaults().Build())
	require.NoError(t, err)
	require.NotNil(t, handler)
}

func TestCreateFailsWithoutMatchingPlugin(t *testing.T) {
	factory := NewFactory[counterState](nil, fakePlugin{contractType: model.ContractTypeJS})
	_, err := factory.Create(model.ContractDefinition{SrcTxId: "src-1", ContractType: model.ContractTypeWasm}, config.Defaults().Build())
	require.Error(t, err)
}

func TestCreateRejectsBlacklistedSource(t *testing.T) {
	factory := NewFactory[counterState](BlacklistFunc(func(srcTxId string) bool { return srcTxId == "bad" }), fakePlugin{contractType: model.ContractTypeJS})
	_, err := factory.Create(model.ContractDefinition{SrcTxId: "bad", ContractType: model.ContractTypeJS}, config.Defaults().Build())
	require.Error(t, err)
}

func TestCreateRejectsNonWhitelistedSource(t *testing.T) {
	factory := NewFactory[counterState](nil, fakePlugin{contractType: model.ContractTypeJS})
	cfg := config.Defaults().WithWhitelistSources([]string{"allowed"}).Build()
	_, err := factory.Create(model.ContractDefinition{SrcTxId: "not-allowed", ContractType: model.ContractTypeJS}, cfg)
	require.Error(t, err)
}

func TestCachingFactoryCompilesOncePerSrcTxId(t *testing.T) {
	calls := 0
	factory := NewFactory[counterState](nil, fakePlugin{contractType: model.ContractTypeJS, compileCalls: &calls})
	cachingFactory, err := NewCachingFactory[counterState](factory, 16)
	require.NoError(t, err)

	def := model.ContractDefinition{SrcTxId: "src-shared", ContractType: model.ContractTypeJS}
	_, err = cachingFactory.Create(def, config.Defaults().Build())
	require.NoError(t, err)
	_, err = cachingFactory.Create(model.ContractDefinition{TxId: "other-contract", SrcTxId: "src-shared", ContractType: model.ContractTypeJS}, config.Defaults().Build())
	require.NoError(t, err)

	require.Equal(t, 1, calls)
}
