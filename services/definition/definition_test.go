package definition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warp-contracts/weave-engine/model"
)

type fakeSource struct {
	byId map[string]Transaction
}

func (f *fakeSource) GetTransaction(ctx context.Context, txId string) (Transaction, error) {
	tx, ok := f.byId[txId]
	if !ok {
		return Transaction{}, errNotFound(txId)
	}
	return tx, nil
}

type notFoundErr struct{ txId string }

func (e notFoundErr) Error() string { return "not found: " + e.txId }

func errNotFound(txId string) error { return notFoundErr{txId: txId} }

func tag(name, value string) model.Tag { return model.Tag{Name: name, Value: value} }

func TestLoadResolvesInlineInitState(t *testing.T) {
	source := &fakeSource{byId: map[string]Transaction{
		"contract-1": {
			Id:           "contract-1",
			OwnerAddress: "0xabc",
			Tags: []model.Tag{
				tag("content-type", "application/javascript"),
				tag("init-state", `{"counter":0}`),
			},
		},
	}}

	loader := New(source, false)
	def, err := loader.Load(context.Background(), "contract-1", "")
	require.NoError(t, err)
	require.Equal(t, model.ContractTypeJS, def.ContractType)
	require.JSONEq(t, `{"counter":0}`, string(def.InitState))
	require.Equal(t, "contract-1", def.SrcTxId)
}

func TestLoadFallsBackToInitStateTx(t *testing.T) {
	source := &fakeSource{byId: map[string]Transaction{
		"contract-1": {
			Tags: []model.Tag{
				tag("content-type", "application/javascript"),
				tag("init-state-tx", "state-tx-1"),
			},
		},
		"state-tx-1": {Data: []byte(`{"counter":1}`)},
	}}

	loader := New(source, false)
	def, err := loader.Load(context.Background(), "contract-1", "")
	require.NoError(t, err)
	require.JSONEq(t, `{"counter":1}`, string(def.InitState))
}

func TestLoadFallsBackToContractData(t *testing.T) {
	source := &fakeSource{byId: map[string]Transaction{
		"contract-1": {
			Tags: []model.Tag{tag("content-type", "application/javascript")},
			Data: []byte(`{"counter":2}`),
		},
	}}

	loader := New(source, false)
	def, err := loader.Load(context.Background(), "contract-1", "")
	require.NoError(t, err)
	require.JSONEq(t, `{"counter":2}`, string(def.InitState))
}

func TestLoadRejectsUnsupportedContentType(t *testing.T) {
	source := &fakeSource{byId: map[string]Transaction{
		"contract-1": {
			Tags: []model.Tag{tag("content-type", "text/plain"), tag("init-state", `{}`)},
		},
	}}

	loader := New(source, false)
	_, err := loader.Load(context.Background(), "contract-1", "")
	require.Error(t, err)
}

func TestLoadUsesForcedSrcTxId(t *testing.T) {
	source := &fakeSource{byId: map[string]Transaction{
		"contract-1": {
			Tags: []model.Tag{tag("init-state", `{}`)},
		},
		"src-override": {
			Tags: []model.Tag{tag("content-type", "application/wasm")},
			Data: []byte{0x00, 0x61, 0x73, 0x6d},
		},
	}}

	loader := New(source, false)
	def, err := loader.Load(context.Background(), "contract-1", "src-override")
	require.NoError(t, err)
	require.Equal(t, "src-override", def.SrcTxId)
	require.Equal(t, model.ContractTypeWasm, def.ContractType)
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6d}, def.Src.Binary)
}

func TestLoadFailsOnTestnetMismatch(t *testing.T) {
	source := &fakeSource{byId: map[string]Transaction{
		"contract-1": {
			Tags: []model.Tag{
				tag("content-type", "application/javascript"),
				tag("init-state", `{}`),
				tag("testnet", "true"),
			},
		},
	}}

	loader := New(source, false)
	_, err := loader.Load(context.Background(), "contract-1", "")
	require.Error(t, err)
}

func TestUsesConstructorReadsManifest(t *testing.T) {
	def := model.ContractDefinition{Manifest: []byte(`{"useConstructor":true}`)}
	require.True(t, UsesConstructor(def))

	require.False(t, UsesConstructor(model.ContractDefinition{}))
}
