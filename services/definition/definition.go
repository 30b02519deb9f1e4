// Package definition loads a contract's immutable (source, init state,
// metadata) triple, implementing spec.md §4.4.
package definition

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/model"
)

// Transaction is the subset of an on-network transaction the definition
// loader needs: its tags and its raw data payload.
type Transaction struct {
	Id           string
	OwnerAddress string
	Tags         []model.Tag
	Data         []byte
}

// Source fetches a transaction's metadata and data from the network.
// adapter/gateway wraps a remote-gateway HTTP endpoint; tests use a
// map-backed fake.
type Source interface {
	GetTransaction(ctx context.Context, txId string) (Transaction, error)
}

var acceptedContentTypes = map[string]model.ContractType{
	"application/javascript": model.ContractTypeJS,
	"application/wasm":       model.ContractTypeWasm,
}

type Loader struct {
	source  Source
	testnet bool
}

// New builds a Loader against source. testnet selects which environment
// the engine is running in, checked against each definition's testnet tag.
func New(source Source, testnet bool) *Loader {
	return &Loader{source: source, testnet: testnet}
}

// Load resolves contractTxId's definition. When forcedSrcTxId is
// non-empty it's used instead of the contract transaction's own
// source-tx reference (used by the evaluator's EvolveModifier to rebind
// the contract to an evolved source).
func (l *Loader) Load(ctx context.Context, contractTxId string, forcedSrcTxId string) (model.ContractDefinition, error) {
	contractTx, err := l.source.GetTransaction(ctx, contractTxId)
	if err != nil {
		return model.ContractDefinition{}, err
	}

	tags := tagMap(contractTx.Tags)

	srcTxId := forcedSrcTxId
	if srcTxId == "" {
		srcTxId = tags["src-tx-id"]
	}
	if srcTxId == "" {
		srcTxId = contractTxId
	}

	srcTx := contractTx
	if srcTxId != contractTxId {
		srcTx, err = l.source.GetTransaction(ctx, srcTxId)
		if err != nil {
			return model.ContractDefinition{}, err
		}
	}
	srcTags := tagMap(srcTx.Tags)

	contentType := srcTags["content-type"]
	contractType, ok := acceptedContentTypes[contentType]
	if !ok {
		return model.ContractDefinition{}, apperrors.NewContractError(apperrors.SubtypeKnownError,
			errors.Errorf("unsupported content-type %q for source %s", contentType, srcTxId))
	}

	if testnetTag, present := tags["testnet"]; present {
		isTestnetTag := testnetTag == "" || testnetTag == "true"
		if isTestnetTag != l.testnet {
			return model.ContractDefinition{}, apperrors.NewProtocolError(
				errors.Errorf("contract %s declares testnet=%v but engine is running in testnet=%v", contractTxId, isTestnetTag, l.testnet))
		}
	}

	initState, err := resolveInitState(ctx, l.source, contractTx, tags)
	if err != nil {
		return model.ContractDefinition{}, err
	}

	def := model.ContractDefinition{
		TxId:         contractTxId,
		SrcTxId:      srcTxId,
		InitState:    initState,
		Owner:        contractTx.OwnerAddress,
		MinFee:       tags["min-fee"],
		ContractType: contractType,
		WasmLanguage: srcTags["wasm-lang"],
		Testnet:      tags["testnet"] != "",
	}

	if manifest, present := tags["manifest"]; present {
		def.Manifest = json.RawMessage(manifest)
	}
	if wasmMeta, present := srcTags["wasm-meta"]; present {
		def.WasmMeta = json.RawMessage(wasmMeta)
	}

	if contractType == model.ContractTypeWasm {
		def.Src = model.Source{ContentType: contentType, Binary: srcTx.Data}
	} else {
		def.Src = model.Source{ContentType: contentType, Text: string(srcTx.Data)}
	}

	return def, nil
}

// UsesConstructor decodes def.Manifest and reports whether its
// useConstructor flag is set, defaulting to false when no manifest tag
// was present or it doesn't parse as the recognized shape.
func UsesConstructor(def model.ContractDefinition) bool {
	if len(def.Manifest) == 0 {
		return false
	}
	var m model.Manifest
	if err := json.Unmarshal(def.Manifest, &m); err != nil {
		return false
	}
	return m.UseConstructor
}

func resolveInitState(ctx context.Context, source Source, contractTx Transaction, tags map[string]string) (json.RawMessage, error) {
	if initState, ok := tags["init-state"]; ok && initState != "" {
		if !json.Valid([]byte(initState)) {
			return nil, apperrors.NewContractError(apperrors.SubtypeKnownError, errors.New("init-state tag is not valid JSON"))
		}
		return json.RawMessage(initState), nil
	}

	if initStateTxId, ok := tags["init-state-tx"]; ok && initStateTxId != "" {
		initStateTx, err := source.GetTransaction(ctx, initStateTxId)
		if err != nil {
			return nil, err
		}
		if !json.Valid(initStateTx.Data) {
			return nil, apperrors.NewContractError(apperrors.SubtypeKnownError, errors.New("init-state-tx data is not valid JSON"))
		}
		return json.RawMessage(initStateTx.Data), nil
	}

	if json.Valid(contractTx.Data) && len(contractTx.Data) > 0 {
		return json.RawMessage(contractTx.Data), nil
	}

	return nil, apperrors.NewContractError(apperrors.SubtypeKnownError, errors.New("no init-state, init-state-tx, or valid contract data found"))
}

func tagMap(tags []model.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		out[t.Name] = t.Value
	}
	return out
}
