package evaluator

import (
	"context"
	"encoding/json"

	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/definition"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

const evolveTagName = "evolve"

// EvolveModifier implements spec.md §4.7 step 10's built-in modifier: an
// accepted interaction carrying an evolve tag rebinds the active
// definition to the referenced src_tx_id from that sort-key onward.
type EvolveModifier struct {
	Definitions *definition.Loader
}

func (m EvolveModifier) Apply(ctx context.Context, contract string, activeDef model.ContractDefinition, i model.Interaction, result sandbox.Result[json.RawMessage]) (model.ContractDefinition, error) {
	if result.Kind != sandbox.ResultOk {
		return activeDef, nil
	}
	newSrcTxId, ok := i.Tag(evolveTagName)
	if !ok || newSrcTxId == "" {
		return activeDef, nil
	}

	newDef, err := m.Definitions.Load(ctx, contract, newSrcTxId)
	if err != nil {
		// A failing evolve keeps the old source active for subsequent
		// interactions rather than failing the whole fold.
		return activeDef, nil
	}
	return newDef, nil
}
