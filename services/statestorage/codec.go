package statestorage

import (
	"github.com/warp-contracts/weave-engine/codec"
	"github.com/warp-contracts/weave-engine/model"
)

// jsonCodec wires codec.EncodeJSON/DecodeJSON as a Codec[*EvalStateResult[S]].
type jsonCodec[S any] struct{}

func (jsonCodec[S]) Encode(v *model.EvalStateResult[S]) ([]byte, error) {
	return codec.EncodeJSON(v)
}

func (jsonCodec[S]) Decode(data []byte) (*model.EvalStateResult[S], error) {
	return codec.DecodeJSON[S](data)
}

// NewEvalStateResultCache builds a Cache over *model.EvalStateResult[S],
// serialized as canonical JSON.
func NewEvalStateResultCache[S any](adapter Adapter) *Cache[*model.EvalStateResult[S]] {
	return New[*model.EvalStateResult[S]](adapter, jsonCodec[S]{})
}
