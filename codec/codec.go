// Package codec serializes EvalStateResult for the sort-key cache and
// for handing folded state back across a process boundary. JSON is the
// canonical wire format; msgpack is offered for the wasm handlers that
// exchange state with the host in that format (spec.md's
// wasm_serialization_format option).
package codec

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/warp-contracts/weave-engine/model"
)

func EncodeJSON[S any](result *model.EvalStateResult[S]) ([]byte, error) {
	out, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to JSON-encode eval state result")
	}
	return out, nil
}

func DecodeJSON[S any](data []byte) (*model.EvalStateResult[S], error) {
	result := &model.EvalStateResult[S]{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, errors.Wrap(err, "failed to JSON-decode eval state result")
	}
	return result, nil
}

func EncodeMsgpack[S any](result *model.EvalStateResult[S]) ([]byte, error) {
	out, err := msgpack.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to msgpack-encode eval state result")
	}
	return out, nil
}

func DecodeMsgpack[S any](data []byte) (*model.EvalStateResult[S], error) {
	result := &model.EvalStateResult[S]{}
	if err := msgpack.Unmarshal(data, result); err != nil {
		return nil, errors.Wrap(err, "failed to msgpack-decode eval state result")
	}
	return result, nil
}
