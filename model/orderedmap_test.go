package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap[bool]()
	m.Set("z", true)
	m.Set("a", false)
	m.Set("m", true)
	require.Equal(t, []string{"z", "a", "m"}, m.Keys())
}

func TestOrderedMapOverwriteKeepsOriginalPosition(t *testing.T) {
	m := NewOrderedMap[string]()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("a", "3")
	require.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, "3", v)
}

func TestOrderedMapJSONRoundTripPreservesOrder(t *testing.T) {
	m := NewOrderedMap[bool]()
	m.Set("tx-3", true)
	m.Set("tx-1", false)
	m.Set("tx-2", true)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, `{"tx-3":true,"tx-1":false,"tx-2":true}`, string(data))

	roundTripped := NewOrderedMap[bool]()
	require.NoError(t, json.Unmarshal(data, roundTripped))
	require.Equal(t, []string{"tx-3", "tx-1", "tx-2"}, roundTripped.Keys())
}

func TestOrderedMapMsgpackRoundTripPreservesOrder(t *testing.T) {
	m := NewOrderedMap[string]()
	m.Set("tx-3", "ok")
	m.Set("tx-1", "error: bad input")
	m.Set("tx-2", "ok")

	data, err := msgpack.Marshal(m)
	require.NoError(t, err)

	roundTripped := NewOrderedMap[string]()
	require.NoError(t, msgpack.Unmarshal(data, roundTripped))
	require.Equal(t, []string{"tx-3", "tx-1", "tx-2"}, roundTripped.Keys())
	v, ok := roundTripped.Get("tx-1")
	require.True(t, ok)
	require.Equal(t, "error: bad input", v)
}
