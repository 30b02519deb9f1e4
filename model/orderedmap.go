package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// OrderedMap is a string-keyed map that remembers insertion order, used
// for EvalStateResult.Validity and .ErrorMessages so that two folds over
// the same interaction stream serialize byte-identically regardless of
// map iteration order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: map[string]V{}}
}

func (m *OrderedMap[V]) Set(key string, value V) {
	if m.values == nil {
		m.values = map[string]V{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap[V]) Keys() []string {
	return m.keys
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, errors.Wrap(err, "marshaling ordered map key")
		}
		valBytes, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, errors.Wrap(err, "marshaling ordered map value")
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("expected JSON object for ordered map, got %v", tok)
	}
	m.keys = nil
	m.values = map[string]V{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.Errorf("expected string key, got %v", keyTok)
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "decoding value for key %q", key)
		}
		m.Set(key, value)
	}
	return nil
}

// EncodeMsgpack and DecodeMsgpack implement msgpack.CustomEncoder and
// CustomDecoder so the map's insertion order survives the same round trip
// guarantee MarshalJSON/UnmarshalJSON give the JSON codec.
func (m *OrderedMap[V]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(m.keys)); err != nil {
		return err
	}
	for _, k := range m.keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := enc.Encode(m.values[k]); err != nil {
			return err
		}
	}
	return nil
}

func (m *OrderedMap[V]) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	m.keys = nil
	m.values = map[string]V{}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		var value V
		if err := dec.Decode(&value); err != nil {
			return err
		}
		m.Set(key, value)
	}
	return nil
}
