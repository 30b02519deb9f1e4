package model

import "encoding/json"

// ContractType selects the sandbox plugin an ExecutorFactory must pick.
type ContractType string

const (
	ContractTypeJS   ContractType = "js"
	ContractTypeWasm ContractType = "wasm"
)

// Source is either UTF-8 source text (JS) or a binary module (Wasm).
type Source struct {
	ContentType string `json:"contentType"`
	Text        string `json:"text,omitempty"`
	Binary      []byte `json:"binary,omitempty"`
}

// ContractDefinition is the immutable triple (source, init state,
// metadata) resolved by the definition loader for one src_tx_id.
type ContractDefinition struct {
	TxId          string          `json:"txId"`
	SrcTxId       string          `json:"srcTxId"`
	Src           Source          `json:"src"`
	InitState     json.RawMessage `json:"initState"`
	Owner         string          `json:"owner"`
	MinFee        string          `json:"minFee,omitempty"`
	Manifest      json.RawMessage `json:"manifest,omitempty"`
	ContractType  ContractType    `json:"contractType"`
	WasmLanguage  string          `json:"wasmLanguage,omitempty"`
	WasmMeta      json.RawMessage `json:"wasmMeta,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Testnet       bool            `json:"testnet,omitempty"`
}

// Manifest captures the subset of the Manifest tag's JSON the engine
// itself interprets; sandbox-specific fields pass through opaquely via
// ContractDefinition.Manifest.
type Manifest struct {
	UseConstructor bool `json:"useConstructor"`
}
