// Package executor builds a sandbox.Handler for a given contract
// definition, implementing spec.md §4.6: blacklist/allowlist checks,
// plugin selection by contract_type, and a cache keyed by src_tx_id.
package executor

import (
	"github.com/pkg/errors"

	"github.com/warp-contracts/weave-engine/apperrors"
	"github.com/warp-contracts/weave-engine/config"
	"github.com/warp-contracts/weave-engine/model"
	"github.com/warp-contracts/weave-engine/services/sandbox"
)

// Plugin compiles a ContractDefinition into a runnable Handler for one
// contract_type. Concrete plugin bodies (a JS VM, a wasm runtime) are
// out of scope here; this module wires only the interface they satisfy.
type Plugin[S any] interface {
	ContractType() model.ContractType
	Compile(def model.ContractDefinition) (sandbox.Handler[S], error)
}

// Blacklist reports whether srcTxId is forbidden from executing
// regardless of the allowlist.
type Blacklist interface {
	IsBlacklisted(srcTxId string) bool
}

// BlacklistFunc adapts a plain function to Blacklist.
type BlacklistFunc func(srcTxId string) bool

func (f BlacklistFunc) IsBlacklisted(srcTxId string) bool { return f(srcTxId) }

// NoBlacklist rejects nothing.
var NoBlacklist Blacklist = BlacklistFunc(func(string) bool { return false })

// Factory builds handlers, checking the blacklist and the allowlist
// carried on cfg before compiling.
type Factory[S any] struct {
	plugins   map[model.ContractType]Plugin[S]
	blacklist Blacklist
}

func NewFactory[S any](blacklist Blacklist, plugins ...Plugin[S]) *Factory[S] {
	if blacklist == nil {
		blacklist = NoBlacklist
	}
	f := &Factory[S]{plugins: map[model.ContractType]Plugin[S]{}, blacklist: blacklist}
	for _, p := range plugins {
		f.plugins[p.ContractType()] = p
	}
	return f
}

// Create builds a handler for def, consulting cfg's source allowlist.
func (f *Factory[S]) Create(def model.ContractDefinition, cfg config.EvaluationConfig) (sandbox.Handler[S], error) {
	if f.blacklist.IsBlacklisted(def.SrcTxId) {
		return nil, apperrors.NewContractError(apperrors.SubtypeBlacklistedSkip,
			errors.Errorf("source %s is blacklisted", def.SrcTxId))
	}
	if cfg != nil && !cfg.IsSourceWhitelisted(def.SrcTxId) {
		return nil, apperrors.NewNonWhitelistedSourceError(def.SrcTxId)
	}

	plugin, ok := f.plugins[def.ContractType]
	if !ok {
		return nil, apperrors.NewContractError(apperrors.SubtypeKnownError,
			errors.Errorf("no sandbox plugin registered for contract type %q", def.ContractType))
	}

	handler, err := plugin.Compile(def)
	if err != nil {
		return nil, apperrors.NewContractError(apperrors.SubtypeKnownError,
			errors.Wrapf(err, "failed to compile %s (src %s)", def.TxId, def.SrcTxId))
	}
	return handler, nil
}
