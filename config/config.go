// Package config carries the evaluator's tunables, mirroring the
// teacher repo's builder-style NodeConfig: a read interface plus a
// mutable builder whose setters return the builder so call sites chain.
package config

import "time"

// UnsafeClientPolicy controls how an evaluation reacts to references to
// an unsafe client.
type UnsafeClientPolicy string

const (
	UnsafeClientAllow UnsafeClientPolicy = "allow"
	UnsafeClientSkip  UnsafeClientPolicy = "skip"
	UnsafeClientThrow UnsafeClientPolicy = "throw"
)

// WasmSerializationFormat selects the wire format a wasm handler uses to
// exchange state with the host.
type WasmSerializationFormat string

const (
	WasmSerializationJSON    WasmSerializationFormat = "json"
	WasmSerializationMsgpack WasmSerializationFormat = "msgpack"
)

// EvaluationConfig is the read-only view the evaluator and its
// collaborators consult. Construct one with NewBuilder or Defaults().
type EvaluationConfig interface {
	IgnoreExceptions() bool
	UpdateCacheForEachInteraction() bool
	InternalWrites() bool
	MaxCallDepth() uint32
	MaxInteractionEvaluationTime() time.Duration
	UnsafeClient() UnsafeClientPolicy
	AllowBigInt() bool
	CacheEveryNInteractions() int32
	WhitelistSources() []string
	IsSourceWhitelisted(srcTxId string) bool
	WasmSerializationFormat() WasmSerializationFormat
	UseConstructor() bool
	UseKvStorage() bool
	StackTraceSaveState() bool
}

type evaluationConfig struct {
	ignoreExceptions               bool
	updateCacheForEachInteraction  bool
	internalWrites                 bool
	maxCallDepth                   uint32
	maxInteractionEvaluationTime   time.Duration
	unsafeClient                   UnsafeClientPolicy
	allowBigInt                    bool
	cacheEveryNInteractions        int32
	whitelistSources               []string
	wasmSerializationFormat        WasmSerializationFormat
	useConstructor                 bool
	useKvStorage                   bool
	stackTraceSaveState            bool
}

func (c *evaluationConfig) IgnoreExceptions() bool                        { return c.ignoreExceptions }
func (c *evaluationConfig) UpdateCacheForEachInteraction() bool           { return c.updateCacheForEachInteraction }
func (c *evaluationConfig) InternalWrites() bool                         { return c.internalWrites }
func (c *evaluationConfig) MaxCallDepth() uint32                          { return c.maxCallDepth }
func (c *evaluationConfig) MaxInteractionEvaluationTime() time.Duration   { return c.maxInteractionEvaluationTime }
func (c *evaluationConfig) UnsafeClient() UnsafeClientPolicy              { return c.unsafeClient }
func (c *evaluationConfig) AllowBigInt() bool                             { return c.allowBigInt }
func (c *evaluationConfig) CacheEveryNInteractions() int32                { return c.cacheEveryNInteractions }
func (c *evaluationConfig) WasmSerializationFormat() WasmSerializationFormat {
	return c.wasmSerializationFormat
}
func (c *evaluationConfig) UseConstructor() bool      { return c.useConstructor }
func (c *evaluationConfig) UseKvStorage() bool        { return c.useKvStorage }
func (c *evaluationConfig) StackTraceSaveState() bool { return c.stackTraceSaveState }

func (c *evaluationConfig) WhitelistSources() []string {
	out := make([]string, len(c.whitelistSources))
	copy(out, c.whitelistSources)
	return out
}

// IsSourceWhitelisted reports whether srcTxId may execute. An empty
// whitelist means every source is allowed, matching spec default [].
func (c *evaluationConfig) IsSourceWhitelisted(srcTxId string) bool {
	if len(c.whitelistSources) == 0 {
		return true
	}
	for _, allowed := range c.whitelistSources {
		if allowed == srcTxId {
			return true
		}
	}
	return false
}

// Builder constructs an EvaluationConfig field by field, in the teacher's
// chained-setter style. Start from Defaults() or NewBuilder().
type Builder struct {
	cfg evaluationConfig
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Defaults returns the builder seeded with spec.md's documented defaults.
func Defaults() *Builder {
	return &Builder{cfg: evaluationConfig{
		ignoreExceptions:              true,
		updateCacheForEachInteraction: false,
		internalWrites:                false,
		maxCallDepth:                  7,
		maxInteractionEvaluationTime:  60 * time.Second,
		unsafeClient:                  UnsafeClientThrow,
		allowBigInt:                   false,
		cacheEveryNInteractions:       -1,
		whitelistSources:              nil,
		wasmSerializationFormat:       WasmSerializationJSON,
		useConstructor:                false,
		useKvStorage:                  false,
		stackTraceSaveState:           false,
	}}
}

func (b *Builder) Build() EvaluationConfig {
	cfg := b.cfg
	cfg.whitelistSources = append([]string(nil), b.cfg.whitelistSources...)
	return &cfg
}

func (b *Builder) WithIgnoreExceptions(v bool) *Builder {
	b.cfg.ignoreExceptions = v
	return b
}

func (b *Builder) WithUpdateCacheForEachInteraction(v bool) *Builder {
	b.cfg.updateCacheForEachInteraction = v
	return b
}

func (b *Builder) WithInternalWrites(v bool) *Builder {
	b.cfg.internalWrites = v
	return b
}

func (b *Builder) WithMaxCallDepth(v uint32) *Builder {
	b.cfg.maxCallDepth = v
	return b
}

func (b *Builder) WithMaxInteractionEvaluationTime(v time.Duration) *Builder {
	b.cfg.maxInteractionEvaluationTime = v
	return b
}

func (b *Builder) WithUnsafeClient(v UnsafeClientPolicy) *Builder {
	b.cfg.unsafeClient = v
	return b
}

func (b *Builder) WithAllowBigInt(v bool) *Builder {
	b.cfg.allowBigInt = v
	return b
}

func (b *Builder) WithCacheEveryNInteractions(v int32) *Builder {
	b.cfg.cacheEveryNInteractions = v
	return b
}

func (b *Builder) WithWhitelistSources(v []string) *Builder {
	b.cfg.whitelistSources = v
	return b
}

func (b *Builder) WithWasmSerializationFormat(v WasmSerializationFormat) *Builder {
	b.cfg.wasmSerializationFormat = v
	return b
}

func (b *Builder) WithUseConstructor(v bool) *Builder {
	b.cfg.useConstructor = v
	return b
}

func (b *Builder) WithUseKvStorage(v bool) *Builder {
	b.cfg.useKvStorage = v
	return b
}

func (b *Builder) WithStackTraceSaveState(v bool) *Builder {
	b.cfg.stackTraceSaveState = v
	return b
}
