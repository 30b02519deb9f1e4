package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchDocumentedValues(t *testing.T) {
	cfg := Defaults().Build()
	require.True(t, cfg.IgnoreExceptions())
	require.False(t, cfg.UpdateCacheForEachInteraction())
	require.False(t, cfg.InternalWrites())
	require.EqualValues(t, 7, cfg.MaxCallDepth())
	require.Equal(t, 60*time.Second, cfg.MaxInteractionEvaluationTime())
	require.Equal(t, UnsafeClientThrow, cfg.UnsafeClient())
	require.False(t, cfg.AllowBigInt())
	require.EqualValues(t, -1, cfg.CacheEveryNInteractions())
	require.Empty(t, cfg.WhitelistSources())
	require.Equal(t, WasmSerializationJSON, cfg.WasmSerializationFormat())
	require.False(t, cfg.UseConstructor())
	require.False(t, cfg.UseKvStorage())
	require.False(t, cfg.StackTraceSaveState())
}

func TestEmptyWhitelistAllowsAnySource(t *testing.T) {
	cfg := Defaults().Build()
	require.True(t, cfg.IsSourceWhitelisted("anything"))
}

func TestNonEmptyWhitelistRestrictsSources(t *testing.T) {
	cfg := Defaults().WithWhitelistSources([]string{"src-a", "src-b"}).Build()
	require.True(t, cfg.IsSourceWhitelisted("src-a"))
	require.False(t, cfg.IsSourceWhitelisted("src-c"))
}

func TestNewFileConfigOverridesDefaults(t *testing.T) {
	source := []byte(`{
		"ignore-exceptions": false,
		"max-call-depth": 3,
		"max-interaction-evaluation-time-seconds": 5,
		"unsafe-client": "skip",
		"whitelist-sources": ["abc", "def"],
		"wasm-serialization-format": "msgpack",
		"use-constructor": true
	}`)

	b, err := NewFileConfig(source)
	require.NoError(t, err)
	cfg := b.Build()

	require.False(t, cfg.IgnoreExceptions())
	require.EqualValues(t, 3, cfg.MaxCallDepth())
	require.Equal(t, 5*time.Second, cfg.MaxInteractionEvaluationTime())
	require.Equal(t, UnsafeClientSkip, cfg.UnsafeClient())
	require.Equal(t, []string{"abc", "def"}, cfg.WhitelistSources())
	require.Equal(t, WasmSerializationMsgpack, cfg.WasmSerializationFormat())
	require.True(t, cfg.UseConstructor())
}

func TestNewFileConfigRejectsUnknownKey(t *testing.T) {
	_, err := NewFileConfig([]byte(`{"not-a-real-option": true}`))
	require.Error(t, err)
}

func TestNewFileConfigRejectsMalformedJSON(t *testing.T) {
	_, err := NewFileConfig([]byte(`not json`))
	require.Error(t, err)
}
