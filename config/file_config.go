package config

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// NewFileConfig populates a Builder seeded with Defaults() from a JSON
// document using spec.md's option names (hyphen or underscore, either
// works - keys are normalized before matching).
func NewFileConfig(source []byte) (*Builder, error) {
	return newFileConfig(Defaults(), source)
}

func newFileConfig(b *Builder, source []byte) (*Builder, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(source, &data); err != nil {
		return nil, errors.Wrap(err, "failed to parse evaluation config")
	}
	if err := populateConfig(b, data); err != nil {
		return nil, err
	}
	return b, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.Replace(key, "-", "_", -1))
}

func populateConfig(b *Builder, data map[string]interface{}) error {
	for rawKey, value := range data {
		key := normalizeKey(rawKey)
		var err error
		switch key {
		case "ignore_exceptions":
			err = setBool(value, b.WithIgnoreExceptions)
		case "update_cache_for_each_interaction":
			err = setBool(value, b.WithUpdateCacheForEachInteraction)
		case "internal_writes":
			err = setBool(value, b.WithInternalWrites)
		case "allow_big_int":
			err = setBool(value, b.WithAllowBigInt)
		case "use_constructor":
			err = setBool(value, b.WithUseConstructor)
		case "use_kv_storage":
			err = setBool(value, b.WithUseKvStorage)
		case "stack_trace.save_state", "stack_trace_save_state":
			err = setBool(value, b.WithStackTraceSaveState)
		case "max_call_depth":
			err = setUint32(value, b.WithMaxCallDepth)
		case "max_interaction_evaluation_time_seconds":
			err = setSeconds(value, b.WithMaxInteractionEvaluationTime)
		case "cache_every_n_interactions":
			err = setInt32(value, b.WithCacheEveryNInteractions)
		case "unsafe_client":
			if s, ok := value.(string); ok {
				b.WithUnsafeClient(UnsafeClientPolicy(s))
			} else {
				err = errors.Errorf("unsafe_client must be a string")
			}
		case "wasm_serialization_format":
			if s, ok := value.(string); ok {
				b.WithWasmSerializationFormat(WasmSerializationFormat(s))
			} else {
				err = errors.Errorf("wasm_serialization_format must be a string")
			}
		case "whitelist_sources":
			sources, serr := toStringSlice(value)
			if serr != nil {
				err = serr
			} else {
				b.WithWhitelistSources(sources)
			}
		default:
			err = errors.Errorf("unknown evaluation config key %q", rawKey)
		}
		if err != nil {
			return errors.Wrapf(err, "could not decode value for config key %s", rawKey)
		}
	}
	return nil
}

func setBool(value interface{}, set func(bool) *Builder) error {
	b, ok := value.(bool)
	if !ok {
		return errors.Errorf("expected boolean, got %T", value)
	}
	set(b)
	return nil
}

func setUint32(value interface{}, set func(uint32) *Builder) error {
	f, ok := value.(float64)
	if !ok {
		return errors.Errorf("expected number, got %T", value)
	}
	set(uint32(f))
	return nil
}

func setInt32(value interface{}, set func(int32) *Builder) error {
	f, ok := value.(float64)
	if !ok {
		return errors.Errorf("expected number, got %T", value)
	}
	set(int32(f))
	return nil
}

func setSeconds(value interface{}, set func(time.Duration) *Builder) error {
	f, ok := value.(float64)
	if !ok {
		return errors.Errorf("expected number of seconds, got %T", value)
	}
	set(time.Duration(f) * time.Second)
	return nil
}

func toStringSlice(value interface{}) ([]string, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, errors.Errorf("expected array, got %T", value)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, errors.Errorf("expected string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
