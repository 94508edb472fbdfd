package config

import (
	"fmt"
	"strconv"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
func ShowAll(cfg Config) []KeyInfo {
	result := make([]KeyInfo, 0, len(specs))
	for _, s := range specs {
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// SetKey writes a config key to the platform backend.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), key, value)
}

func setKeyWith(b ConfigBackend, key, value string) error {
	s, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	switch s.typ {
	case kInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		return b.SetInt(key, i)
	default:
		if key == "ui.input_mode" && value != InputModeText && value != InputModeSelect {
			return fmt.Errorf("invalid value for %s: %q (want %q or %q)", key, value, InputModeText, InputModeSelect)
		}
		return b.SetString(key, value)
	}
}

// UnsetKey removes a config key from the platform backend, so the default or
// an M5FRONT_* variable applies again.
func UnsetKey(key string) error {
	return unsetKeyWith(newPlatformBackend(), key)
}

func unsetKeyWith(b ConfigBackend, key string) error {
	if _, ok := lookupSpec(key); !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if err := b.Delete(key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// ValidKeys returns the list of valid config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
