package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML document into a generic map.
// ${VAR} references are expanded from the environment before parsing.
// Values keep their YAML types (int, float64, bool, string, nested maps),
// so callers can validate them as they would any other untyped input.
func LoadFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadingFile, err)
	}

	out := make(map[string]any)
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &out); err != nil {
		return nil, errors.Join(ErrParsingFile, err)
	}
	return out, nil
}

// Section returns the nested map stored under key, or nil when the key is
// absent or does not hold a map.
func Section(doc map[string]any, key string) map[string]any {
	sub, _ := doc[key].(map[string]any)
	return sub
}
