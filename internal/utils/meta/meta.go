package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var keyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ParseSpecs parses KEY=VALUE metadata specs. Values that are valid JSON keep their
// type (numbers, booleans, objects...), the rest are strings. A bare KEY takes its
// value from the environment variable with the same name.
func ParseSpecs(specs []string) (map[string]any, error) {
	meta := make(map[string]any, len(specs))

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("metadata spec cannot be empty")
		}

		if key, value, ok := strings.Cut(spec, "="); ok {
			if !isValidKey(key) {
				return nil, fmt.Errorf("invalid metadata key %q", key)
			}

			meta[key] = parseValue(value)
			continue
		}

		if !isValidKey(spec) {
			return nil, fmt.Errorf("invalid metadata key %q", spec)
		}

		value, ok := os.LookupEnv(spec)
		if !ok {
			return nil, fmt.Errorf("environment variable %q is not set", spec)
		}

		meta[spec] = value
	}

	return meta, nil
}

// Merge returns a new map with the override keys on top of the base ones.
func Merge(base map[string]any, override map[string]any) map[string]any {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}

	return merged
}

func parseValue(v string) any {
	var res any
	if err := json.Unmarshal([]byte(v), &res); err != nil {
		return v
	}
	return res
}

func isValidKey(k string) bool {
	return keyRegexp.MatchString(k)
}
