package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML (or JSON) dataset into T, matching keys against the mapstructure tags of T
func Load[T any](path string) (T, error) {
	var input T
	bytes, err := os.ReadFile(path)
	if err != nil {
		return input, fmt.Errorf("cannot read dataset %v: %w", filepath.Base(path), err)
	}
	input, err = Parse[T](bytes)
	if err != nil {
		return input, fmt.Errorf("cannot parse dataset %v: %w", filepath.Base(path), err)
	}
	return input, nil
}

func Parse[T any](data []byte) (T, error) {
	var input T

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return input, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &input,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return input, err
	}
	if err := decoder.Decode(raw); err != nil {
		return input, err
	}
	return input, nil
}
