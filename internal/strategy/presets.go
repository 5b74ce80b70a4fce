package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a named strategy configuration entry in YAML.
type Preset struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Parameters  Params `yaml:"parameters"`
}

// PresetFile represents the top-level YAML structure.
type PresetFile struct {
	Strategies []Preset `yaml:"strategies"`
}

// Strategy builds the preset's variant.
func (p Preset) Strategy() Strategy {
	return Build(p.Type, p.Parameters)
}

// LoadPresets reads named strategies from a YAML file.
func LoadPresets(path string) (map[string]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePresets(data)
}

// ParsePresets decodes a preset document. Names must be unique.
func ParsePresets(data []byte) (map[string]Preset, error) {
	var file PresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	out := make(map[string]Preset, len(file.Strategies))
	for _, p := range file.Strategies {
		if p.Name == "" {
			return nil, fmt.Errorf("preset of type %q has no name", p.Type)
		}
		if _, dup := out[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		out[p.Name] = p
	}
	return out, nil
}

// Resolve returns the preset named name if present, else the built-in
// variant for name with params applied.
func Resolve(presets map[string]Preset, name string, params Params) Strategy {
	if p, ok := presets[name]; ok {
		merged := Params{}
		for k, v := range p.Parameters {
			merged[k] = v
		}
		for k, v := range params {
			merged[k] = v
		}
		return Build(p.Type, merged)
	}
	return Build(name, params)
}
