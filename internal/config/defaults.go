package config

import (
	_ "embed"
)

//go:embed defaults/env.yaml
var defaultEnvYAML []byte

//go:embed defaults/grid.yaml
var defaultGridYAML []byte

// GetDefaultYAML returns the embedded default YAML for a config name.
func GetDefaultYAML(name string) []byte {
	switch name {
	case "env":
		return defaultEnvYAML
	case "grid":
		return defaultGridYAML
	default:
		return nil
	}
}
