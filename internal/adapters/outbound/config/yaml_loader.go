package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdidvp/patchgate/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = ".patchgate.yaml"

// YAMLLoader implements domain.PolicyLoader by reading .patchgate.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .patchgate.yaml from projectPath.
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(projectPath string) (domain.ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.ProjectConfig{}, err
	}

	var cfg domain.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	// Validate before normalizing; Normalize would hide typos in raw input.
	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}

	return mergeConfig(domain.DefaultConfig(), cfg), nil
}

// mergeConfig overlays explicit values on top of the defaults.
func mergeConfig(base, override domain.ProjectConfig) domain.ProjectConfig {
	result := base
	result.Policy = override.Policy.Normalize()
	result.DisabledModules = override.DisabledModules

	if override.Truthpack != "" {
		result.Truthpack = override.Truthpack
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		result.Log.Format = override.Log.Format
	}
	return result
}
