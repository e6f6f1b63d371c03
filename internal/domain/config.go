package domain

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Module identifiers of the built-in fix modules.
const (
	ModuleSilentFailure = "silent-failure"
	ModuleEnvVar        = "env-var"
	ModuleAuthGap       = "auth-gap"
	ModuleGhostRoute    = "ghost-route"
)

// ValidModuleIDs enumerates the built-in module identifiers.
var ValidModuleIDs = []string{
	ModuleSilentFailure,
	ModuleEnvVar,
	ModuleAuthGap,
	ModuleGhostRoute,
}

// ProjectConfig holds project-level configuration loaded from .patchgate.yaml.
type ProjectConfig struct {
	Policy          AutoFixPolicy `yaml:",inline"           json:"policy"`
	DisabledModules []string      `yaml:"disabled_modules"  json:"disabled_modules,omitempty"`
	Truthpack       string        `yaml:"truthpack"         json:"truthpack,omitempty"`
	Log             LogConfig     `yaml:"log"               json:"log"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level,omitempty"`
	Format string `yaml:"format" json:"format,omitempty"`
}

// DefaultTruthpackPath is where the truthpack is read from when unset.
const DefaultTruthpackPath = ".patchgate/truthpack.json"

// DefaultConfig returns a config whose policy is fully normalized.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Policy:    DefaultPolicy(),
		Truthpack: DefaultTruthpackPath,
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// IsModuleDisabled reports whether the module is switched off.
func (c ProjectConfig) IsModuleDisabled(id string) bool {
	for _, d := range c.DisabledModules {
		if d == id {
			return true
		}
	}
	return false
}

// Validate checks the raw config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	// 1. policy limits
	if err := c.Policy.Validate(); err != nil {
		return err
	}

	// 2. disabled_modules must name built-in modules
	for _, id := range c.DisabledModules {
		if !isValidModuleID(id) {
			return fmt.Errorf("unknown module %q in disabled_modules", id)
		}
	}

	// 3. cannot disable every module
	if len(c.DisabledModules) >= len(ValidModuleIDs) {
		allOff := true
		for _, id := range ValidModuleIDs {
			if !c.IsModuleDisabled(id) {
				allOff = false
				break
			}
		}
		if allOff {
			return fmt.Errorf("cannot disable all modules (must have at least one active)")
		}
	}

	// 4. log settings
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("unknown log.level %q", c.Log.Level)
		}
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be 'json' or 'console', got %q", c.Log.Format)
	}

	return nil
}

func isValidModuleID(id string) bool {
	for _, v := range ValidModuleIDs {
		if v == id {
			return true
		}
	}
	return false
}
