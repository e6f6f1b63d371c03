package domain

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Confidence is a module-level trust class.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Score maps the class onto the numeric scale the validator gates on.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.7
	default:
		return 0.5
	}
}

// Policy defaults and clamps.
const (
	DefaultMaxLinesPerFix  = 50
	DefaultMaxFilesPerFix  = 10
	DefaultMaxIssuesPerRun = 50
	DefaultMaxBytesPerFix  = 64 * 1024
	DefaultMinConfidence   = 0.5
	DefaultWarnConfidence  = 0.7
	DefaultParallelism     = 4

	maxLinesCeiling  = 500
	maxFilesCeiling  = 100
	maxIssuesCeiling = 500
	maxBytesCeiling  = 1024 * 1024
	maxParallelism   = 32
)

// AutoFixPolicy is the normalized set of safety limits for one run.
type AutoFixPolicy struct {
	MaxLinesPerFix  int      `yaml:"max_lines_per_fix"  json:"max_lines_per_fix"`
	MaxFilesPerFix  int      `yaml:"max_files_per_fix"  json:"max_files_per_fix"`
	MaxIssuesPerRun int      `yaml:"max_issues_per_run" json:"max_issues_per_run"`
	MaxBytesPerFix  int      `yaml:"max_bytes_per_fix"  json:"max_bytes_per_fix"`
	BlockedPaths    []string `yaml:"blocked_paths"      json:"blocked_paths,omitempty"`
	DryRun          bool     `yaml:"dry_run"            json:"dry_run"`
	// Confidence floors are pointers so an explicit 0 turns the floor off
	// instead of selecting the default.
	MinConfidence  *float64 `yaml:"min_confidence"     json:"min_confidence"`
	WarnConfidence *float64 `yaml:"warn_confidence"    json:"warn_confidence"`
	Parallelism     int      `yaml:"parallelism"        json:"parallelism"`
}

// DefaultPolicy returns the normalized zero policy.
func DefaultPolicy() AutoFixPolicy {
	return AutoFixPolicy{}.Normalize()
}

// Normalize fills defaults and clamps out-of-range values so downstream code
// never sees an invalid policy. Zero integer limits and unset confidence
// floors mean "use the default".
func (p AutoFixPolicy) Normalize() AutoFixPolicy {
	n := p
	n.MaxLinesPerFix = clampInt(p.MaxLinesPerFix, DefaultMaxLinesPerFix, 1, maxLinesCeiling)
	n.MaxFilesPerFix = clampInt(p.MaxFilesPerFix, DefaultMaxFilesPerFix, 1, maxFilesCeiling)
	n.MaxIssuesPerRun = clampInt(p.MaxIssuesPerRun, DefaultMaxIssuesPerRun, 1, maxIssuesCeiling)
	n.MaxBytesPerFix = clampInt(p.MaxBytesPerFix, DefaultMaxBytesPerFix, 1, maxBytesCeiling)
	n.Parallelism = clampInt(p.Parallelism, DefaultParallelism, 1, maxParallelism)
	lo := clampFloat(p.MinConfidence, DefaultMinConfidence)
	n.MinConfidence = Float(lo)
	n.WarnConfidence = Float(max(clampFloat(p.WarnConfidence, DefaultWarnConfidence), lo))

	n.BlockedPaths = nil
	seen := make(map[string]bool)
	for _, g := range p.BlockedPaths {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] || !doublestar.ValidatePattern(g) {
			continue
		}
		seen[g] = true
		n.BlockedPaths = append(n.BlockedPaths, g)
	}
	return n
}

// Validate reports the first invalid value in a raw, user-supplied policy.
// Normalize would silently clamp these; Validate lets config loading surface
// typos instead.
func (p AutoFixPolicy) Validate() error {
	ints := []struct {
		name string
		v    int
		max  int
	}{
		{"max_lines_per_fix", p.MaxLinesPerFix, maxLinesCeiling},
		{"max_files_per_fix", p.MaxFilesPerFix, maxFilesCeiling},
		{"max_issues_per_run", p.MaxIssuesPerRun, maxIssuesCeiling},
		{"max_bytes_per_fix", p.MaxBytesPerFix, maxBytesCeiling},
		{"parallelism", p.Parallelism, maxParallelism},
	}
	for _, f := range ints {
		if f.v < 0 || f.v > f.max {
			return fmt.Errorf("%s = %d (must be between 0 and %d)", f.name, f.v, f.max)
		}
	}

	floats := []struct {
		name string
		v    *float64
	}{
		{"min_confidence", p.MinConfidence},
		{"warn_confidence", p.WarnConfidence},
	}
	for _, f := range floats {
		if f.v != nil && (*f.v < 0 || *f.v > 1) {
			return fmt.Errorf("%s = %.2f (must be between 0.0 and 1.0)", f.name, *f.v)
		}
	}

	for i, g := range p.BlockedPaths {
		if !doublestar.ValidatePattern(g) {
			return fmt.Errorf("blocked_paths[%d] = %q is not a valid glob", i, g)
		}
	}
	return nil
}

func clampInt(v, def, lo, hi int) int {
	switch {
	case v == 0:
		return def
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// MinFloor is the confidence below which patches are rejected.
func (p AutoFixPolicy) MinFloor() float64 {
	return clampFloat(p.MinConfidence, DefaultMinConfidence)
}

// WarnFloor is the confidence below which approved patches carry a warning.
func (p AutoFixPolicy) WarnFloor() float64 {
	return max(clampFloat(p.WarnConfidence, DefaultWarnConfidence), p.MinFloor())
}

// Float returns a pointer to v, for setting optional policy fields.
func Float(v float64) *float64 {
	return &v
}

func clampFloat(v *float64, def float64) float64 {
	switch {
	case v == nil:
		return def
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	default:
		return *v
	}
}
