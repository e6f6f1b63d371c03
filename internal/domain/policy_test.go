package domain_test

import (
	"testing"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := domain.DefaultPolicy()
	assert.Equal(t, domain.DefaultMaxLinesPerFix, p.MaxLinesPerFix)
	assert.Equal(t, domain.DefaultMaxFilesPerFix, p.MaxFilesPerFix)
	assert.Equal(t, domain.DefaultMaxIssuesPerRun, p.MaxIssuesPerRun)
	assert.Equal(t, domain.DefaultMaxBytesPerFix, p.MaxBytesPerFix)
	assert.Equal(t, domain.DefaultParallelism, p.Parallelism)
	assert.InDelta(t, domain.DefaultMinConfidence, *p.MinConfidence, 0.0001)
	assert.InDelta(t, domain.DefaultWarnConfidence, *p.WarnConfidence, 0.0001)
	assert.False(t, p.DryRun)
}

func TestNormalize_Clamps(t *testing.T) {
	tests := []struct {
		name  string
		in    domain.AutoFixPolicy
		check func(t *testing.T, p domain.AutoFixPolicy)
	}{
		{"negative lines floor at one", domain.AutoFixPolicy{MaxLinesPerFix: -5}, func(t *testing.T, p domain.AutoFixPolicy) {
			assert.Equal(t, 1, p.MaxLinesPerFix)
		}},
		{"huge lines hit the ceiling", domain.AutoFixPolicy{MaxLinesPerFix: 100000}, func(t *testing.T, p domain.AutoFixPolicy) {
			assert.Equal(t, 500, p.MaxLinesPerFix)
		}},
		{"parallelism ceiling", domain.AutoFixPolicy{Parallelism: 1000}, func(t *testing.T, p domain.AutoFixPolicy) {
			assert.Equal(t, 32, p.Parallelism)
		}},
		{"confidence above one", domain.AutoFixPolicy{MinConfidence: domain.Float(1.5)}, func(t *testing.T, p domain.AutoFixPolicy) {
			assert.InDelta(t, 1.0, *p.MinConfidence, 0.0001)
		}},
		{"warn raised to min", domain.AutoFixPolicy{MinConfidence: domain.Float(0.8), WarnConfidence: domain.Float(0.6)}, func(t *testing.T, p domain.AutoFixPolicy) {
			assert.InDelta(t, 0.8, *p.WarnConfidence, 0.0001)
		}},
		{"blocked paths cleaned", domain.AutoFixPolicy{BlockedPaths: []string{" vendor/** ", "vendor/**", "", "src/[a"}}, func(t *testing.T, p domain.AutoFixPolicy) {
			assert.Equal(t, []string{"vendor/**"}, p.BlockedPaths)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.in.Normalize())
		})
	}
}

func TestNormalize_ExplicitZeroConfidenceDisablesFloor(t *testing.T) {
	p := domain.AutoFixPolicy{MinConfidence: domain.Float(0)}.Normalize()
	assert.InDelta(t, 0.0, *p.MinConfidence, 0.0001)
	assert.InDelta(t, 0.0, p.MinFloor(), 0.0001)
	assert.InDelta(t, domain.DefaultWarnConfidence, p.WarnFloor(), 0.0001)
}

func TestPolicyFloors_UnsetUsesDefaults(t *testing.T) {
	var p domain.AutoFixPolicy
	assert.InDelta(t, domain.DefaultMinConfidence, p.MinFloor(), 0.0001)
	assert.InDelta(t, domain.DefaultWarnConfidence, p.WarnFloor(), 0.0001)
}

func TestNormalize_Idempotent(t *testing.T) {
	p := domain.AutoFixPolicy{MaxLinesPerFix: 9999, MinConfidence: domain.Float(0.9), BlockedPaths: []string{"a/**", "a/**"}}.Normalize()
	assert.Equal(t, p, p.Normalize())
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  domain.AutoFixPolicy
		wantErr string
	}{
		{"zero is valid", domain.AutoFixPolicy{}, ""},
		{"negative lines", domain.AutoFixPolicy{MaxLinesPerFix: -1}, "max_lines_per_fix"},
		{"too many files", domain.AutoFixPolicy{MaxFilesPerFix: 1000}, "max_files_per_fix"},
		{"parallelism", domain.AutoFixPolicy{Parallelism: 64}, "parallelism"},
		{"min confidence", domain.AutoFixPolicy{MinConfidence: domain.Float(2)}, "min_confidence"},
		{"warn confidence", domain.AutoFixPolicy{WarnConfidence: domain.Float(-0.1)}, "warn_confidence"},
		{"bad glob", domain.AutoFixPolicy{BlockedPaths: []string{"src/[a"}}, "blocked_paths[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, 0.9, domain.ConfidenceHigh.Score())
	assert.Equal(t, 0.7, domain.ConfidenceMedium.Score())
	assert.Equal(t, 0.5, domain.ConfidenceLow.Score())
}
