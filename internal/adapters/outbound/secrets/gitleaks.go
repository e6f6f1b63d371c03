// Package secrets adapts the gitleaks rule set to domain.SecretScanner.
package secrets

import (
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
	"go.uber.org/zap"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/logging"
)

// Scanner runs the default gitleaks configuration over patch text. The
// detector is built on first use and shared by every later scan.
type Scanner struct {
	logger *zap.Logger

	once     sync.Once
	detector *detect.Detector
	loadErr  error
}

// New creates a Scanner. logger may be nil.
func New(logger *zap.Logger) *Scanner {
	return &Scanner{logger: logging.OrNop(logger)}
}

// Scan returns the secrets gitleaks finds in content. A detector that fails
// to load yields no findings; the validator's own rules still apply.
func (s *Scanner) Scan(content string) []domain.SecretFinding {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	detector, err := s.load()
	if err != nil {
		return nil
	}

	found := detector.DetectString(content)
	out := make([]domain.SecretFinding, 0, len(found))
	for _, f := range found {
		out = append(out, domain.SecretFinding{
			RuleID:      f.RuleID,
			Description: f.Description,
			Line:        f.StartLine,
		})
	}
	return out
}

func (s *Scanner) load() (*detect.Detector, error) {
	s.once.Do(func() {
		// Create detector with default Gitleaks config
		s.detector, s.loadErr = detect.NewDetectorDefaultConfig()
		if s.loadErr != nil {
			s.logger.Warn("gitleaks detector unavailable", zap.Error(s.loadErr))
		}
	})
	return s.detector, s.loadErr
}
