package fixers

import (
	"fmt"

	"github.com/abdidvp/patchgate/internal/domain"
)

// Registry holds fix modules in registration order. The first module whose
// CanFix accepts an issue owns it.
type Registry struct {
	modules []domain.FixModule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default registers the built-in modules.
func Default(analyzer domain.SourceAnalyzer) *Registry {
	r := NewRegistry()
	for _, m := range []domain.FixModule{
		NewSilentFailure(analyzer),
		NewEnvVar(analyzer),
		NewAuthGap(analyzer),
		NewGhostRoute(analyzer),
	} {
		// IDs are distinct constants; Register cannot fail here.
		_ = r.Register(m)
	}
	return r
}

// Register appends m. Module IDs must be unique.
func (r *Registry) Register(m domain.FixModule) error {
	for _, existing := range r.modules {
		if existing.ID() == m.ID() {
			return fmt.Errorf("module %q already registered", m.ID())
		}
	}
	r.modules = append(r.modules, m)
	return nil
}

// ModuleFor returns the first module that can fix issue.
func (r *Registry) ModuleFor(issue domain.Issue) (domain.FixModule, bool) {
	for _, m := range r.modules {
		if handles(m, issue.Type) && m.CanFix(issue) {
			return m, true
		}
	}
	return nil, false
}

// Modules returns the registered modules in order.
func (r *Registry) Modules() []domain.FixModule {
	return append([]domain.FixModule(nil), r.modules...)
}

// Without returns a registry lacking the given module IDs.
func (r *Registry) Without(ids ...string) *Registry {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		skip[id] = true
	}
	out := NewRegistry()
	for _, m := range r.modules {
		if !skip[m.ID()] {
			out.modules = append(out.modules, m)
		}
	}
	return out
}

func handles(m domain.FixModule, t domain.IssueType) bool {
	for _, it := range m.IssueTypes() {
		if it == t {
			return true
		}
	}
	return false
}
