package domain

import "strings"

// FixContext is the read-only, run-scoped data handed to every module.
type FixContext struct {
	ProjectRoot string
	Truthpack   *Truthpack
	Files       FileReader
}

// Truthpack is a snapshot of project facts produced before the run. Modules
// consult it so they never invent information that already exists.
type Truthpack struct {
	Routes []RouteFact `json:"routes,omitempty" yaml:"routes,omitempty"`
	Env    []EnvFact   `json:"env,omitempty"    yaml:"env,omitempty"`
	Auth   AuthFacts   `json:"auth"             yaml:"auth"`
}

// RouteFact is a known server route.
type RouteFact struct {
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
	Path   string `json:"path"             yaml:"path"`
	File   string `json:"file,omitempty"   yaml:"file,omitempty"`
}

// EnvFact is a known environment variable.
type EnvFact struct {
	Name        string `json:"name"                  yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty"    yaml:"category,omitempty"`
	Sensitive   bool   `json:"sensitive,omitempty"   yaml:"sensitive,omitempty"`
	Example     string `json:"example,omitempty"     yaml:"example,omitempty"`
}

// AuthFacts describes how the project authenticates requests.
type AuthFacts struct {
	Providers        []string `json:"providers,omitempty"         yaml:"providers,omitempty"`
	Middleware       string   `json:"middleware,omitempty"        yaml:"middleware,omitempty"`
	MiddlewareImport string   `json:"middleware_import,omitempty" yaml:"middleware_import,omitempty"`
	GuardFunction    string   `json:"guard_function,omitempty"    yaml:"guard_function,omitempty"`
	GuardImport      string   `json:"guard_import,omitempty"      yaml:"guard_import,omitempty"`
}

// EnvVar looks up a variable by exact name.
func (t *Truthpack) EnvVar(name string) (EnvFact, bool) {
	if t == nil {
		return EnvFact{}, false
	}
	for _, e := range t.Env {
		if e.Name == name {
			return e, true
		}
	}
	return EnvFact{}, false
}

// HasProvider reports whether the named auth provider is in use.
func (t *Truthpack) HasProvider(name string) bool {
	if t == nil {
		return false
	}
	for _, p := range t.Auth.Providers {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// KnownRoutes returns the route facts, or nil for a missing truthpack.
func (t *Truthpack) KnownRoutes() []RouteFact {
	if t == nil {
		return nil
	}
	return t.Routes
}
