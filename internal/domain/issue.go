package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// IssueType is the closed set of finding kinds the engine knows how to route.
type IssueType string

const (
	IssueSilentFailure IssueType = "silent-failure"
	IssueFakeSuccess   IssueType = "fake-success"
	IssueAuthGap       IssueType = "auth-gap"
	IssueGhostEnv      IssueType = "ghost-env"
	IssueGhostRoute    IssueType = "ghost-route"
	IssueGhostImport   IssueType = "ghost-import"
	IssueGhostType     IssueType = "ghost-type"
	IssueGhostFile     IssueType = "ghost-file"
)

// ValidIssueTypes enumerates all recognized issue types.
var ValidIssueTypes = []IssueType{
	IssueSilentFailure,
	IssueFakeSuccess,
	IssueAuthGap,
	IssueGhostEnv,
	IssueGhostRoute,
	IssueGhostImport,
	IssueGhostType,
	IssueGhostFile,
}

// Valid reports whether t is one of ValidIssueTypes.
func (t IssueType) Valid() bool {
	for _, v := range ValidIssueTypes {
		if t == v {
			return true
		}
	}
	return false
}

const (
	SeverityCritical = "critical"
	SeverityError    = "error"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Issue is a finding produced by an external scanner. The engine trusts Type
// and Severity; Message, Suggestion and Metadata are display/hint text only.
type Issue struct {
	ID         string            `json:"id"                   yaml:"id"`
	Type       IssueType         `json:"type"                 yaml:"type"`
	Severity   string            `json:"severity"             yaml:"severity"`
	FilePath   string            `json:"file_path,omitempty"  yaml:"file_path,omitempty"`
	Line       int               `json:"line,omitempty"       yaml:"line,omitempty"`
	Message    string            `json:"message"              yaml:"message"`
	Suggestion string            `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"   yaml:"metadata,omitempty"`
}

// Meta returns the first non-empty metadata value among keys.
func (i Issue) Meta(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(i.Metadata[k]); v != "" {
			return v
		}
	}
	return ""
}

// Label is a short human identifier used in logs and reports.
func (i Issue) Label() string {
	switch {
	case i.FilePath != "" && i.Line > 0:
		return fmt.Sprintf("%s (%s:%d)", i.Type, i.FilePath, i.Line)
	case i.FilePath != "":
		return fmt.Sprintf("%s (%s)", i.Type, i.FilePath)
	default:
		return string(i.Type)
	}
}

var envTokenPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+\b|\b[A-Z]{3,}[0-9]*\b`)

// EnvVarName extracts the variable an env issue refers to: metadata first,
// then the first UPPER_SNAKE token in the message.
func (i Issue) EnvVarName() string {
	if name := i.Meta("name", "variable", "envVar", "env_var"); name != "" {
		return name
	}
	return envTokenPattern.FindString(i.Message)
}
