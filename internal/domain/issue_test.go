package domain_test

import (
	"testing"

	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIssueType_Valid(t *testing.T) {
	for _, it := range domain.ValidIssueTypes {
		assert.True(t, it.Valid(), it)
	}
	assert.False(t, domain.IssueType("ghost-feature").Valid())
	assert.False(t, domain.IssueType("").Valid())
}

func TestIssue_Meta(t *testing.T) {
	i := domain.Issue{Metadata: map[string]string{"path": "  ", "route": "/api/x"}}
	assert.Equal(t, "/api/x", i.Meta("path", "route"))
	assert.Empty(t, i.Meta("method"))
	assert.Empty(t, domain.Issue{}.Meta("route"))
}

func TestIssue_Label(t *testing.T) {
	assert.Equal(t, "auth-gap (a.ts:3)", domain.Issue{Type: domain.IssueAuthGap, FilePath: "a.ts", Line: 3}.Label())
	assert.Equal(t, "auth-gap (a.ts)", domain.Issue{Type: domain.IssueAuthGap, FilePath: "a.ts"}.Label())
	assert.Equal(t, "ghost-env", domain.Issue{Type: domain.IssueGhostEnv}.Label())
}

func TestIssue_EnvVarName(t *testing.T) {
	tests := []struct {
		issue domain.Issue
		want  string
	}{
		{domain.Issue{Metadata: map[string]string{"name": "DATABASE_URL"}, Message: "REDIS_URL"}, "DATABASE_URL"},
		{domain.Issue{Metadata: map[string]string{"envVar": "SENTRY_DSN"}}, "SENTRY_DSN"},
		{domain.Issue{Message: "process.env.STRIPE_SECRET_KEY is read but never declared"}, "STRIPE_SECRET_KEY"},
		{domain.Issue{Message: "PORT is not documented"}, "PORT"},
		{domain.Issue{Message: "nothing here"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.issue.EnvVarName(), tt.issue.Message)
	}
}
