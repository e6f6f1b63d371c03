package validator

import (
	"path"
	"regexp"
	"strings"
)

type contentRule struct {
	name    string
	pattern *regexp.Regexp
}

// dangerousRules flag operations no remediation should introduce.
var dangerousRules = []contentRule{
	{"dynamic code evaluation", regexp.MustCompile(`\beval\s*\(`)},
	{"dynamic code evaluation", regexp.MustCompile(`\bnew\s+Function\s*\(`)},
	{"process spawning", regexp.MustCompile(`\bchild_process\b|\b(?:execSync|execFile|execFileSync|spawn|spawnSync|fork)\s*\(|(?:^|[^.\w$])exec\s*\(`)},
	{"file deletion", regexp.MustCompile(`\b(?:unlink|unlinkSync|rmdir|rmdirSync|rmSync)\s*\(|\bfs\.rm\s*\(|\brimraf\b|\brm\s+-[rf]+\b`)},
	{"process environment write", regexp.MustCompile(`\bprocess\.env(?:\.[\w$]+|\[[^\]]+\])\s*(?:=[^=]|\+=)|\bdelete\s+process\.env\b|\bObject\.assign\(\s*process\.env\b`)},
}

// secretRules match credential-shaped text.
var secretRules = []contentRule{
	{"hardcoded credential", regexp.MustCompile(`(?i)(?:key|secret|password|passwd|token)[\w-]*["']?\s*[:=]\s*["'][^"'\s]{15,}["']`)},
	{"private key", regexp.MustCompile(`-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----`)},
	{"bearer token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{20,}=*`)},
}

// placeholderRules match markers of an unfinished fix.
var placeholderRules = []contentRule{
	{"YOUR_ placeholder", regexp.MustCompile(`\bYOUR_[A-Z0-9_]+`)},
	{"REPLACE_ placeholder", regexp.MustCompile(`\bREPLACE_[A-Z0-9_]+`)},
	{"INSERT placeholder", regexp.MustCompile(`<INSERT_[A-Z0-9_]*>`)},
}

var lockfiles = map[string]bool{
	"package-lock.json":   true,
	"npm-shrinkwrap.json": true,
	"yarn.lock":           true,
	"pnpm-lock.yaml":      true,
	"bun.lockb":           true,
	"bun.lock":            true,
	"composer.lock":       true,
	"Gemfile.lock":        true,
	"Cargo.lock":          true,
	"poetry.lock":         true,
	"Pipfile.lock":        true,
	"go.sum":              true,
}

// exampleEnvSuffixes mark .env variants that hold documentation, not values.
var exampleEnvSuffixes = []string{".example", ".sample", ".template"}

// Protected reports whether a path may never be patched, and why. It is
// independent of any policy.
func Protected(p string) (string, bool) {
	clean := strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
	base := path.Base(clean)

	for _, seg := range strings.Split(clean, "/") {
		switch seg {
		case ".git":
			return "inside .git/", true
		case "node_modules":
			return "inside node_modules/", true
		}
	}

	if isEnvFile(base) {
		return "environment file", true
	}
	if lockfiles[base] {
		return "lockfile", true
	}
	switch path.Ext(base) {
	case ".pem", ".key":
		return "key material", true
	}

	lower := strings.ToLower(clean)
	if strings.Contains(lower, "credentials") || strings.Contains(lower, "secrets") {
		return "credential store", true
	}
	return "", false
}

func isEnvFile(base string) bool {
	if base != ".env" && !strings.HasPrefix(base, ".env.") {
		return false
	}
	for _, s := range exampleEnvSuffixes {
		if strings.HasSuffix(base, s) {
			return false
		}
	}
	return true
}

func scan(rules []contentRule, text string) []contentHit {
	var hits []contentHit
	lines := strings.Split(text, "\n")
	for _, r := range rules {
		for i, l := range lines {
			if r.pattern.MatchString(l) {
				hits = append(hits, contentHit{rule: r.name, line: i + 1})
				break
			}
		}
	}
	return hits
}

type contentHit struct {
	rule string
	line int
}
