package jsparser

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/abdidvp/patchgate/internal/domain"
)

// Imports reports the last top-level import line and the bound names. A
// top-level `require` declaration counts as an import.
func (p *Parser) Imports(ctx context.Context, path, content string) (domain.ImportInfo, error) {
	f, err := p.parse(ctx, path, content)
	if err != nil {
		return domain.ImportInfo{}, err
	}
	defer f.close()

	var info domain.ImportInfo
	for _, n := range statements(f.root) {
		switch n.Type() {
		case "import_statement":
			info.LastLine = int(n.EndPoint().Row) + 1
			walk(n, func(c *sitter.Node) bool {
				if c.Type() == "identifier" {
					info.Names = append(info.Names, f.text(c))
				}
				return c.Type() != "string"
			})
		case "lexical_declaration", "variable_declaration":
			names := f.requireNames(n)
			if len(names) > 0 {
				info.LastLine = int(n.EndPoint().Row) + 1
				info.Names = append(info.Names, names...)
			}
		}
	}
	return info, nil
}

func (f *parsed) requireNames(decl *sitter.Node) []string {
	var names []string
	for _, d := range statements(decl) {
		if d.Type() != "variable_declarator" {
			continue
		}
		value := d.ChildByFieldName("value")
		if value == nil || value.Type() != "call_expression" || f.callee(value) != "require" {
			continue
		}
		walk(d.ChildByFieldName("name"), func(c *sitter.Node) bool {
			if c.Type() == "identifier" || c.Type() == "shorthand_property_identifier_pattern" {
				names = append(names, f.text(c))
			}
			return true
		})
	}
	return names
}

// guardWords mark validation calls: assert(...), invariant(...), requireEnv(...).
var guardWords = []string{"assert", "invariant", "validat", "require", "ensure", "must", "check"}

// schemaRoots are validation libraries whose schemas name variables as keys.
var schemaRoots = map[string]bool{"z": true, "zod": true, "joi": true, "Joi": true, "yup": true, "envalid": true}

// HasEnvGuard reports whether the file already fails fast on a missing
// name: a negated check of the variable, or a validation call whose
// arguments mention it.
func (p *Parser) HasEnvGuard(ctx context.Context, path, content, name string) (bool, error) {
	f, err := p.parse(ctx, path, content)
	if err != nil {
		return false, err
	}
	defer f.close()

	mention := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	guarded := false
	walk(f.root, func(n *sitter.Node) bool {
		if guarded {
			return false
		}
		switch n.Type() {
		case "unary_expression":
			op := n.ChildByFieldName("operator")
			arg := n.ChildByFieldName("argument")
			if op != nil && arg != nil && f.text(op) == "!" && isEnvAccess(stripParens(f.text(arg)), name) {
				guarded = true
			}
		case "binary_expression":
			guarded = f.comparesMissing(n, name)
		case "call_expression":
			guarded = f.isValidationCall(n, mention)
		}
		return !guarded
	})
	return guarded, nil
}

// comparesMissing matches `process.env.NAME === undefined` and friends.
func (f *parsed) comparesMissing(n *sitter.Node, name string) bool {
	op := n.ChildByFieldName("operator")
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if op == nil || left == nil || right == nil {
		return false
	}
	switch f.text(op) {
	case "===", "==":
	default:
		return false
	}
	l, r := stripParens(f.text(left)), stripParens(f.text(right))
	if isEnvAccess(r, name) {
		l, r = r, l
	}
	if !isEnvAccess(l, name) {
		return false
	}
	switch r {
	case "undefined", "null", "''", `""`, "``":
		return true
	}
	return false
}

func (f *parsed) isValidationCall(call *sitter.Node, mention *regexp.Regexp) bool {
	args := call.ChildByFieldName("arguments")
	if args == nil || !mention.MatchString(f.text(args)) {
		return false
	}
	name := f.callee(call)
	root := name
	if i := strings.IndexAny(root, ".?("); i >= 0 {
		root = root[:i]
	}
	if schemaRoots[root] {
		return true
	}
	words := calleeWords(name)
	if hasWord(words, guardWords...) {
		return true
	}
	// cleanEnv(...), createEnv(...), loadEnv(...)
	return hasWord(words, "env") && hasWord(words, "clean", "create", "load", "parse")
}

func isEnvAccess(expr, name string) bool {
	expr = strings.ReplaceAll(expr, "?.", ".")
	for _, prefix := range []string{"process.env", "import.meta.env"} {
		switch expr {
		case prefix + "." + name, prefix + "['" + name + "']", prefix + `["` + name + `"]`:
			return true
		}
	}
	return false
}

func stripParens(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
