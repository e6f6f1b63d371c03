// Package jsparser implements domain.SourceAnalyzer for JavaScript and
// TypeScript using tree-sitter grammars.
package jsparser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/camelcase"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/abdidvp/patchgate/internal/domain"
)

// Parser implements domain.SourceAnalyzer. A tree-sitter parser is not safe
// for concurrent use, so one is created per call.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func language(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return nil
	}
}

// Supports reports whether path has a parseable script extension.
func (p *Parser) Supports(path string) bool {
	return language(path) != nil
}

type parsed struct {
	tree *sitter.Tree
	root *sitter.Node
	src  []byte
}

func (p *Parser) parse(ctx context.Context, path, content string) (*parsed, error) {
	lang := language(path)
	if lang == nil {
		return nil, fmt.Errorf("unsupported source file %s", path)
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	src := []byte(content)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &parsed{tree: tree, root: tree.RootNode(), src: src}, nil
}

func (f *parsed) close() { f.tree.Close() }

func (f *parsed) text(n *sitter.Node) string {
	return n.Content(f.src)
}

func (f *parsed) span(n *sitter.Node) domain.Span {
	return domain.Span{Start: position(n.StartPoint()), End: position(n.EndPoint()), Text: f.text(n)}
}

func position(p sitter.Point) domain.Position {
	return domain.Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

// walk visits n and its descendants depth-first. visit returning false
// skips the node's children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// statements returns the named children of a block, comments excluded.
func statements(block *sitter.Node) []*sitter.Node {
	if block == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		c := block.NamedChild(i)
		if c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// nextStatement returns the next non-comment sibling of n.
func nextStatement(n *sitter.Node) *sitter.Node {
	for s := n.NextNamedSibling(); s != nil; s = s.NextNamedSibling() {
		if s.Type() != "comment" {
			return s
		}
	}
	return nil
}

func isFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function", "function_expression", "function_declaration",
		"generator_function", "generator_function_declaration", "method_definition":
		return true
	}
	return false
}

// hasAsync reports whether a function node carries the async keyword.
func hasAsync(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "async" {
			return true
		}
		if c.IsNamed() {
			return false
		}
	}
	return false
}

// unwrapCall returns the call_expression of an expression statement,
// looking through await.
func unwrapCall(stmt *sitter.Node) *sitter.Node {
	if stmt == nil || stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
		return nil
	}
	expr := stmt.NamedChild(0)
	if expr.Type() == "await_expression" && expr.NamedChildCount() > 0 {
		expr = expr.NamedChild(0)
	}
	if expr.Type() != "call_expression" {
		return nil
	}
	return expr
}

// callee returns the callee text of a call, e.g. "console.error".
func (f *parsed) callee(call *sitter.Node) string {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return f.text(fn)
}

// calleeWords splits a callee path into lowercase words:
// "toast.showError" -> [toast show error].
func calleeWords(name string) []string {
	var words []string
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '.' || r == '_' || r == '?' || r == '$'
	}) {
		for _, w := range camelcase.Split(part) {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				words = append(words, w)
			}
		}
	}
	return words
}

// hasWord reports whether any word starts with one of prefixes.
func hasWord(words []string, prefixes ...string) bool {
	for _, w := range words {
		for _, p := range prefixes {
			if strings.HasPrefix(w, p) {
				return true
			}
		}
	}
	return false
}

// stringValue returns the unquoted value of a string or plain template
// literal, and its quote character.
func (f *parsed) stringValue(n *sitter.Node) (value, quote string, ok bool) {
	switch n.Type() {
	case "string":
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", "", false
			}
		}
	default:
		return "", "", false
	}
	raw := f.text(n)
	if len(raw) < 2 {
		return "", "", false
	}
	return raw[1 : len(raw)-1], raw[:1], true
}
