package jsparser

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/abdidvp/patchgate/internal/domain"
)

// failureWords mark a call that surfaces an error to the user or a handler.
var failureWords = []string{"error", "handle", "notify", "show", "report"}

var consoleMethods = map[string]bool{
	"log": true, "error": true, "warn": true, "info": true, "debug": true, "trace": true,
}

// SilentFailures finds every silent-failure shape in the file, ordered by
// start line.
func (p *Parser) SilentFailures(ctx context.Context, path, content string) ([]domain.PatternMatch, error) {
	f, err := p.parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	defer f.close()

	var matches []domain.PatternMatch
	walk(f.root, func(n *sitter.Node) bool {
		if n.Type() == "ERROR" {
			return false
		}
		switch n.Type() {
		case "catch_clause":
			if m, ok := f.catchPattern(n); ok {
				matches = append(matches, m)
			}
		case "try_statement":
			if m, ok := f.successAfterTry(n); ok {
				matches = append(matches, m)
			}
		case "call_expression":
			if m, ok := f.emptyRejection(n); ok {
				matches = append(matches, m)
			}
		}
		return true
	})

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].StartLine < matches[j].StartLine })
	return matches, nil
}

func (f *parsed) catchPattern(clause *sitter.Node) (domain.PatternMatch, bool) {
	body := clause.ChildByFieldName("body")
	if body == nil || body.HasError() {
		return domain.PatternMatch{}, false
	}

	stmts := statements(body)
	kind := domain.PatternEmptyCatch
	if len(stmts) > 0 {
		if !f.logOnly(stmts) {
			return domain.PatternMatch{}, false
		}
		kind = domain.PatternLogOnlyCatch
	}

	m := f.match(kind, clause, body)
	param := clause.ChildByFieldName("parameter")
	header := m.Header
	if param != nil {
		open := strings.Index(header, "(")
		closing := strings.LastIndex(header, ")")
		if open >= 0 && closing > open {
			m.ParamsStart, m.ParamsEnd = open, closing+1
		}
		if param.Type() == "identifier" {
			m.Param = f.text(param)
		} else {
			m.Destructured = true
		}
	}
	for _, s := range stmts {
		m.Statements = append(m.Statements, f.span(s))
	}
	return m, true
}

// logOnly reports whether every statement is a console call and nothing in
// the block throws, returns, branches, assigns or reports the failure.
func (f *parsed) logOnly(stmts []*sitter.Node) bool {
	for _, s := range stmts {
		call := unwrapCall(s)
		if call == nil || !f.isConsoleCall(call) {
			return false
		}
	}
	handled := false
	for _, s := range stmts {
		walk(s, func(n *sitter.Node) bool {
			if handled || isFunction(n) {
				return false
			}
			switch n.Type() {
			case "throw_statement", "return_statement", "if_statement", "ternary_expression",
				"switch_statement", "assignment_expression", "augmented_assignment_expression":
				handled = true
			case "call_expression":
				if !f.isConsoleCall(n) && hasWord(calleeWords(f.callee(n)), failureWords...) {
					handled = true
				}
			}
			return !handled
		})
	}
	return !handled
}

func (f *parsed) isConsoleCall(call *sitter.Node) bool {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return false
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	return obj != nil && prop != nil && f.text(obj) == "console" && consoleMethods[f.text(prop)]
}

// successAfterTry matches a try statement followed by a success call while
// its catch neither throws nor returns.
func (f *parsed) successAfterTry(try *sitter.Node) (domain.PatternMatch, bool) {
	handler := try.ChildByFieldName("handler")
	if handler == nil {
		return domain.PatternMatch{}, false
	}
	call := unwrapCall(nextStatement(try))
	if call == nil {
		return domain.PatternMatch{}, false
	}
	name := f.callee(call)
	if !strings.Contains(strings.ToLower(name), "success") {
		return domain.PatternMatch{}, false
	}

	escapes := false
	walk(handler.ChildByFieldName("body"), func(n *sitter.Node) bool {
		if escapes || isFunction(n) {
			return false
		}
		if t := n.Type(); t == "throw_statement" || t == "return_statement" {
			escapes = true
		}
		return !escapes
	})
	if escapes {
		return domain.PatternMatch{}, false
	}

	m := f.match(domain.PatternSuccessAfterTry, try, try.ChildByFieldName("body"))
	m.Header = ""
	m.EndLine = int(call.EndPoint().Row) + 1
	m.Callee = name
	return m, true
}

// emptyRejection matches `.catch(handler)` whose handler body is an empty block.
func (f *parsed) emptyRejection(call *sitter.Node) (domain.PatternMatch, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return domain.PatternMatch{}, false
	}
	prop := fn.ChildByFieldName("property")
	if prop == nil || f.text(prop) != "catch" {
		return domain.PatternMatch{}, false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return domain.PatternMatch{}, false
	}
	handler := args.NamedChild(0)
	switch handler.Type() {
	case "arrow_function", "function", "function_expression":
	default:
		return domain.PatternMatch{}, false
	}
	body := handler.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" || len(statements(body)) > 0 {
		return domain.PatternMatch{}, false
	}

	m := f.match(domain.PatternEmptyRejection, handler, body)
	base := handler.StartByte()
	if single := handler.ChildByFieldName("parameter"); single != nil {
		m.ParamsStart = int(single.StartByte() - base)
		m.ParamsEnd = int(single.EndByte() - base)
		m.Param = f.text(single)
		return m, true
	}
	params := handler.ChildByFieldName("parameters")
	if params == nil {
		return m, true
	}
	m.ParamsStart = int(params.StartByte() - base)
	m.ParamsEnd = int(params.EndByte() - base)
	if params.NamedChildCount() > 0 {
		name, ok := f.paramName(params.NamedChild(0))
		m.Param = name
		m.Destructured = !ok
	}
	return m, true
}

// paramName returns the identifier a formal parameter binds.
func (f *parsed) paramName(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "identifier":
		return f.text(n), true
	case "required_parameter", "optional_parameter":
		if pat := n.ChildByFieldName("pattern"); pat != nil && pat.Type() == "identifier" {
			return f.text(pat), true
		}
	}
	return "", false
}

func (f *parsed) match(kind domain.PatternType, region, body *sitter.Node) domain.PatternMatch {
	m := domain.PatternMatch{
		Type:        kind,
		StartLine:   int(region.StartPoint().Row) + 1,
		EndLine:     int(region.EndPoint().Row) + 1,
		Source:      f.text(region),
		Region:      f.span(region),
		ParamsStart: -1,
		ParamsEnd:   -1,
	}
	if body != nil {
		m.Body = f.span(body)
		m.Header = string(f.src[region.StartByte():body.StartByte()])
	}
	return m
}
