package jsparser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/abdidvp/patchgate/internal/domain"
)

var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true, "HEAD": true, "OPTIONS": true,
}

// RouteHandlers returns exported HTTP-method handlers followed by router
// registrations.
func (p *Parser) RouteHandlers(ctx context.Context, path, content string) ([]domain.RouteHandler, error) {
	f, err := p.parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	defer f.close()

	var handlers []domain.RouteHandler
	for _, n := range statements(f.root) {
		if n.Type() != "export_statement" {
			continue
		}
		if h, ok := f.exportHandler(n); ok {
			handlers = append(handlers, h)
		}
	}

	walk(f.root, func(n *sitter.Node) bool {
		if n.Type() == "call_expression" {
			if h, ok := f.registration(n); ok {
				handlers = append(handlers, h)
			}
		}
		return true
	})
	return handlers, nil
}

// exportHandler matches `export async function POST(req) {}` and
// `export const GET = async () => {}`.
func (f *parsed) exportHandler(export *sitter.Node) (domain.RouteHandler, bool) {
	decl := export.ChildByFieldName("declaration")
	if decl == nil {
		return domain.RouteHandler{}, false
	}

	var name string
	var fn *sitter.Node
	switch decl.Type() {
	case "function_declaration", "function":
		if id := decl.ChildByFieldName("name"); id != nil {
			name, fn = f.text(id), decl
		}
	case "lexical_declaration", "variable_declaration":
		for _, d := range statements(decl) {
			id := d.ChildByFieldName("name")
			value := d.ChildByFieldName("value")
			if id != nil && value != nil && isFunction(value) {
				name, fn = f.text(id), value
				break
			}
		}
	}
	if fn == nil || !httpMethods[name] {
		return domain.RouteHandler{}, false
	}
	body := fn.ChildByFieldName("body")
	if body == nil || body.Type() != "statement_block" {
		return domain.RouteHandler{}, false
	}

	h := domain.RouteHandler{
		Kind:   domain.HandlerExport,
		Method: name,
		Line:   int(export.StartPoint().Row) + 1,
		Async:  hasAsync(fn),
		Body:   f.span(body),
		Params: f.paramNames(fn),
	}
	if stmts := statements(body); len(stmts) > 0 {
		h.FirstStatement = f.span(stmts[0])
	}
	walk(body, func(n *sitter.Node) bool {
		if isFunction(n) {
			return false
		}
		if n.Type() == "call_expression" {
			h.Calls = append(h.Calls, f.callee(n))
		}
		return true
	})
	return h, true
}

func (f *parsed) paramNames(fn *sitter.Node) []string {
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []string{f.text(single)}
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		name, ok := f.paramName(params.NamedChild(i))
		if !ok {
			name = ""
		}
		names = append(names, name)
	}
	return names
}

// registration matches `router.post('/x', ..., handler)`.
func (f *parsed) registration(call *sitter.Node) (domain.RouteHandler, bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return domain.RouteHandler{}, false
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil || !isRouterObject(f.text(obj)) {
		return domain.RouteHandler{}, false
	}
	method := strings.ToUpper(f.text(prop))
	if !httpMethods[method] && method != "ALL" {
		return domain.RouteHandler{}, false
	}

	list := statements(call.ChildByFieldName("arguments"))
	if len(list) < 2 {
		return domain.RouteHandler{}, false
	}
	route, _, ok := f.stringValue(list[0])
	if !ok || !strings.HasPrefix(route, "/") {
		return domain.RouteHandler{}, false
	}

	h := domain.RouteHandler{
		Kind:         domain.HandlerRegistration,
		Method:       method,
		Route:        route,
		Line:         int(call.StartPoint().Row) + 1,
		FinalHandler: f.span(list[len(list)-1]),
	}
	for _, mw := range list[1 : len(list)-1] {
		h.Middlewares = append(h.Middlewares, f.text(mw))
	}
	return h, true
}

func isRouterObject(name string) bool {
	lower := strings.ToLower(name)
	switch lower {
	case "server", "fastify", "r", "routes":
		return true
	}
	return strings.HasSuffix(lower, "router") || strings.HasSuffix(lower, "app")
}

// StringLiterals returns every plain string literal in the file.
func (p *Parser) StringLiterals(ctx context.Context, path, content string) ([]domain.StringLiteral, error) {
	f, err := p.parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	defer f.close()

	var out []domain.StringLiteral
	walk(f.root, func(n *sitter.Node) bool {
		if value, quote, ok := f.stringValue(n); ok {
			out = append(out, domain.StringLiteral{Value: value, Quote: quote, Span: f.span(n)})
			return false
		}
		return true
	})
	return out, nil
}
