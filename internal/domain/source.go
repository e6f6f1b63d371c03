package domain

// Position is a location in source text: 1-based line, 0-based byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

// Span is a half-open source range.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
	Text  string   `json:"text,omitempty"`
}

// PatternType names a structural silent-failure shape.
type PatternType string

const (
	PatternEmptyCatch      PatternType = "empty-catch"
	PatternLogOnlyCatch    PatternType = "log-only-catch"
	PatternSuccessAfterTry PatternType = "success-after-try"
	PatternEmptyRejection  PatternType = "empty-rejection-handler"
)

// PatternMatch is one detected silent-failure shape with the anchors the
// synthesizer needs to rewrite it.
type PatternMatch struct {
	Type      PatternType `json:"type"`
	StartLine int         `json:"start_line"`
	EndLine   int         `json:"end_line"`
	Source    string      `json:"source"`

	// Region is the text to rewrite: a catch clause, or a rejection handler.
	// For success-after-try it is the try statement.
	Region Span `json:"region"`
	// Header is the verbatim text from Region.Start up to the body's "{".
	Header string `json:"header,omitempty"`
	// ParamsStart/ParamsEnd locate the handler's parameter list inside Header
	// (-1 when the construct has none, as in `catch {`).
	ParamsStart int `json:"params_start"`
	ParamsEnd   int `json:"params_end"`
	// Param is the bound identifier, empty when unbound or destructured.
	Param string `json:"param,omitempty"`
	// Destructured is set when the binding is a pattern that cannot be re-thrown.
	Destructured bool `json:"destructured,omitempty"`
	// Statements are the body statements of a catch block.
	Statements []Span `json:"statements,omitempty"`
	// Body is the "{ ... }" block of the handler.
	Body Span `json:"body"`
	// Callee is the success indicator call for success-after-try.
	Callee string `json:"callee,omitempty"`
}

// RouteHandlerKind distinguishes how a route handler is declared.
type RouteHandlerKind string

const (
	HandlerExport       RouteHandlerKind = "export"
	HandlerRegistration RouteHandlerKind = "registration"
)

// RouteHandler is a server-side request handler found in a file.
type RouteHandler struct {
	Kind   RouteHandlerKind `json:"kind"`
	Method string           `json:"method"`
	Route  string           `json:"route,omitempty"`
	Line   int              `json:"line"`
	// Params are the handler's parameter names (export handlers).
	Params []string `json:"params,omitempty"`
	// Async is set for async export handlers.
	Async bool `json:"async,omitempty"`
	// Body is the handler block for export handlers.
	Body Span `json:"body"`
	// FirstStatement is the first statement of Body, zero when empty.
	FirstStatement Span `json:"first_statement"`
	// Calls are the callee names invoked in the handler's top-level statements.
	Calls []string `json:"calls,omitempty"`
	// Middlewares are identifier arguments between the route and the final handler.
	Middlewares []string `json:"middlewares,omitempty"`
	// FinalHandler is the last argument of a registration call.
	FinalHandler Span `json:"final_handler"`
}

// StringLiteral is a quoted string in source.
type StringLiteral struct {
	Value string `json:"value"`
	Quote string `json:"quote"`
	Span  Span   `json:"span"`
}

// ImportInfo summarizes the module's import block.
type ImportInfo struct {
	// LastLine is the final line of the last top-level import, 0 when none.
	LastLine int `json:"last_line"`
	// Names are the locally bound identifiers of all imports.
	Names []string `json:"names,omitempty"`
}
