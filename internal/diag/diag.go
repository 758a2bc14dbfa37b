package diag

import (
	"fmt"
	"strings"

	"github.com/rillshell/rill/internal/span"
)

// Kind is the closed taxonomy of failures the engine can report. Every
// fallible operation returns the most specific kind it can, anchored to at
// least one span.
type Kind int

const (
	VariableNotFound Kind = iota
	CommandNotFound
	EnvVarNotFound
	NotFound // hide/lookup over all namespaces came up empty
	CantFindColumn
	NotAList
	IncompatiblePathAccess
	AccessBeyondEnd
	DuplicateDeclaration
	ImportSymbolMissing
	TypeMismatch
	OperatorMismatch
	UnsupportedInput
	DivisionByZero
	InvalidRange
	CantConvert
	IOError
	UnsupportedConfigValue
	EngineFailed
)

// Label attaches a message to a source location, the way an error renderer
// wants to display it.
type Label struct {
	Text string
	Span span.Span
}

// Error is the engine's diagnostic. It satisfies the error interface so it
// can flow through ordinary Go error returns, and it can also be wrapped
// into an Error value so pipelines carry per-element failures without
// aborting.
type Error struct {
	Kind   Kind
	Msg    string
	Labels []Label
}

func (e *Error) Error() string {
	if len(e.Labels) == 0 {
		return e.Msg
	}
	parts := make([]string, 0, len(e.Labels))
	for _, l := range e.Labels {
		if l.Text != "" {
			parts = append(parts, l.Text)
		}
	}
	if len(parts) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(parts, "; ")
}

// Span returns the minimal span covering every label.
func (e *Error) Span() span.Span {
	spans := make([]span.Span, 0, len(e.Labels))
	for _, l := range e.Labels {
		spans = append(spans, l.Span)
	}
	return span.Union(spans)
}

func newError(kind Kind, msg string, labels ...Label) *Error {
	return &Error{Kind: kind, Msg: msg, Labels: labels}
}

func NewVariableNotFound(sp span.Span) *Error {
	return newError(VariableNotFound, "Variable not found", Label{Text: "variable not found", Span: sp})
}

func NewCommandNotFound(sp span.Span) *Error {
	return newError(CommandNotFound, "Command not found", Label{Text: "command not found", Span: sp})
}

func NewEnvVarNotFound(name string, sp span.Span, candidates []string) *Error {
	e := newError(EnvVarNotFound, "Environment variable not found",
		Label{Text: "environment variable not found", Span: sp})
	if s, ok := DidYouMean(candidates, name); ok {
		e.Labels = append(e.Labels, Label{Text: fmt.Sprintf("did you mean '%s'?", s), Span: sp})
	}
	return e
}

// NewNotFound is the generic lookup failure used by hide: nothing under this
// name was visible in any namespace.
func NewNotFound(sp span.Span) *Error {
	return newError(NotFound, "Not found", Label{Text: "did not find anything under this name", Span: sp})
}

func NewCantFindColumn(attempted string, columns []string, pathSpan, originSpan span.Span) *Error {
	e := newError(CantFindColumn, "Cannot find column",
		Label{Text: "cannot find column", Span: pathSpan},
		Label{Text: "value originates here", Span: originSpan})
	if s, ok := DidYouMean(columns, attempted); ok {
		e.Labels[0].Text = fmt.Sprintf("did you mean '%s'?", s)
	}
	return e
}

func NewNotAList(pathSpan, originSpan span.Span) *Error {
	return newError(NotAList, "Not a list value",
		Label{Text: "value not a list", Span: pathSpan},
		Label{Text: "value originates here", Span: originSpan})
}

func NewIncompatiblePathAccess(typeName string, sp span.Span) *Error {
	return newError(IncompatiblePathAccess, "Data cannot be accessed with a cell path",
		Label{Text: fmt.Sprintf("%s doesn't support cell paths", typeName), Span: sp})
}

func NewAccessBeyondEnd(maxIdx int, sp span.Span) *Error {
	return newError(AccessBeyondEnd, fmt.Sprintf("Row number too large (max: %d)", maxIdx),
		Label{Text: "too large", Span: sp})
}

func NewDuplicateDeclaration(name string, sp span.Span) *Error {
	return newError(DuplicateDeclaration, fmt.Sprintf("'%s' is defined more than once", name),
		Label{Text: "defined more than once", Span: sp})
}

func NewImportSymbolMissing(name string, sp span.Span) *Error {
	return newError(ImportSymbolMissing, fmt.Sprintf("could not find import '%s'", name),
		Label{Text: "could not find import", Span: sp})
}

func NewTypeMismatch(expected string, sp span.Span) *Error {
	return newError(TypeMismatch, "Type mismatch", Label{Text: expected, Span: sp})
}

func NewOperatorMismatch(op string, lhsType string, lhsSpan span.Span, rhsType string, rhsSpan span.Span) *Error {
	return newError(OperatorMismatch, "Type mismatched for operation",
		Label{Text: fmt.Sprintf("type mismatch for operator %s", op), Span: span.Union([]span.Span{lhsSpan, rhsSpan})},
		Label{Text: lhsType, Span: lhsSpan},
		Label{Text: rhsType, Span: rhsSpan})
}

func NewUnsupportedInput(expected string, sp span.Span) *Error {
	return newError(UnsupportedInput, "Unsupported input", Label{Text: expected, Span: sp})
}

func NewDivisionByZero(sp span.Span) *Error {
	return newError(DivisionByZero, "Division by zero", Label{Text: "division by zero", Span: sp})
}

func NewInvalidRange(from, to string, sp span.Span) *Error {
	return newError(InvalidRange, fmt.Sprintf("Invalid range %s..%s", from, to),
		Label{Text: "expected a valid range", Span: sp})
}

func NewCantConvert(to, from string, sp span.Span) *Error {
	return newError(CantConvert, fmt.Sprintf("Can't convert to %s", to),
		Label{Text: fmt.Sprintf("can't convert %s to %s", from, to), Span: sp})
}

// NewIOError wraps a collaborator-reported failure without reinterpreting it.
func NewIOError(err error) *Error {
	return newError(IOError, "I/O error: "+err.Error())
}

func NewUnsupportedConfigValue(expected, got string, sp span.Span) *Error {
	return newError(UnsupportedConfigValue, "Unsupported config value",
		Label{Text: fmt.Sprintf("expected %s, got %s", expected, got), Span: sp})
}

// NewEngineFailed flags an internal invariant violation. Reaching this from
// user input is a defect in the engine, not in the script.
func NewEngineFailed(msg string) *Error {
	return newError(EngineFailed, "Engine failed: "+msg)
}
