package errors

import (
	"errors"
	"fmt"
	"strings"

	xsderrors "github.com/jacoelho/xsd/errors"
)

// Kind classifies where in the load/validate pipeline a failure happened.
type Kind uint8

const (
	// KindSchemaParse indicates the schema source could not be read or is not well-formed XSD XML.
	KindSchemaParse Kind = iota + 1
	// KindSchemaCompile indicates a well-formed schema violates schema-for-schemas rules.
	KindSchemaCompile
	// KindDocumentParse indicates the XML document could not be read or is not well-formed.
	KindDocumentParse
	// KindValidation indicates a well-formed document violates the schema.
	KindValidation
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSchemaParse:
		return "schema-parse"
	case KindSchemaCompile:
		return "schema-compile"
	case KindDocumentParse:
		return "document-parse"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Code identifies a diagnostic produced by this package rather than by the engine.
type Code string

const (
	// CodeSchemaRead indicates the schema source could not be read.
	CodeSchemaRead Code = "xsd-schema-read"
	// CodeSchemaSyntax indicates the schema source is not well-formed XML.
	CodeSchemaSyntax Code = "xsd-schema-syntax"
	// CodeSchemaRoot indicates the schema root element is not xs:schema.
	CodeSchemaRoot Code = "xsd-schema-root"
	// CodeSchemaCompile indicates the engine rejected the schema without detail.
	CodeSchemaCompile Code = "xsd-schema-compile"
	// CodeSchemaNotLoaded indicates a check was attempted without a compiled schema.
	CodeSchemaNotLoaded Code = "xsd-schema-not-loaded"
	// CodeDocumentRead indicates the XML document could not be read.
	CodeDocumentRead Code = "xml-read-error"
	// CodeDocumentSyntax indicates the XML document is not well-formed.
	CodeDocumentSyntax Code = "xml-parse-error"
	// CodeDocumentTooLarge indicates the XML document exceeds the parser size limit.
	CodeDocumentTooLarge Code = "xml-too-large"
	// CodeDocumentMissing indicates a check was attempted without a parsed document.
	CodeDocumentMissing Code = "xml-document-missing"
	// CodeNotConforming indicates the engine rejected the document without detail.
	CodeNotConforming Code = "xsd-not-conforming"
)

var (
	// ErrSchemaParse matches any error of kind KindSchemaParse.
	ErrSchemaParse = &Error{Kind: KindSchemaParse}
	// ErrSchemaCompile matches any error of kind KindSchemaCompile.
	ErrSchemaCompile = &Error{Kind: KindSchemaCompile}
	// ErrDocumentParse matches any error of kind KindDocumentParse.
	ErrDocumentParse = &Error{Kind: KindDocumentParse}
	// ErrValidation matches any error of kind KindValidation.
	ErrValidation = &Error{Kind: KindValidation}
)

// Diagnostic describes one parse, compile or validation problem.
type Diagnostic struct {
	Code    string
	Message string
	Path    string
	Line    int
	Column  int
}

// Error formats the diagnostic for display, including code, message, and location.
func (d *Diagnostic) Error() string {
	if d == nil {
		return "diagnostic <nil>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", d.Code, d.Message))
	if d.Path != "" {
		b.WriteString(fmt.Sprintf(" at %s", d.Path))
	}
	if d.Line > 0 && d.Column > 0 {
		if d.Path == "" {
			b.WriteString(fmt.Sprintf(" at line %d, column %d", d.Line, d.Column))
		} else {
			b.WriteString(fmt.Sprintf(" (line %d, column %d)", d.Line, d.Column))
		}
	}
	return b.String()
}

// NewDiagnostic builds a Diagnostic with a code and message.
func NewDiagnostic(code Code, msg string) Diagnostic {
	return Diagnostic{Code: string(code), Message: msg}
}

// Error is the failure value returned by the load, parse and check steps.
// Source names the schema or document the failure refers to.
type Error struct {
	Err         error
	Source      string
	Diagnostics []Diagnostic
	Kind        Kind
}

// Error returns a compact summary: kind, source and the first diagnostic.
func (e *Error) Error() string {
	if e == nil {
		return "xsdgate error <nil>"
	}

	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	switch len(e.Diagnostics) {
	case 0:
		if e.Err != nil {
			b.WriteString(": ")
			b.WriteString(e.Err.Error())
		}
	case 1:
		b.WriteString(": ")
		b.WriteString(e.Diagnostics[0].Error())
	default:
		b.WriteString(fmt.Sprintf(": %s (and %d more)", e.Diagnostics[0].Error(), len(e.Diagnostics)-1))
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an Error of the given kind wrapping cause.
// When cause carries engine validation records they become the diagnostics,
// otherwise a single diagnostic with fallback code and the cause text is used.
func New(kind Kind, source string, fallback Code, cause error) *Error {
	return &Error{
		Kind:        kind,
		Source:      source,
		Err:         cause,
		Diagnostics: FromCause(fallback, cause),
	}
}

// FromCause converts an engine error into diagnostics.
func FromCause(fallback Code, cause error) []Diagnostic {
	if cause == nil {
		return nil
	}
	if violations, ok := xsderrors.AsValidations(cause); ok && len(violations) > 0 {
		out := make([]Diagnostic, 0, len(violations))
		for _, v := range violations {
			out = append(out, fromValidation(v))
		}
		return out
	}
	return []Diagnostic{NewDiagnostic(fallback, cause.Error())}
}

func fromValidation(v xsderrors.Validation) Diagnostic {
	msg := v.Message
	if len(v.Expected) > 0 {
		msg = fmt.Sprintf("%s (expected: %s)", msg, strings.Join(v.Expected, ", "))
	}
	if v.Actual != "" {
		msg = fmt.Sprintf("%s (actual: %s)", msg, v.Actual)
	}
	return Diagnostic{
		Code:    v.Code,
		Message: msg,
		Path:    v.Path,
		Line:    v.Line,
		Column:  v.Column,
	}
}

// AsDiagnostics extracts the diagnostics carried by err.
func AsDiagnostics(err error) ([]Diagnostic, bool) {
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return nil, false
	}
	return e.Diagnostics, true
}

// KindOf reports the pipeline kind carried by err.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return 0, false
	}
	return e.Kind, true
}
