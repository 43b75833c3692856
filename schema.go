package xsdgate

import (
	"errors"
	"fmt"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"
	"github.com/jacoelho/xsd/pkg/xmltext"

	xerrors "github.com/jacoelho/xsdgate/errors"
	"github.com/jacoelho/xsdgate/internal/engine"
)

// CompiledSchema is an immutable compiled XSD schema. It can be held for the
// lifetime of the process and used for any number of checks.
//
// Checks take the process-wide engine lock unless the schema was loaded with
// LoadOptions.WithConcurrentChecks(true).
type CompiledSchema struct {
	schema     *xsd.Schema
	location   string
	concurrent bool
}

// Location returns the path or name the schema was compiled from.
func (s *CompiledSchema) Location() string {
	if s == nil {
		return ""
	}
	return s.location
}

// ConcurrentChecks reports whether checks bypass the engine lock.
func (s *CompiledSchema) ConcurrentChecks() bool {
	return s != nil && s.concurrent
}

// Check validates a parsed document against the schema. It returns nil when
// the document conforms. A document the engine cannot read within the
// schema's document limits yields an *errors.Error of kind
// KindDocumentParse; any other failure has kind KindValidation.
func (s *CompiledSchema) Check(doc *Document) error {
	if s == nil || s.schema == nil {
		return &xerrors.Error{
			Kind:        xerrors.KindValidation,
			Source:      doc.Name(),
			Diagnostics: []xerrors.Diagnostic{xerrors.NewDiagnostic(xerrors.CodeSchemaNotLoaded, "schema not loaded")},
		}
	}
	if doc == nil {
		return &xerrors.Error{
			Kind:        xerrors.KindValidation,
			Source:      s.location,
			Diagnostics: []xerrors.Diagnostic{xerrors.NewDiagnostic(xerrors.CodeDocumentMissing, "no document")},
		}
	}

	var checkErr error
	run := func() {
		checkErr = s.schema.Validate(doc.reader())
	}
	if s.concurrent {
		if err := engine.Ensure(); err != nil {
			return fmt.Errorf("check %s: %w", doc.Name(), err)
		}
		run()
	} else if err := engine.Do(func() error { run(); return nil }); err != nil {
		return fmt.Errorf("check %s: %w", doc.Name(), err)
	}

	switch {
	case checkErr == nil:
		return nil
	case isDocumentParseFailure(checkErr):
		return documentParseError(doc.Name(), checkErr)
	default:
		return xerrors.New(xerrors.KindValidation, doc.Name(), xerrors.CodeNotConforming, checkErr)
	}
}

// isDocumentParseFailure reports whether the engine rejected the document
// while reading it rather than while checking it against the grammar, for
// example because a depth or token limit was exceeded.
func isDocumentParseFailure(err error) bool {
	var syntaxErr *xmltext.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	violations, ok := xsderrors.AsValidations(err)
	if !ok {
		return false
	}
	for _, v := range violations {
		if v.Code == string(xsderrors.ErrXMLParse) {
			return true
		}
	}
	return false
}

func documentParseError(name string, err error) *xerrors.Error {
	var syntaxErr *xmltext.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &xerrors.Error{
			Kind:        xerrors.KindDocumentParse,
			Source:      name,
			Err:         err,
			Diagnostics: []xerrors.Diagnostic{syntaxDiagnostic(xerrors.CodeDocumentSyntax, err)},
		}
	}
	return xerrors.New(xerrors.KindDocumentParse, name, xerrors.CodeDocumentSyntax, err)
}
