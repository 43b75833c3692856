package xsdgate

import (
	"errors"
	"fmt"

	"github.com/go-kit/log/level"

	xerrors "github.com/jacoelho/xsdgate/errors"
	"github.com/jacoelho/xsdgate/internal/engine"
	"github.com/jacoelho/xsdgate/internal/metrics"
)

// The Validate* functions collapse every failure into false: unreadable
// input, malformed XML, a missing schema and schema violations alike. Use
// LoadSchema, Parser and CompiledSchema.Check to tell them apart.

// ValidateDocument reports whether a pre-parsed document conforms to schema.
func ValidateDocument(schema *CompiledSchema, doc *Document) (ok bool) {
	defer recoverFalse(&ok, doc.Name())
	return check(schema, doc)
}

// ValidateWithParser parses xml with parser and reports whether it conforms
// to schema. A nil parser behaves as DefaultParser.
func ValidateWithParser(schema *CompiledSchema, parser *Parser, xml []byte) (ok bool) {
	defer recoverFalse(&ok, "")
	doc, err := parser.Parse(xml)
	if err != nil {
		return parseFailed(err)
	}
	return check(schema, doc)
}

// ValidateBytes reports whether the XML in buf conforms to schema.
func ValidateBytes(schema *CompiledSchema, buf []byte) bool {
	return ValidateWithParser(schema, DefaultParser(), buf)
}

// ValidateString reports whether the XML text conforms to schema.
func ValidateString(schema *CompiledSchema, text string) bool {
	return ValidateWithParser(schema, DefaultParser(), []byte(text))
}

// ValidateFile reports whether the XML file at xmlPath conforms to schema.
func ValidateFile(schema *CompiledSchema, xmlPath string) (ok bool) {
	defer recoverFalse(&ok, xmlPath)
	doc, err := DefaultParser().ParseFile(xmlPath)
	if err != nil {
		return parseFailed(err)
	}
	return check(schema, doc)
}

// Validate compiles the schema at schemaPath and reports whether the XML
// file at xmlPath conforms to it. If the schema cannot be loaded the XML is
// never read and the result is false.
func Validate(xmlPath, schemaPath string) (ok bool) {
	defer recoverFalse(&ok, xmlPath)
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		level.Debug(engine.Logger()).Log("msg", "schema load failed, skipping document", "schema", schemaPath, "document", xmlPath, "err", err)
		return false
	}
	return ValidateFile(schema, xmlPath)
}

func check(schema *CompiledSchema, doc *Document) bool {
	err := schema.Check(doc)
	if err == nil {
		engine.Metrics().Validations.WithLabelValues(metrics.OutcomeValid).Inc()
		return true
	}
	if errors.Is(err, xerrors.ErrDocumentParse) {
		return parseFailed(err)
	}
	engine.Metrics().Validations.WithLabelValues(metrics.OutcomeInvalid).Inc()
	level.Debug(engine.Logger()).Log("msg", "document rejected", "document", doc.Name(), "schema", schema.Location(), "err", err)
	return false
}

func parseFailed(err error) bool {
	engine.Metrics().Validations.WithLabelValues(metrics.OutcomeParseFailed).Inc()
	kind, _ := xerrors.KindOf(err)
	level.Debug(engine.Logger()).Log("msg", "document rejected", "kind", kind, "err", err)
	return false
}

func recoverFalse(ok *bool, document string) {
	if r := recover(); r != nil {
		*ok = false
		level.Error(engine.Logger()).Log("msg", "validation panicked", "document", document, "panic", fmt.Sprint(r))
	}
}
