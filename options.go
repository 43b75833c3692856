package xsdgate

import (
	"cmp"
	"fmt"

	"github.com/jacoelho/xsd"
	"github.com/jacoelho/xsd/pkg/xmlstream"
	"github.com/jacoelho/xsd/pkg/xmltext"
	"github.com/spf13/afero"
)

const (
	defaultXMLMaxDepth     = 256
	defaultXMLMaxAttrs     = 256
	defaultXMLMaxTokenSize = 4 << 20
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved() int {
	if !o.set {
		return 0
	}
	return o.value
}

type int64Option struct {
	value int64
	set   bool
}

func (o int64Option) resolved() int64 {
	if !o.set {
		return 0
	}
	return o.value
}

// LoadOptions configures schema loading and the checks run with the compiled schema.
type LoadOptions struct {
	fs               afero.Fs
	schemaLimits     ParserOptions
	documentLimits   ParserOptions
	concurrentChecks bool
}

// NewLoadOptions returns a default, valid load options value.
func NewLoadOptions() LoadOptions {
	return LoadOptions{}
}

// WithFS sets the filesystem schema sources are read from (nil uses the OS filesystem).
func (o LoadOptions) WithFS(fs afero.Fs) LoadOptions {
	o.fs = fs
	return o
}

// WithSchemaParserOptions sets the limits applied while reading the schema
// root and every schema it includes or imports.
func (o LoadOptions) WithSchemaParserOptions(value ParserOptions) LoadOptions {
	o.schemaLimits = value
	return o
}

// WithDocumentParserOptions sets the depth, attribute and token limits the
// compiled schema applies to documents during Check. Documents are parsed
// twice, once by their Parser and once by the check, so the two limit sets
// should agree. Only the XML limits are used; the filesystem and the
// document size cap belong to the Parser.
func (o LoadOptions) WithDocumentParserOptions(value ParserOptions) LoadOptions {
	o.documentLimits = value
	return o
}

// WithConcurrentChecks lets checks against the compiled schema run without
// taking the process-wide engine lock. Compilation is always serialized.
func (o LoadOptions) WithConcurrentChecks(value bool) LoadOptions {
	o.concurrentChecks = value
	return o
}

// Validate validates load options values.
func (o LoadOptions) Validate() error {
	_, err := o.engineOptions()
	return err
}

// engineOptions translates the schema and document limits into engine load options.
func (o LoadOptions) engineOptions() (xsd.LoadOptions, error) {
	schema, err := o.schemaLimits.withDefaults()
	if err != nil {
		return xsd.LoadOptions{}, fmt.Errorf("schema parser options: %w", err)
	}
	document, err := o.documentLimits.withDefaults()
	if err != nil {
		return xsd.LoadOptions{}, fmt.Errorf("document parser options: %w", err)
	}
	opts := xsd.NewLoadOptions().
		WithSchemaMaxDepth(schema.maxDepth).
		WithSchemaMaxAttrs(schema.maxAttrs).
		WithSchemaMaxTokenSize(schema.maxTokenSize).
		WithRuntimeOptions(xsd.NewRuntimeOptions().
			WithInstanceMaxDepth(document.maxDepth).
			WithInstanceMaxAttrs(document.maxAttrs).
			WithInstanceMaxTokenSize(document.maxTokenSize))
	if err := opts.Validate(); err != nil {
		return xsd.LoadOptions{}, fmt.Errorf("engine options: %w", err)
	}
	return opts, nil
}

func (o LoadOptions) filesystem() afero.Fs {
	if o.fs == nil {
		return afero.NewOsFs()
	}
	return o.fs
}

// ParserOptions configures XML parsing limits and the filesystem used for path inputs.
type ParserOptions struct {
	fs              afero.Fs
	maxDepth        intOption
	maxAttrs        intOption
	maxTokenSize    intOption
	maxDocumentSize int64Option
}

// NewParserOptions returns a default, valid parser options value.
func NewParserOptions() ParserOptions {
	return ParserOptions{}
}

// WithFS sets the filesystem file inputs are read from (nil uses the OS filesystem).
func (o ParserOptions) WithFS(fs afero.Fs) ParserOptions {
	o.fs = fs
	return o
}

// WithMaxDepth sets the XML max element depth (0 uses default).
func (o ParserOptions) WithMaxDepth(value int) ParserOptions {
	o.maxDepth = intOption{value: value, set: true}
	return o
}

// WithMaxAttrs sets the XML max attributes per element (0 uses default).
func (o ParserOptions) WithMaxAttrs(value int) ParserOptions {
	o.maxAttrs = intOption{value: value, set: true}
	return o
}

// WithMaxTokenSize sets the XML max token size in bytes (0 uses default).
func (o ParserOptions) WithMaxTokenSize(value int) ParserOptions {
	o.maxTokenSize = intOption{value: value, set: true}
	return o
}

// WithMaxDocumentSize caps the document size in bytes (0 means unlimited).
func (o ParserOptions) WithMaxDocumentSize(value int64) ParserOptions {
	o.maxDocumentSize = int64Option{value: value, set: true}
	return o
}

// Validate validates parser options values.
func (o ParserOptions) Validate() error {
	_, err := o.withDefaults()
	return err
}

type resolvedParserOptions struct {
	fs              afero.Fs
	stream          []xmlstream.Option
	maxDepth        int
	maxAttrs        int
	maxTokenSize    int
	maxDocumentSize int64
}

func (o ParserOptions) withDefaults() (resolvedParserOptions, error) {
	maxDepth := o.maxDepth.resolved()
	maxAttrs := o.maxAttrs.resolved()
	maxTokenSize := o.maxTokenSize.resolved()
	maxDocumentSize := o.maxDocumentSize.resolved()
	if maxDepth < 0 {
		return resolvedParserOptions{}, fmt.Errorf("xml max depth must be >= 0")
	}
	if maxAttrs < 0 {
		return resolvedParserOptions{}, fmt.Errorf("xml max attrs must be >= 0")
	}
	if maxTokenSize < 0 {
		return resolvedParserOptions{}, fmt.Errorf("xml max token size must be >= 0")
	}
	if maxDocumentSize < 0 {
		return resolvedParserOptions{}, fmt.Errorf("xml max document size must be >= 0")
	}

	fs := o.fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := resolvedParserOptions{
		fs:              fs,
		maxDepth:        cmp.Or(maxDepth, defaultXMLMaxDepth),
		maxAttrs:        cmp.Or(maxAttrs, defaultXMLMaxAttrs),
		maxTokenSize:    cmp.Or(maxTokenSize, defaultXMLMaxTokenSize),
		maxDocumentSize: maxDocumentSize,
	}
	r.stream = []xmlstream.Option{
		xmltext.MaxDepth(r.maxDepth),
		xmltext.MaxAttrs(r.maxAttrs),
		xmltext.MaxTokenSize(r.maxTokenSize),
	}
	return r, nil
}
