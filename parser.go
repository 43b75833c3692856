package xsdgate

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	xerrors "github.com/jacoelho/xsdgate/errors"
	"github.com/jacoelho/xsdgate/internal/engine"
)

// Parser turns XML input into a Document. A Parser holds only immutable
// configuration and may be reused across calls and goroutines.
type Parser struct {
	opts resolvedParserOptions
}

// NewParser creates a parser with explicit options.
func NewParser(opts ParserOptions) (*Parser, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("new parser: %w", err)
	}
	return &Parser{opts: resolved}, nil
}

// DefaultParser returns a fresh parser with default limits reading from the OS filesystem.
func DefaultParser() *Parser {
	resolved, _ := NewParserOptions().withDefaults()
	return &Parser{opts: resolved}
}

// Parse parses an in-memory XML document.
func (p *Parser) Parse(data []byte) (*Document, error) {
	return p.parse("", data)
}

// ParseString parses XML text.
func (p *Parser) ParseString(text string) (*Document, error) {
	return p.parse("", []byte(text))
}

// ParseReader reads r to EOF and parses the result. name identifies the
// document in errors.
func (p *Parser) ParseReader(name string, r io.Reader) (*Document, error) {
	if r == nil {
		return nil, documentReadError(name, fmt.Errorf("nil reader"))
	}
	if limit := p.options().maxDocumentSize; limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, documentReadError(name, err)
	}
	return p.parse(name, data)
}

// ParseFile reads and parses the XML file at path.
func (p *Parser) ParseFile(path string) (doc *Document, err error) {
	opts := p.options()
	f, err := opts.fs.Open(path)
	if err != nil {
		return nil, documentReadError(path, fmt.Errorf("open xml file %s: %w", path, err))
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			doc = nil
			err = documentReadError(path, fmt.Errorf("close xml file %s: %w", path, closeErr))
		}
	}()

	return p.ParseReader(path, f)
}

func (p *Parser) parse(name string, data []byte) (*Document, error) {
	opts := p.options()
	if limit := opts.maxDocumentSize; limit > 0 && int64(len(data)) > limit {
		return nil, &xerrors.Error{
			Kind:   xerrors.KindDocumentParse,
			Source: name,
			Diagnostics: []xerrors.Diagnostic{xerrors.NewDiagnostic(
				xerrors.CodeDocumentTooLarge,
				fmt.Sprintf("document exceeds %s limit", humanize.IBytes(uint64(limit))),
			)},
		}
	}

	var res scanResult
	err := engine.Do(func() error {
		var scanErr error
		res, scanErr = scanXML(data, opts.stream)
		if scanErr != nil {
			return &xerrors.Error{
				Kind:        xerrors.KindDocumentParse,
				Source:      name,
				Err:         scanErr,
				Diagnostics: []xerrors.Diagnostic{syntaxDiagnostic(xerrors.CodeDocumentSyntax, scanErr)},
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Document{
		name:     name,
		data:     data,
		root:     res.root,
		elements: res.elements,
	}, nil
}

func (p *Parser) options() resolvedParserOptions {
	if p == nil || p.opts.fs == nil {
		return DefaultParser().opts
	}
	return p.opts
}

func documentReadError(name string, err error) error {
	return xerrors.New(xerrors.KindDocumentParse, name, xerrors.CodeDocumentRead, err)
}

// readAll reads path from fs, honoring a size limit.
func readAll(fs afero.Fs, path string, limit int64) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %s limit", humanize.IBytes(uint64(limit)))
	}
	return data, nil
}
