package xsdgate

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-kit/log/level"
	"github.com/jacoelho/xsd"
	"github.com/spf13/afero"

	xerrors "github.com/jacoelho/xsdgate/errors"
	"github.com/jacoelho/xsdgate/internal/engine"
	"github.com/jacoelho/xsdgate/internal/metrics"
)

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

// ErrContextConsumed is returned when a SchemaParserContext is compiled twice.
var ErrContextConsumed = errors.New("schema parser context already compiled")

// SchemaParserContext holds a schema source that has been read and found to
// be a well-formed XSD document, but not yet compiled. It is consumed by
// Compile and cannot be reused.
type SchemaParserContext struct {
	source   string
	location string
	fs       afero.Fs
	opts     LoadOptions
	loadOpts xsd.LoadOptions
	started  time.Time
	consumed atomic.Bool
}

// NewSchemaParserContext reads src and checks that it is a well-formed
// document whose root is xs:schema. Failures are *errors.Error of kind
// KindSchemaParse.
func NewSchemaParserContext(src SchemaSource, opts LoadOptions) (*SchemaParserContext, error) {
	if err := engine.Ensure(); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", src, err)
	}
	started := time.Now()
	ctx, err := newSchemaParserContext(src, opts)
	if err != nil {
		engine.Metrics().SchemaCompilations.WithLabelValues(metrics.OutcomeParseFailed).Inc()
		level.Debug(engine.Logger()).Log("msg", "schema parse failed", "schema", src.String(), "err", err)
		return nil, err
	}
	ctx.started = started
	return ctx, nil
}

func newSchemaParserContext(src SchemaSource, opts LoadOptions) (*SchemaParserContext, error) {
	limits, err := opts.schemaLimits.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", src, err)
	}
	engineOpts, err := opts.engineOptions()
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", src, err)
	}

	fs := opts.filesystem()
	base, location, data, err := readSchemaSource(fs, src, limits.maxDocumentSize)
	if err != nil {
		return nil, xerrors.New(xerrors.KindSchemaParse, src.String(), xerrors.CodeSchemaRead, err)
	}

	var root QName
	err = engine.Do(func() error {
		res, scanErr := scanXML(data, limits.stream)
		root = res.root
		return scanErr
	})
	if err != nil {
		if errors.Is(err, engine.ErrClosed) {
			return nil, fmt.Errorf("parse schema %s: %w", src, err)
		}
		return nil, &xerrors.Error{
			Kind:        xerrors.KindSchemaParse,
			Source:      src.String(),
			Err:         err,
			Diagnostics: []xerrors.Diagnostic{syntaxDiagnostic(xerrors.CodeSchemaSyntax, err)},
		}
	}
	if root.Namespace != xsdNamespace || root.Local != "schema" {
		return nil, &xerrors.Error{
			Kind:   xerrors.KindSchemaParse,
			Source: src.String(),
			Diagnostics: []xerrors.Diagnostic{xerrors.NewDiagnostic(
				xerrors.CodeSchemaRoot,
				fmt.Sprintf("root element %s is not {%s}schema", root, xsdNamespace),
			)},
		}
	}

	// The compile step must see exactly the bytes checked here, while
	// includes and imports still resolve against the base filesystem.
	layer := afero.NewMemMapFs()
	if err := afero.WriteFile(layer, location, data, 0o644); err != nil {
		return nil, fmt.Errorf("parse schema %s: stage schema: %w", src, err)
	}

	return &SchemaParserContext{
		source:   src.String(),
		location: location,
		fs:       afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), layer),
		opts:     opts,
		loadOpts: engineOpts,
	}, nil
}

// readSchemaSource returns the filesystem includes resolve against, the
// slash-separated location of the root inside it, and the root bytes.
func readSchemaSource(fs afero.Fs, src SchemaSource, limit int64) (afero.Fs, string, []byte, error) {
	if !src.isFile() {
		if src.data == nil {
			return nil, "", nil, fmt.Errorf("read schema %s: no data", src.name)
		}
		if limit > 0 && int64(len(src.data)) > limit {
			return nil, "", nil, fmt.Errorf("read schema %s: exceeds size limit", src.name)
		}
		return afero.NewMemMapFs(), path.Base(filepath.ToSlash(src.name)), src.data, nil
	}

	if src.path == "" {
		return nil, "", nil, fmt.Errorf("read schema: empty path")
	}
	abs, err := filepath.Abs(src.path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("read schema %s: %w", src.path, err)
	}
	data, err := readAll(fs, abs, limit)
	if err != nil {
		return nil, "", nil, fmt.Errorf("read schema %s: %w", src.path, err)
	}
	location := strings.TrimPrefix(filepath.ToSlash(abs), "/")
	if vol := filepath.VolumeName(abs); vol != "" {
		location = strings.TrimPrefix(filepath.ToSlash(strings.TrimPrefix(abs, vol)), "/")
		return afero.NewBasePathFs(fs, vol+string(os.PathSeparator)), location, data, nil
	}
	return afero.NewBasePathFs(fs, "/"), location, data, nil
}

// Source returns the path or name the context was created from.
func (c *SchemaParserContext) Source() string {
	if c == nil {
		return ""
	}
	return c.source
}

// Compile builds the schema grammar and returns the compiled schema. The
// context is consumed even when compilation fails. Failures are
// *errors.Error of kind KindSchemaCompile.
func (c *SchemaParserContext) Compile() (*CompiledSchema, error) {
	if c == nil {
		return nil, fmt.Errorf("compile schema: nil parser context")
	}
	if !c.consumed.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("compile schema %s: %w", c.source, ErrContextConsumed)
	}
	fs := c.fs
	c.fs = nil

	m := engine.Metrics()
	logger := engine.Logger()

	var (
		schema  *xsd.Schema
		loadErr error
	)
	if err := engine.Do(func() error {
		schema, loadErr = xsd.LoadWithOptions(afero.NewIOFS(fs), c.location, c.loadOpts)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", c.source, err)
	}
	if !c.started.IsZero() {
		m.SchemaCompileSeconds.Observe(time.Since(c.started).Seconds())
	}
	if loadErr != nil {
		m.SchemaCompilations.WithLabelValues(metrics.OutcomeFailed).Inc()
		level.Debug(logger).Log("msg", "schema compile failed", "schema", c.source, "err", loadErr)
		return nil, xerrors.New(xerrors.KindSchemaCompile, c.source, xerrors.CodeSchemaCompile, loadErr)
	}

	m.SchemaCompilations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	level.Debug(logger).Log("msg", "schema compiled", "schema", c.source)
	return &CompiledSchema{
		schema:     schema,
		location:   c.source,
		concurrent: c.opts.concurrentChecks,
	}, nil
}
