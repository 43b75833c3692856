package xsdgate

import (
	"fmt"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacoelho/xsdgate/internal/engine"
)

// ErrAlreadyInitialized is returned by Configure after the engine state has
// been initialized by a first load or parse.
var ErrAlreadyInitialized = engine.ErrAlreadyInitialized

// Config is the process-wide configuration applied when the engine state is
// first initialized.
type Config struct {
	// Logger receives debug events for loads and checks. Nil discards them.
	Logger log.Logger
	// Registerer receives the xsdgate_* collectors. Nil leaves them
	// unregistered.
	Registerer prometheus.Registerer
}

// Configure sets the process-wide configuration. It must be called before
// the first schema load or document parse.
func Configure(cfg Config) error {
	return engine.Configure(engine.Config{
		Logger:     cfg.Logger,
		Registerer: cfg.Registerer,
	})
}

// LoadSchema parses and compiles the XSD file at schemaPath with default options.
// Failures are *errors.Error values of kind KindSchemaParse or KindSchemaCompile
// carrying the engine diagnostics.
func LoadSchema(schemaPath string) (*CompiledSchema, error) {
	return LoadSchemaWithOptions(SchemaFile(schemaPath), NewLoadOptions())
}

// LoadSchemaWithOptions parses and compiles src with explicit configuration.
func LoadSchemaWithOptions(src SchemaSource, opts LoadOptions) (*CompiledSchema, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", src, err)
	}
	ctx, err := NewSchemaParserContext(src, opts)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", src, err)
	}
	schema, err := ctx.Compile()
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", src, err)
	}
	return schema, nil
}
