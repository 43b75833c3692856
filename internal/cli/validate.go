package cli

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jacoelho/xsdgate"
	xerrors "github.com/jacoelho/xsdgate/errors"
)

type validateOptions struct {
	schema     string
	jobs       int
	concurrent bool
	limits     limitFlags
}

// target is one document argument and the schema it is checked against.
type target struct {
	document string
	schema   string
}

type checkResult struct {
	target
	err error
}

func newValidateCmd(root *RootOptions) *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [flags] document.xml [document.xml=schema.xsd ...]",
		Short: "Validate XML documents against an XSD schema",
		Long: `Validate each document against --schema. A document argument of the form
doc.xml=other.xsd is checked against other.xsd instead. Every schema is
compiled once, before any document is read.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErrorf("at least one XML document argument is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.schema, "schema", "", "Path to the XSD schema file")
	cmd.Flags().IntVar(&opts.jobs, "jobs", 0, "Number of documents checked in parallel")
	cmd.Flags().BoolVar(&opts.concurrent, "concurrent", false, "Let checks run in parallel instead of taking the engine lock")
	opts.limits.register(cmd)
	return cmd
}

func runValidate(cmd *cobra.Command, root *RootOptions, opts *validateOptions, args []string) error {
	flags := cmd.Flags()
	cfg := root.cfg
	schemaPath := cfg.Schema
	if flags.Changed("schema") {
		schemaPath = opts.schema
	}
	jobs := cfg.Jobs
	if flags.Changed("jobs") {
		jobs = opts.jobs
	}
	if jobs < 1 {
		return usageErrorf("--jobs must be >= 1, got %d", jobs)
	}
	concurrent := cfg.Concurrent
	if flags.Changed("concurrent") {
		concurrent = opts.concurrent
	}

	targets, err := parseTargets(args, schemaPath)
	if err != nil {
		return err
	}
	parserOpts, err := opts.limits.parserOptions(cmd, root)
	if err != nil {
		return err
	}
	loadOpts := xsdgate.NewLoadOptions().
		WithSchemaParserOptions(parserOpts).
		WithDocumentParserOptions(parserOpts).
		WithConcurrentChecks(concurrent)

	cache, err := xsdgate.NewSchemaCache(cfg.CacheSize, loadOpts)
	if err != nil {
		return ExitError{Code: ExitUsage, Kind: KindUsage, Err: err}
	}
	schemas, err := compileSchemas(cmd.ErrOrStderr(), cache, targets)
	if err != nil {
		return err
	}
	parser, err := xsdgate.NewParser(parserOpts)
	if err != nil {
		return usageErrorf("%v", err)
	}

	results := make([]checkResult, len(targets))
	var total atomic.Int64
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)
	for i, t := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := parser.ParseFile(t.document)
			if err == nil {
				total.Add(int64(doc.Size()))
				err = schemas[t.schema].Check(doc)
			}
			results[i] = checkResult{target: t, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}

	failed, err := report(cmd.OutOrStdout(), cmd.ErrOrStderr(), results)
	if err != nil {
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
	level.Debug(root.logger).Log(
		"msg", "validation finished",
		"documents", len(results),
		"failed", failed,
		"bytes", humanize.IBytes(uint64(total.Load())),
		"jobs", jobs,
		"concurrent", concurrent,
	)
	if failed > 0 {
		return ExitError{
			Code:     ExitInvalid,
			Kind:     KindInvalid,
			Message:  fmt.Sprintf("%d of %d documents failed to validate", failed, len(results)),
			Reported: true,
		}
	}
	return nil
}

func parseTargets(args []string, defaultSchema string) ([]target, error) {
	targets := make([]target, 0, len(args))
	for _, arg := range args {
		document, schema, found := strings.Cut(arg, "=")
		if !found {
			schema = defaultSchema
		}
		if document == "" {
			return nil, usageErrorf("empty document path in %q", arg)
		}
		if schema == "" {
			return nil, usageErrorf("no schema for %s: set --schema or use %s=schema.xsd", document, document)
		}
		targets = append(targets, target{document: document, schema: schema})
	}
	return targets, nil
}

// compileSchemas loads every distinct schema named by targets. On the first
// failure it prints the diagnostics and returns an ExitSchema error.
func compileSchemas(w io.Writer, cache *xsdgate.SchemaCache, targets []target) (map[string]*xsdgate.CompiledSchema, error) {
	schemas := make(map[string]*xsdgate.CompiledSchema)
	for _, t := range targets {
		if _, ok := schemas[t.schema]; ok {
			continue
		}
		schema, err := cache.Get(t.schema)
		if err != nil {
			if werr := writeSchemaFailure(w, t.schema, err); werr != nil {
				return nil, ExitError{Code: ExitInternal, Kind: KindInternal, Err: werr}
			}
			return nil, ExitError{Code: ExitSchema, Kind: KindSchema, Err: err, Reported: true}
		}
		schemas[t.schema] = schema
	}
	return schemas, nil
}

func report(stdout, stderr io.Writer, results []checkResult) (int, error) {
	failed := 0
	for _, r := range results {
		if r.err == nil {
			if err := writef(stdout, "%s validates\n", r.document); err != nil {
				return failed, err
			}
			continue
		}
		failed++
		if err := writeDiagnostics(stderr, r.err); err != nil {
			return failed, err
		}
		if err := writef(stderr, "%s fails to validate\n", r.document); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

func writeSchemaFailure(w io.Writer, schema string, err error) error {
	if kind, ok := xerrors.KindOf(err); ok {
		if werr := writef(w, "%s: %s error\n", schema, kind); werr != nil {
			return werr
		}
	}
	if werr := writeDiagnostics(w, err); werr != nil {
		return werr
	}
	return writef(w, "%s fails to compile\n", schema)
}
