package cli

import (
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdgate"
)

func newCheckSchemaCmd(root *RootOptions) *cobra.Command {
	var limits limitFlags
	cmd := &cobra.Command{
		Use:   "check-schema [flags] schema.xsd [schema.xsd ...]",
		Short: "Parse and compile XSD schemas without validating documents",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErrorf("at least one schema argument is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			parserOpts, err := limits.parserOptions(cmd, root)
			if err != nil {
				return err
			}
			loadOpts := xsdgate.NewLoadOptions().WithSchemaParserOptions(parserOpts)

			failed := 0
			var firstErr error
			for _, path := range args {
				schema, err := xsdgate.LoadSchemaWithOptions(xsdgate.SchemaFile(path), loadOpts)
				if err != nil {
					failed++
					if firstErr == nil {
						firstErr = err
					}
					if werr := writeSchemaFailure(cmd.ErrOrStderr(), path, err); werr != nil {
						return ExitError{Code: ExitInternal, Kind: KindInternal, Err: werr}
					}
					continue
				}
				level.Debug(root.logger).Log("msg", "schema compiled", "schema", schema.Location())
				if werr := writef(cmd.OutOrStdout(), "%s compiles\n", path); werr != nil {
					return ExitError{Code: ExitInternal, Kind: KindInternal, Err: werr}
				}
			}
			if failed > 0 {
				return ExitError{Code: ExitSchema, Kind: KindSchema, Err: firstErr, Reported: true}
			}
			return nil
		},
	}
	limits.register(cmd)
	return cmd
}
