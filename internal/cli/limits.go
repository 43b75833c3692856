package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdgate"
)

// limitFlags are the parser limits shared by every command that reads XML.
type limitFlags struct {
	maxDocumentSize string
	maxTokenSize    string
	maxDepth        int
	maxAttrs        int
}

func (l *limitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&l.maxDocumentSize, "max-document-size", "", "Reject inputs larger than this size, e.g. 16MiB (0 disables)")
	cmd.Flags().StringVar(&l.maxTokenSize, "max-token-size", "", "Maximum size of a single XML token, e.g. 4MiB")
	cmd.Flags().IntVar(&l.maxDepth, "max-depth", 0, "Maximum element nesting depth")
	cmd.Flags().IntVar(&l.maxAttrs, "max-attrs", 0, "Maximum attributes per element")
}

// parserOptions merges the config file limits with any flags set on cmd.
func (l *limitFlags) parserOptions(cmd *cobra.Command, opts *RootOptions) (xsdgate.ParserOptions, error) {
	cfg := opts.cfg
	documentSize := int64(cfg.MaxDocumentSize)
	tokenSize := int64(cfg.MaxTokenSize)
	depth := cfg.MaxDepth
	attrs := cfg.MaxAttrs

	flags := cmd.Flags()
	if flags.Changed("max-document-size") {
		n, err := humanize.ParseBytes(l.maxDocumentSize)
		if err != nil {
			return xsdgate.ParserOptions{}, usageErrorf("invalid --max-document-size %q: %v", l.maxDocumentSize, err)
		}
		documentSize = int64(n)
	}
	if flags.Changed("max-token-size") {
		n, err := humanize.ParseBytes(l.maxTokenSize)
		if err != nil {
			return xsdgate.ParserOptions{}, usageErrorf("invalid --max-token-size %q: %v", l.maxTokenSize, err)
		}
		tokenSize = int64(n)
	}
	if flags.Changed("max-depth") {
		depth = l.maxDepth
	}
	if flags.Changed("max-attrs") {
		attrs = l.maxAttrs
	}

	popts := xsdgate.NewParserOptions().
		WithMaxDocumentSize(documentSize).
		WithMaxTokenSize(int(tokenSize)).
		WithMaxDepth(depth).
		WithMaxAttrs(attrs)
	if err := popts.Validate(); err != nil {
		return xsdgate.ParserOptions{}, usageErrorf("%v", err)
	}
	return popts, nil
}
