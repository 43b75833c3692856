package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jacoelho/xsdgate"
	"github.com/jacoelho/xsdgate/internal/config"
)

const (
	envLogLevel  = "XSDGATE_LOG_LEVEL"
	envLogFormat = "XSDGATE_LOG_FORMAT"
)

type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	CPUProfile string
	MemProfile string

	fs       afero.Fs
	cfg      config.File
	logger   log.Logger
	profiler *profiler
}

func newRootCmd() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{
		LogLevel:  envDefault(envLogLevel, ""),
		LogFormat: envDefault(envLogFormat, ""),
		fs:        afero.NewOsFs(),
		cfg:       config.Default(),
		logger:    log.NewNopLogger(),
	}
	cmd := &cobra.Command{
		Use:           "xsdgate",
		Short:         "Validate XML documents against XSD schemas",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error); defaults to the config file, then info")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (logfmt, json); defaults to the config file, then logfmt")
	cmd.PersistentFlags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")

	cmd.AddCommand(
		newValidateCmd(opts),
		newCheckSchemaCmd(opts),
	)

	return cmd, opts
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.ConfigPath != "" {
		cfg, err := config.Load(o.fs, o.ConfigPath)
		if err != nil {
			return ExitError{Code: ExitUsage, Kind: KindUsage, Err: err}
		}
		o.cfg = cfg
	}

	logger, err := newLogger(firstNonEmpty(o.LogLevel, o.cfg.LogLevel), firstNonEmpty(o.LogFormat, o.cfg.LogFormat), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	o.logger = log.With(logger, "cmd", cmd.Name())

	err = xsdgate.Configure(xsdgate.Config{Logger: logger, Registerer: prometheus.DefaultRegisterer})
	switch {
	case errors.Is(err, xsdgate.ErrAlreadyInitialized):
		level.Debug(o.logger).Log("msg", "engine already initialized, keeping its logger")
	case err != nil:
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}

	o.profiler, err = startProfiling(o.CPUProfile, o.MemProfile)
	if err != nil {
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
	return nil
}

func envDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
