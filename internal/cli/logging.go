package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	logfmtFormat = "logfmt"
	jsonFormat   = "json"
)

func newLogger(lvl, format string, w io.Writer) (log.Logger, error) {
	var allow level.Option
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		allow = level.AllowDebug()
	case "info", "":
		allow = level.AllowInfo()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		return nil, usageErrorf("unknown log level %q", lvl)
	}

	sw := log.NewSyncWriter(w)
	var logger log.Logger
	switch strings.ToLower(strings.TrimSpace(format)) {
	case logfmtFormat, "":
		logger = log.NewLogfmtLogger(sw)
	case jsonFormat:
		logger = log.NewJSONLogger(sw)
	default:
		return nil, usageErrorf("unknown log format %q", format)
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, allow), nil
}

func usageErrorf(format string, args ...any) error {
	return ExitError{Code: ExitUsage, Kind: KindUsage, Err: fmt.Errorf(format, args...)}
}
