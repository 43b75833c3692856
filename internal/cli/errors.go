package cli

import (
	"errors"
	"fmt"
	"io"

	xerrors "github.com/jacoelho/xsdgate/errors"
)

type ErrorKind string

const (
	KindInternal ErrorKind = "internal"
	KindInvalid  ErrorKind = "invalid"
	KindUsage    ErrorKind = "usage"
	KindSchema   ErrorKind = "schema"
)

// Exit codes. ExitInternal shares its value with ExitInvalid.
const (
	ExitInvalid  = 1
	ExitInternal = 1
	ExitUsage    = 2
	ExitSchema   = 3
)

// ExitError carries the process exit code for a failed command. Reported
// marks errors whose details were already written to the output.
type ExitError struct {
	Code     int
	Kind     ErrorKind
	Message  string
	Err      error
	Reported bool
}

func (e ExitError) Error() string {
	return errorMessage(e)
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func NormalizeError(err error) ExitError {
	if err == nil {
		return ExitError{Code: 0}
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			exitErr.Code = ExitInternal
		}
		return exitErr
	}

	switch {
	case errors.Is(err, xerrors.ErrSchemaParse), errors.Is(err, xerrors.ErrSchemaCompile):
		return ExitError{Code: ExitSchema, Kind: KindSchema, Err: err}
	case errors.Is(err, xerrors.ErrDocumentParse), errors.Is(err, xerrors.ErrValidation):
		return ExitError{Code: ExitInvalid, Kind: KindInvalid, Err: err}
	default:
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return NormalizeError(err).Code
}

func writeCLIError(w io.Writer, exitErr ExitError) error {
	if exitErr.Code == 0 || exitErr.Reported {
		return nil
	}
	prefix := "error"
	if exitErr.Kind != "" {
		prefix = fmt.Sprintf("error (%s)", exitErr.Kind)
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", prefix, errorMessage(exitErr))
	return err
}

func errorMessage(exitErr ExitError) string {
	if exitErr.Message != "" {
		return exitErr.Message
	}
	if exitErr.Err != nil {
		return exitErr.Err.Error()
	}
	return "unknown error"
}

// writeDiagnostics prints one line per diagnostic carried by err, or err
// itself when it has none.
func writeDiagnostics(w io.Writer, err error) error {
	diags, ok := xerrors.AsDiagnostics(err)
	if !ok || len(diags) == 0 {
		return writeln(w, err.Error())
	}
	for _, d := range diags {
		if werr := writeln(w, d.Error()); werr != nil {
			return werr
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
