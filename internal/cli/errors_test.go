package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/jacoelho/xsdgate/errors"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantKind ErrorKind
	}{
		{err: xerrors.ErrSchemaParse, wantCode: ExitSchema, wantKind: KindSchema},
		{err: fmt.Errorf("load schema a.xsd: %w", &xerrors.Error{Kind: xerrors.KindSchemaCompile}), wantCode: ExitSchema, wantKind: KindSchema},
		{err: xerrors.ErrDocumentParse, wantCode: ExitInvalid, wantKind: KindInvalid},
		{err: xerrors.ErrValidation, wantCode: ExitInvalid, wantKind: KindInvalid},
		{err: usageErrorf("bad flag"), wantCode: ExitUsage, wantKind: KindUsage},
		{err: errors.New("boom"), wantCode: ExitInternal, wantKind: KindInternal},
	}

	for _, tt := range tests {
		got := NormalizeError(tt.err)
		assert.Equal(t, tt.wantCode, got.Code, "%v", tt.err)
		assert.Equal(t, tt.wantKind, got.Kind, "%v", tt.err)
	}
}

func TestExitCode(t *testing.T) {
	assert.Zero(t, ExitCode(nil))
	assert.Equal(t, 9, ExitCode(ExitError{Code: 9, Kind: KindInternal, Message: "custom"}))
	assert.Equal(t, ExitInternal, ExitCode(ExitError{Message: "no code"}))
}

func TestWriteCLIError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCLIError(&buf, ExitError{Code: ExitUsage, Kind: KindUsage, Err: errors.New("missing --schema")}))
	assert.Equal(t, "error (usage): missing --schema\n", buf.String())

	buf.Reset()
	require.NoError(t, writeCLIError(&buf, ExitError{Code: ExitInvalid, Reported: true, Message: "1 of 2 documents failed"}))
	assert.Empty(t, buf.String())
}

func TestWriteDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	err := &xerrors.Error{
		Kind:   xerrors.KindValidation,
		Source: "order.xml",
		Diagnostics: []xerrors.Diagnostic{
			{Code: "cvc-datatype-valid", Message: "not an int", Path: "/Order/Id"},
			{Code: "cvc-complex-type", Message: "missing Amount", Line: 1, Column: 20},
		},
	}
	require.NoError(t, writeDiagnostics(&buf, err))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[cvc-datatype-valid] not an int at /Order/Id", lines[0])
	assert.Equal(t, "[cvc-complex-type] missing Amount at line 1, column 20", lines[1])

	buf.Reset()
	require.NoError(t, writeDiagnostics(&buf, errors.New("plain")))
	assert.Equal(t, "plain\n", buf.String())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("info", "json", &buf)
	require.NoError(t, err)

	require.NoError(t, logger.Log("msg", "hello"))
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger, err = newLogger("warn", "logfmt", &buf)
	require.NoError(t, err)
	require.NoError(t, level.Info(logger).Log("msg", "quiet"))
	assert.Empty(t, buf.String())

	_, err = newLogger("loud", "logfmt", &buf)
	assert.Equal(t, ExitUsage, ExitCode(err))
	_, err = newLogger("info", "xml", &buf)
	assert.Equal(t, ExitUsage, ExitCode(err))
}
