package xsdgate

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionsBuildersDoNotMutate(t *testing.T) {
	base := NewLoadOptions()
	concurrent := base.WithConcurrentChecks(true)
	withFS := base.WithFS(afero.NewMemMapFs())

	assert.False(t, base.concurrentChecks)
	assert.True(t, concurrent.concurrentChecks)
	assert.Nil(t, base.fs)
	assert.NotNil(t, withFS.fs)
}

func TestLoadOptionsFilesystemDefault(t *testing.T) {
	_, ok := NewLoadOptions().filesystem().(*afero.OsFs)
	assert.True(t, ok)

	mem := afero.NewMemMapFs()
	assert.Same(t, mem, NewLoadOptions().WithFS(mem).filesystem())
}

func TestParserOptionsDefaults(t *testing.T) {
	resolved, err := NewParserOptions().withDefaults()
	require.NoError(t, err)
	assert.Len(t, resolved.stream, 3)
	assert.Zero(t, resolved.maxDocumentSize)
	assert.NotNil(t, resolved.fs)

	resolved, err = NewParserOptions().WithMaxDocumentSize(1 << 10).withDefaults()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<10), resolved.maxDocumentSize)
}

func TestLoadOptionsValidate(t *testing.T) {
	assert.NoError(t, NewLoadOptions().Validate())
	assert.Error(t, NewLoadOptions().WithSchemaParserOptions(NewParserOptions().WithMaxAttrs(-3)).Validate())
	assert.Error(t, NewLoadOptions().WithDocumentParserOptions(NewParserOptions().WithMaxDepth(-1)).Validate())
}

func TestLoadOptionsEngineOptions(t *testing.T) {
	opts, err := NewLoadOptions().
		WithSchemaParserOptions(NewParserOptions().WithMaxDepth(32)).
		WithDocumentParserOptions(NewParserOptions().WithMaxAttrs(512)).
		engineOptions()
	require.NoError(t, err)
	assert.NoError(t, opts.Validate())

	_, err = NewLoadOptions().WithDocumentParserOptions(NewParserOptions().WithMaxTokenSize(-1)).engineOptions()
	assert.ErrorContains(t, err, "document parser options")
}

func TestSchemaParserLimitsReachLoad(t *testing.T) {
	src := SchemaBytes("order.xsd", []byte(orderSchemaXML))
	_, err := LoadSchemaWithOptions(src, NewLoadOptions().WithSchemaParserOptions(NewParserOptions().WithMaxDepth(2)))
	assert.Error(t, err)

	_, err = LoadSchemaWithOptions(src, NewLoadOptions().WithSchemaParserOptions(NewParserOptions().WithMaxDepth(64)))
	assert.NoError(t, err)
}
