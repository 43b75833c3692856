package xsdgate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/jacoelho/xsdgate/errors"
	"github.com/jacoelho/xsdgate/internal/engine"
)

func TestSchemaCacheHit(t *testing.T) {
	path := writeOrderSchema(t)
	cache, err := NewSchemaCache(4, NewLoadOptions())
	require.NoError(t, err)

	hits := testutil.ToFloat64(engine.Metrics().CacheHits)

	first, err := cache.Get(path)
	require.NoError(t, err)
	second, err := cache.Get(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, hits+1, testutil.ToFloat64(engine.Metrics().CacheHits))
}

func TestSchemaCacheRecompilesChangedFile(t *testing.T) {
	path := writeOrderSchema(t)
	cache, err := NewSchemaCache(4, NewLoadOptions())
	require.NoError(t, err)

	first, err := cache.Get(path)
	require.NoError(t, err)
	require.False(t, ValidateString(first, `<Order><Id>1</Id></Order>`))

	relaxed := `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Order">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="Id" type="xs:int"/>
        <xs:element name="Amount" type="xs:decimal" minOccurs="0"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`
	require.NoError(t, os.WriteFile(path, []byte(relaxed), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := cache.Get(path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.True(t, ValidateString(second, `<Order><Id>1</Id></Order>`))
	assert.Equal(t, 1, cache.Len())
}

func TestSchemaCacheEvictsBrokenSchema(t *testing.T) {
	path := writeOrderSchema(t)
	cache, err := NewSchemaCache(4, NewLoadOptions())
	require.NoError(t, err)

	_, err = cache.Get(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`<xs:schema`), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	_, err = cache.Get(path)
	assert.ErrorIs(t, err, xerrors.ErrSchemaParse)
	assert.Zero(t, cache.Len())
}

func TestSchemaCacheMissingFile(t *testing.T) {
	cache, err := NewSchemaCache(4, NewLoadOptions())
	require.NoError(t, err)

	_, err = cache.Get(filepath.Join(t.TempDir(), "missing.xsd"))
	assert.ErrorIs(t, err, xerrors.ErrSchemaParse)
	assert.Zero(t, cache.Len())
}

func TestSchemaCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := NewSchemaCache(2, NewLoadOptions())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(writeOrderSchema(t))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())

	cache.Purge()
	assert.Zero(t, cache.Len())
}

func TestSchemaCacheValidate(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "order.xsd", orderSchemaXML)
	validPath := writeFile(t, dir, "valid.xml", validOrderXML)
	invalidPath := writeFile(t, dir, "invalid.xml", invalidOrderXML)

	cache, err := NewSchemaCache(4, NewLoadOptions())
	require.NoError(t, err)

	assert.True(t, cache.Validate(validPath, schemaPath))
	assert.False(t, cache.Validate(invalidPath, schemaPath))
	assert.False(t, cache.Validate(validPath, filepath.Join(dir, "missing.xsd")))
	assert.Equal(t, 1, cache.Len())
}

func TestSchemaCacheWithMemFS(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/schemas/order.xsd", []byte(orderSchemaXML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/docs/order.xml", []byte(validOrderXML), 0o644))

	cache, err := NewSchemaCache(4, NewLoadOptions().WithFS(fs))
	require.NoError(t, err)
	assert.True(t, cache.Validate("/docs/order.xml", "/schemas/order.xsd"))
}

func TestNewSchemaCacheRejectsBadSize(t *testing.T) {
	_, err := NewSchemaCache(0, NewLoadOptions())
	assert.Error(t, err)
}

func TestNilSchemaCache(t *testing.T) {
	var cache *SchemaCache
	_, err := cache.Get("order.xsd")
	assert.Error(t, err)
	assert.Zero(t, cache.Len())
	cache.Purge()
}
