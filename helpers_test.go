package xsdgate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const orderSchemaXML = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Order">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="Id" type="xs:int"/>
        <xs:element name="Amount" type="xs:decimal"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

const (
	validOrderXML     = `<Order><Id>1</Id><Amount>9.99</Amount></Order>`
	invalidOrderXML   = `<Order><Id>abc</Id></Order>`
	malformedOrderXML = `<Order><Id>1<Order>`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeOrderSchema(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "order.xsd", orderSchemaXML)
}

func loadOrderSchema(t *testing.T) *CompiledSchema {
	t.Helper()
	schema, err := LoadSchema(writeOrderSchema(t))
	require.NoError(t, err)
	return schema
}
