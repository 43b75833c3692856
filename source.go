package xsdgate

import "strings"

const defaultSchemaName = "schema.xsd"

// SchemaSource references XSD text, either a file or raw bytes.
type SchemaSource struct {
	path string
	name string
	data []byte
}

// SchemaFile references the XSD file at path. Includes and imports resolve
// relative to the file.
func SchemaFile(path string) SchemaSource {
	return SchemaSource{path: strings.TrimSpace(path)}
}

// SchemaBytes references in-memory XSD text. name identifies the schema in
// errors; an empty name uses "schema.xsd". Relative includes and imports
// cannot be resolved for in-memory sources.
func SchemaBytes(name string, data []byte) SchemaSource {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultSchemaName
	}
	return SchemaSource{name: name, data: data}
}

// String returns the path or name of the source.
func (s SchemaSource) String() string {
	if s.path != "" {
		return s.path
	}
	return s.name
}

func (s SchemaSource) isFile() bool {
	return s.data == nil && s.name == ""
}
