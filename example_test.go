package xsdgate_test

import (
	"fmt"

	"github.com/jacoelho/xsdgate"
	"github.com/jacoelho/xsdgate/errors"
)

const personSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           targetNamespace="http://example.com/simple"
           elementFormDefault="qualified">
  <xs:element name="person">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="name" type="xs:string"/>
        <xs:element name="age" type="xs:integer"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func ExampleValidateString() {
	schema, err := xsdgate.LoadSchemaWithOptions(
		xsdgate.SchemaBytes("person.xsd", []byte(personSchema)),
		xsdgate.NewLoadOptions(),
	)
	if err != nil {
		fmt.Printf("Error loading schema: %v\n", err)
		return
	}

	valid := `<person xmlns="http://example.com/simple"><name>John Doe</name><age>30</age></person>`
	invalid := `<person xmlns="http://example.com/simple"><name>John Doe</name><age>thirty</age></person>`

	fmt.Println(xsdgate.ValidateString(schema, valid))
	fmt.Println(xsdgate.ValidateString(schema, invalid))
	// Output:
	// true
	// false
}

func ExampleSchemaParserContext_Compile() {
	ctx, err := xsdgate.NewSchemaParserContext(
		xsdgate.SchemaBytes("person.xsd", []byte(personSchema)),
		xsdgate.NewLoadOptions(),
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	schema, err := ctx.Compile()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("Schema compiled from", schema.Location())
	// Output: Schema compiled from person.xsd
}

func ExampleCompiledSchema_Check() {
	schema, err := xsdgate.LoadSchemaWithOptions(
		xsdgate.SchemaBytes("person.xsd", []byte(personSchema)),
		xsdgate.NewLoadOptions(),
	)
	if err != nil {
		fmt.Printf("Error loading schema: %v\n", err)
		return
	}

	doc, err := xsdgate.DefaultParser().ParseString(`<person xmlns="http://example.com/simple"><age>30</age></person>`)
	if err != nil {
		fmt.Printf("Error parsing document: %v\n", err)
		return
	}

	if err := schema.Check(doc); err != nil {
		kind, _ := errors.KindOf(err)
		fmt.Println("Document rejected:", kind)
		return
	}
	fmt.Println("Document is valid")
	// Output: Document rejected: validation
}
