package xsdgate

import (
	"strings"
	"sync"
	"testing"
)

var (
	benchSchemaOnce sync.Once
	benchSchema     *CompiledSchema
	benchSchemaErr  error
)

func loadBenchSchema(tb testing.TB) *CompiledSchema {
	tb.Helper()

	benchSchemaOnce.Do(func() {
		benchSchema, benchSchemaErr = LoadSchemaWithOptions(SchemaBytes("order.xsd", []byte(orderSchemaXML)), NewLoadOptions())
	})
	if benchSchemaErr != nil {
		tb.Fatalf("load bench schema: %v", benchSchemaErr)
	}
	return benchSchema
}

func BenchmarkValidateBytes(b *testing.B) {
	schema := loadBenchSchema(b)
	xmlBytes := []byte(validOrderXML)

	b.ReportAllocs()
	b.SetBytes(int64(len(xmlBytes)))

	for b.Loop() {
		if !ValidateBytes(schema, xmlBytes) {
			b.Fatal("document rejected")
		}
	}
}

func BenchmarkValidateConcurrentChecks(b *testing.B) {
	schema, err := LoadSchemaWithOptions(SchemaBytes("order.xsd", []byte(orderSchemaXML)), NewLoadOptions().WithConcurrentChecks(true))
	if err != nil {
		b.Fatal(err)
	}
	xmlBytes := []byte(validOrderXML)

	b.ReportAllocs()
	b.SetBytes(int64(len(xmlBytes)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if !ValidateBytes(schema, xmlBytes) {
				b.Error("document rejected")
				return
			}
		}
	})
}

func BenchmarkParseLargeDocument(b *testing.B) {
	doc := []byte("<Orders>" + strings.Repeat(validOrderXML, 10_000) + "</Orders>")
	parser := DefaultParser()

	b.ReportAllocs()
	b.SetBytes(int64(len(doc)))

	for b.Loop() {
		if _, err := parser.Parse(doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoadSchema(b *testing.B) {
	src := SchemaBytes("order.xsd", []byte(orderSchemaXML))

	b.ReportAllocs()

	for b.Loop() {
		if _, err := LoadSchemaWithOptions(src, NewLoadOptions()); err != nil {
			b.Fatal(err)
		}
	}
}
