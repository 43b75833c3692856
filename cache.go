package xsdgate

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jacoelho/xsdgate/internal/engine"
)

type cacheEntry struct {
	schema  *CompiledSchema
	modTime time.Time
	size    int64
}

// SchemaCache keeps compiled schemas keyed by absolute path. An entry is
// recompiled when the file's modification time or size changes.
type SchemaCache struct {
	entries *lru.Cache[string, cacheEntry]
	opts    LoadOptions
	parser  *Parser
	// loads serializes cache misses so one file is compiled once.
	loads sync.Mutex
}

// NewSchemaCache creates a cache holding at most size compiled schemas.
func NewSchemaCache(size int, opts LoadOptions) (*SchemaCache, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("schema cache: %w", err)
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("schema cache: %w", err)
	}
	parser, err := NewParser(NewParserOptions().WithFS(opts.fs))
	if err != nil {
		return nil, fmt.Errorf("schema cache: %w", err)
	}
	return &SchemaCache{entries: entries, opts: opts, parser: parser}, nil
}

// Get returns the compiled schema for schemaPath, compiling it on a miss.
func (c *SchemaCache) Get(schemaPath string) (*CompiledSchema, error) {
	if c == nil {
		return nil, fmt.Errorf("schema cache: nil cache")
	}
	if err := engine.Ensure(); err != nil {
		return nil, fmt.Errorf("schema cache: %w", err)
	}
	abs, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("schema cache %s: %w", schemaPath, err)
	}

	m := engine.Metrics()
	m.CacheRequests.Inc()

	info, statErr := c.opts.filesystem().Stat(abs)
	if statErr == nil {
		if e, ok := c.entries.Get(abs); ok && e.fresh(info.ModTime(), info.Size()) {
			m.CacheHits.Inc()
			return e.schema, nil
		}
	}

	c.loads.Lock()
	defer c.loads.Unlock()

	if statErr == nil {
		if e, ok := c.entries.Get(abs); ok && e.fresh(info.ModTime(), info.Size()) {
			m.CacheHits.Inc()
			return e.schema, nil
		}
	}

	schema, err := LoadSchemaWithOptions(SchemaFile(abs), c.opts)
	if err != nil {
		c.entries.Remove(abs)
		return nil, err
	}
	if statErr == nil {
		c.entries.Add(abs, cacheEntry{schema: schema, modTime: info.ModTime(), size: info.Size()})
		level.Debug(engine.Logger()).Log("msg", "schema cached", "schema", abs, "entries", c.entries.Len())
	}
	return schema, nil
}

// Validate is the cached form of the package-level Validate.
func (c *SchemaCache) Validate(xmlPath, schemaPath string) (ok bool) {
	defer recoverFalse(&ok, xmlPath)
	schema, err := c.Get(schemaPath)
	if err != nil {
		level.Debug(engine.Logger()).Log("msg", "schema load failed, skipping document", "schema", schemaPath, "document", xmlPath, "err", err)
		return false
	}
	doc, err := c.parser.ParseFile(xmlPath)
	if err != nil {
		return parseFailed(err)
	}
	return check(schema, doc)
}

// Len returns the number of cached schemas.
func (c *SchemaCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every cached schema.
func (c *SchemaCache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (e cacheEntry) fresh(modTime time.Time, size int64) bool {
	return e.schema != nil && e.modTime.Equal(modTime) && e.size == size
}
