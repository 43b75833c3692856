// Package config loads the xsdgate command configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the file is decoded.
const (
	DefaultJobs      = 1
	DefaultCacheSize = 16
	DefaultLogLevel  = "info"
	DefaultLogFormat = "logfmt"
)

// ByteSize is a size in bytes. In YAML it accepts a plain integer or a
// humanized string such as "4MiB" or "10 MB".
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	raw := strings.TrimSpace(value.Value)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*b = ByteSize(n)
		return nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("parse size %q: %w", raw, err)
	}
	*b = ByteSize(n)
	return nil
}

// String renders the size in IEC units.
func (b ByteSize) String() string {
	if b < 0 {
		return strconv.FormatInt(int64(b), 10)
	}
	return humanize.IBytes(uint64(b))
}

// File mirrors the YAML configuration file. Command-line flags override
// every field.
type File struct {
	Schema          string   `yaml:"schema"`
	Concurrent      bool     `yaml:"concurrent"`
	Jobs            int      `yaml:"jobs"`
	CacheSize       int      `yaml:"cache_size"`
	MaxDocumentSize ByteSize `yaml:"max_document_size"`
	MaxDepth        int      `yaml:"max_depth"`
	MaxAttrs        int      `yaml:"max_attrs"`
	MaxTokenSize    ByteSize `yaml:"max_token_size"`
	LogLevel        string   `yaml:"log_level"`
	LogFormat       string   `yaml:"log_format"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Jobs:      DefaultJobs,
		CacheSize: DefaultCacheSize,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Load reads the file at path from fs and decodes it over Default. Unknown
// keys are rejected.
func Load(fs afero.Fs, path string) (File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return File{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (File, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func (f File) Validate() error {
	if f.Jobs < 1 {
		return fmt.Errorf("jobs must be >= 1, got %d", f.Jobs)
	}
	if f.CacheSize < 1 {
		return fmt.Errorf("cache_size must be >= 1, got %d", f.CacheSize)
	}
	if f.MaxDocumentSize < 0 {
		return errors.New("max_document_size must be >= 0")
	}
	if f.MaxDepth < 0 {
		return errors.New("max_depth must be >= 0")
	}
	if f.MaxAttrs < 0 {
		return errors.New("max_attrs must be >= 0")
	}
	if f.MaxTokenSize < 0 {
		return errors.New("max_token_size must be >= 0")
	}
	switch f.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", f.LogLevel)
	}
	switch f.LogFormat {
	case "logfmt", "json":
	default:
		return fmt.Errorf("log_format must be logfmt or json, got %q", f.LogFormat)
	}
	return nil
}
