package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

// Format is the encoding of a catalog file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const catalogSchemaURL = "https://github.com/wricardo/mcp-training/trainprogram/catalog.schema.json"

//go:embed catalog.schema.json
var catalogSchemaSource string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(catalogSchemaURL, catalogSchemaSource)
	})
	return schema, schemaErr
}

// FormatFromPath picks the format from a file extension. Files without a
// recognised extension are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseCatalog decodes data, checks it against the catalog schema and then
// validates the levels semantically.
func ParseCatalog(data []byte, format Format) (*engine.Catalog, error) {
	raw := data
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: convert yaml: %v", ErrInvalidCatalog, err)
		}
		raw = converted
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", ErrInvalidCatalog, err)
	}

	s, err := catalogSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	var catalog engine.Catalog
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	if err := engine.ValidateCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return &catalog, nil
}

// LoadCatalogFile reads and validates a single catalog file
func LoadCatalogFile(path string) (*engine.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data, FormatFromPath(path))
}

// MarshalCatalog encodes catalog in the given format
func MarshalCatalog(catalog *engine.Catalog, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(catalog)
	}
	return json.MarshalIndent(catalog, "", "  ")
}
