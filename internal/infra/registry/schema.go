package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/catalog.schema.json
var catalogSchemaJSON []byte

const catalogSchemaURL = "catalog.schema.json"

func compileCatalogSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(catalogSchemaURL, bytes.NewReader(catalogSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add catalog schema: %w", err)
	}
	schema, err := compiler.Compile(catalogSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile catalog schema: %w", err)
	}
	return schema, nil
}

func validateAgainst(schema *jsonschema.Schema, raw json.RawMessage) error {
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return nil
}
