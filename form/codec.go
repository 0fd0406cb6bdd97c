package form

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
)

func Marshal(a Application) ([]byte, error) {
	data, err := sonic.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal application: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data on top of Defaults. Keys missing from data keep
// their defaults and keys that are not part of Application are dropped.
func Unmarshal(data []byte) (Application, error) {
	a := Defaults()
	if err := sonic.Unmarshal(data, &a); err != nil {
		return Defaults(), fmt.Errorf("unmarshal application: %w", err)
	}
	a.Normalize()
	return a, nil
}

func JSONSchema() (string, error) {
	schema := jsonschema.Reflect(&Application{})
	schema.Title = "Puppy adoption application"
	schema.Description = "Multi-step adoption application: identity, preferences, household and agreements."
	schemaBytes, err := sonic.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return string(schemaBytes), nil
}
