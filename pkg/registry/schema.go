package registry

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// InputSchema describes the definition's parameters as a JSON schema object.
// A parameter's own schema, when present, is used as the base for its
// property before type, description, default and enum are applied.
func (d Definition) InputSchema() (*jsonschema.Schema, error) {
	properties := jsonschema.NewProperties()
	required := []string{}

	for _, param := range d.Parameters {
		prop, err := paramSchema(param)
		if err != nil {
			return nil, err
		}
		properties.Set(param.Name, prop)

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Description:          d.Description,
		Properties:           properties,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}, nil
}

func paramSchema(param Parameter) (*jsonschema.Schema, error) {
	prop := &jsonschema.Schema{}
	if len(param.Schema) > 0 {
		raw, err := json.Marshal(param.Schema)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode schema of parameter '%s'", param.Name)
		}
		if err := json.Unmarshal(raw, prop); err != nil {
			return nil, errors.Wrapf(err, "invalid schema for parameter '%s'", param.Name)
		}
	}

	if param.Type != "" {
		prop.Type = string(param.Type)
	}
	if param.Description != "" {
		prop.Description = param.Description
	}
	if param.Default != nil {
		prop.Default = param.Default
	}
	if len(param.Enum) > 0 {
		prop.Enum = param.Enum
	}

	return prop, nil
}
