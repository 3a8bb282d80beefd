package textgen

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects T into a JSON schema map suitable for strict structured
// output: additionalProperties is disabled and every declared property is
// marked required, which is what OpenAI-compatible endpoints demand of
// response_format schemas. The same map marshals cleanly into a prompt for
// providers that lack native structured output.
func SchemaFor[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema, err := schemaToMap(reflector.Reflect(v))
	if err != nil {
		panic(err)
	}
	ensureStrictSchema(schema)
	return schema
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

const (
	propertiesKey           = "properties"
	additionalPropertiesKey = "additionalProperties"
	typeKey                 = "type"
	requiredKey             = "required"
	itemsKey                = "items"
)

// ensureStrictSchema walks the schema tree, closing every object to
// undeclared properties and requiring every declared one.
func ensureStrictSchema(schema map[string]interface{}) {
	if schemaType, ok := schema[typeKey].(string); ok && schemaType == "object" {
		schema[additionalPropertiesKey] = false

		if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
			var required []string
			for name := range properties {
				required = append(required, name)
			}
			if len(required) > 0 {
				schema[requiredKey] = required
			}
		}
	}

	if properties, ok := schema[propertiesKey].(map[string]interface{}); ok {
		for _, prop := range properties {
			if propMap, ok := prop.(map[string]interface{}); ok {
				ensureStrictSchema(propMap)
			}
		}
	}

	if items, ok := schema[itemsKey].(map[string]interface{}); ok {
		ensureStrictSchema(items)
	}

	if additional, ok := schema[additionalPropertiesKey].(map[string]interface{}); ok {
		ensureStrictSchema(additional)
	}
}
