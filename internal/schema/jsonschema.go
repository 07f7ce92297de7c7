// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import "encoding/json"

const jsonSchemaDialect = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema renders the document model as an indented JSON Schema. Every
// object sets additionalProperties to false and every leaf admits null.
func JSONSchema() ([]byte, error) {
	root := schemaFor(extractionOutputSpec, false)
	root["$schema"] = jsonSchemaDialect
	root["title"] = "ExtractionOutput"
	return json.MarshalIndent(root, "", "  ")
}

func schemaFor(s *spec, nullable bool) map[string]any {
	out := map[string]any{}
	if s.description != "" {
		out["description"] = s.description
	}

	typ := func(name string) any {
		if nullable {
			return []string{name, "null"}
		}
		return name
	}

	switch s.kind {
	case kindString:
		out["type"] = typ("string")
	case kindInteger:
		out["type"] = typ("integer")
		if s.min != nil {
			out["minimum"] = *s.min
		}
		if s.max != nil {
			out["maximum"] = *s.max
		}
	case kindNumber:
		out["type"] = typ("number")
	case kindBoolean:
		out["type"] = typ("boolean")
	case kindEnum:
		values := make([]any, 0, len(s.enum)+1)
		for _, v := range s.enum {
			values = append(values, v)
		}
		if nullable {
			values = append(values, nil)
		}
		out["enum"] = values
	case kindArray:
		out["type"] = typ("array")
		out["items"] = schemaFor(s.items, false)
	case kindOpenMap:
		out["type"] = typ("object")
	case kindObject:
		out["type"] = typ("object")
		props := make(map[string]any, len(s.fields))
		var required []string
		for _, f := range s.fields {
			props[f.name] = schemaFor(f.spec, !f.required)
			if f.required {
				required = append(required, f.name)
			}
		}
		out["properties"] = props
		out["additionalProperties"] = false
		if len(required) > 0 {
			out["required"] = required
		}
	}
	return out
}
