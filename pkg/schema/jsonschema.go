package schema

import (
	"github.com/invopop/jsonschema"
)

// JSONSchema describes FieldType as a string enum of the closed set.
func (FieldType) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(FieldTypes))
	for _, t := range FieldTypes {
		enum = append(enum, string(t))
	}
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        enum,
		Description: "Field type tag. Unknown tags are rejected.",
	}
}

// DocumentSchema returns the JSON Schema for schema documents in object form.
func DocumentSchema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{}
	doc := reflector.Reflect(Schema{})
	doc.Title = "Form schema"
	doc.Description = "Ordered sections of field descriptors."
	return doc
}
