package formschema

import (
	"github.com/goliatone/go-formschema/pkg/openapi"
	"github.com/goliatone/go-formschema/pkg/schema"
)

// NewLoader constructs the document loader used for schema, rules and values
// sources.
func NewLoader(options ...schema.LoaderOption) *schema.Loader {
	return schema.NewLoader(options...)
}

// NewImporter constructs an OpenAPI request body importer.
func NewImporter(options ...openapi.Option) *openapi.Importer {
	return openapi.New(options...)
}
