// Package schema renders a typedesc.TypeDescriptor's shape as JSON Schema,
// for IDE autocompletion and validation of the descriptor documents the
// CLI's --type-file/--types-dir flags load, via reflection over the struct
// itself. `cdrstream describe --json-schema` prints it.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/ddsx/cdrstream/pkg/typedesc"
)

// Reflect produces the JSON Schema document describing the wire shape of
// a serialized typedesc.TypeDescriptor (as loaded by the CLI's type files),
// not of the topic types it itself describes.
func Reflect() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&typedesc.TypeDescriptor{})
	s.Version = "https://json-schema.org/draft/2020-12/schema"
	s.Title = "CDR Type Descriptor"
	s.Description = "Serialized form of a cdrstream type descriptor"
	return s
}

// MarshalIndent renders Reflect's schema as indented JSON, the form
// `cdrstream describe --json-schema` prints.
func MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(Reflect(), "", "  ")
}
