package report

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema writes the JSON Schema of the report object, for GUI
// collaborators that validate reports before rendering them.
func Schema(w io.Writer) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper:                    mapSchemaType,
	}
	schema := reflector.Reflect(&Output{})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode report schema: %w", err)
	}
	return nil
}

var rawMessageType = reflect.TypeOf(json.RawMessage{})

// mapSchemaType keeps raw value passthroughs as "any JSON" instead of
// the base64 string a []byte would reflect to.
func mapSchemaType(t reflect.Type) *jsonschema.Schema {
	if t == rawMessageType {
		return &jsonschema.Schema{}
	}
	return nil
}
