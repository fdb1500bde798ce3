package extract

import (
	"google.golang.org/genai"

	"github.com/gbvolkov/shipment-data-maintenance-bot/pkg/shipment"
)

const schemaName = "Shipments"

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func objectSchema(fields []shipment.Field, extra map[string]any) map[string]any {
	props := make(map[string]any, len(fields)+len(extra))
	required := make([]string, 0, len(fields)+len(extra))
	for _, f := range fields {
		props[string(f)] = nullableString()
		required = append(required, string(f))
	}
	for k, v := range extra {
		props[k] = v
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// jsonSchema is the strict JSON schema sent with OpenAI requests. Every
// property is required and nullable, as strict mode demands.
func jsonSchema() map[string]any {
	procurement := objectSchema(shipment.ProcurementFields, nil)
	record := objectSchema(shipment.ShipmentFields, map[string]any{
		"procurements": map[string]any{
			"type":  []string{"array", "null"},
			"items": procurement,
		},
	})
	return objectSchema(nil, map[string]any{
		"shipments": map[string]any{
			"type":  "array",
			"items": record,
		},
	})
}

func genaiObject(fields []shipment.Field) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		s.Properties[string(f)] = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
		s.PropertyOrdering = append(s.PropertyOrdering, string(f))
	}
	return s
}

// genaiSchema mirrors jsonSchema for the Gemini API.
func genaiSchema() *genai.Schema {
	record := genaiObject(shipment.ShipmentFields)
	record.Properties["procurements"] = &genai.Schema{
		Type:     genai.TypeArray,
		Nullable: genai.Ptr(true),
		Items:    genaiObject(shipment.ProcurementFields),
	}
	record.PropertyOrdering = append(record.PropertyOrdering, "procurements")

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"shipments": {Type: genai.TypeArray, Items: record},
		},
		Required: []string{"shipments"},
	}
}
