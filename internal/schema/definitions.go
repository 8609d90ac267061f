package schema

// SymptomFile describes a local intake record: an object of symptom values
// plus an optional week. Any value type is allowed; values other than 1 or
// true read as not reported. The week itself is checked by the intake
// adapter so it can report a precise error.
var SymptomFile = &Schema{
	Name: "symptom-file",
	Definition: map[string]any{
		"type": "object",
	},
}

// RemoteIntake describes the symptom endpoint response. Presence of the
// fields is checked by the adapter; the schema fixes their types.
var RemoteIntake = &Schema{
	Name: "remote-intake",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symptoms": map[string]any{
				"type":                 []any{"object", "null"},
				"additionalProperties": map[string]any{"type": []any{"boolean", "null"}},
			},
			"week": map[string]any{
				"type": []any{"number", "null"},
			},
		},
	},
}

// ModelBlob describes a persisted nearest-neighbour model.
var ModelBlob = &Schema{
	Name: "knn-model",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"version", "k", "features", "labels"},
		"properties": map[string]any{
			"version": map[string]any{"type": "integer", "const": 1},
			"k":       map[string]any{"type": "integer", "minimum": 1},
			"features": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "array",
					"minItems": 2,
					"maxItems": 2,
					"items":    map[string]any{"type": "number"},
				},
			},
			"labels": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "string", "minLength": 1},
			},
		},
	},
}
