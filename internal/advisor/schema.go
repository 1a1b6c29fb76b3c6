package advisor

import "github.com/eysh-app/eysh/internal/llm"

// TipsSchema is the JSON shape of a study tips response.
var TipsSchema = &llm.Schema{
	Name:        "study-tips",
	Description: "One short study tip per weak exam topic",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tips": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic": map[string]any{
							"type":        "string",
							"description": "The weak topic exactly as given",
						},
						"tip": map[string]any{
							"type":        "string",
							"description": "One or two sentences of concrete advice, in Mongolian",
						},
					},
					"required":             []any{"topic", "tip"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"tips"},
		"additionalProperties": false,
	},
}
