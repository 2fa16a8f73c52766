package gemini

// responseSchema constrains generateContent output to the ClipData
// shape. Gemini's structured output uses OpenAPI-style type names.
var responseSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"videoFile": map[string]interface{}{"type": "STRING"},
		"hookTitle": map[string]interface{}{
			"type": "OBJECT",
			"properties": map[string]interface{}{
				"ja": map[string]interface{}{"type": "STRING"},
				"en": map[string]interface{}{"type": "STRING"},
			},
			"required": []string{"ja", "en"},
		},
		"clip": map[string]interface{}{
			"type": "OBJECT",
			"properties": map[string]interface{}{
				"startTime": map[string]interface{}{"type": "NUMBER"},
				"endTime":   map[string]interface{}{"type": "NUMBER"},
			},
			"required": []string{"startTime", "endTime"},
		},
		"subtitles": map[string]interface{}{
			"type": "ARRAY",
			"items": map[string]interface{}{
				"type": "OBJECT",
				"properties": map[string]interface{}{
					"startTime": map[string]interface{}{"type": "NUMBER"},
					"endTime":   map[string]interface{}{"type": "NUMBER"},
					"en":        map[string]interface{}{"type": "STRING"},
					"ja":        map[string]interface{}{"type": "STRING"},
					"highlights": map[string]interface{}{
						"type":  "ARRAY",
						"items": map[string]interface{}{"type": "STRING"},
					},
				},
				"required": []string{"startTime", "endTime", "en", "ja", "highlights"},
			},
		},
		"vocabCards": map[string]interface{}{
			"type": "ARRAY",
			"items": map[string]interface{}{
				"type": "OBJECT",
				"properties": map[string]interface{}{
					"triggerTime": map[string]interface{}{"type": "NUMBER"},
					"duration":    map[string]interface{}{"type": "NUMBER"},
					"category":    map[string]interface{}{"type": "STRING"},
					"phrase":      map[string]interface{}{"type": "STRING"},
					"literal":     map[string]interface{}{"type": "STRING"},
					"nuance":      map[string]interface{}{"type": "STRING"},
				},
				"required": []string{"triggerTime", "duration", "category", "phrase", "literal", "nuance"},
			},
		},
	},
	"required": []string{"videoFile", "hookTitle", "clip", "subtitles", "vocabCards"},
}
