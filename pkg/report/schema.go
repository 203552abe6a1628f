// Package report defines the JSON Schema contracts for the RECON and TEST
// structured outputs and validates model responses against them, including
// recovering a usable report from output a model wrapped in prose or a
// code fence (spec §4.1.1/§7).
package report

// reconReportSchema is the wire-form ReconReportWire contract the RECON
// stage's Synthesize phase is asked to produce.
var reconReportSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"url", "siteType", "pages", "antiBot", "suggestedStrategy", "sampleDataJson"},
	"properties": map[string]interface{}{
		"url":      map[string]interface{}{"type": "string"},
		"siteName": map[string]interface{}{"type": "string"},
		"siteType": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"static_html", "spa", "api_first", "hybrid", "unknown"},
		},
		"pages": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"url", "purpose", "formFields", "dataElements", "pagination"},
				"properties": map[string]interface{}{
					"url":     map[string]interface{}{"type": "string"},
					"purpose": map[string]interface{}{"type": "string", "enum": []interface{}{"search", "listing", "detail", "login", "other"}},
					"pagination": map[string]interface{}{
						"type":     "object",
						"required": []interface{}{"type", "nextLinkSelector", "urlParamName"},
						"properties": map[string]interface{}{
							"type":             map[string]interface{}{"type": "string"},
							"nextLinkSelector": map[string]interface{}{"type": "string"},
							"urlParamName":     map[string]interface{}{"type": "string"},
						},
					},
					"dataElements": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"formFields": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":     "object",
							"required": []interface{}{"name", "selector", "type", "required", "options"},
							"properties": map[string]interface{}{
								"name":     map[string]interface{}{"type": "string"},
								"selector": map[string]interface{}{"type": "string"},
								"type":     map[string]interface{}{"type": "string"},
								"required": map[string]interface{}{"type": "boolean"},
								"options":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
							},
						},
					},
				},
			},
		},
		"apiEndpoints": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url":    map[string]interface{}{"type": "string"},
					"method": map[string]interface{}{"type": "string"},
				},
			},
		},
		"suggestedStrategy": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"form_search", "listing", "api_direct", "browser_only"},
		},
		"antiBot": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"captcha", "cloudflare", "rateLimit", "requiresAuth"},
			"properties": map[string]interface{}{
				"captcha":      map[string]interface{}{"type": "boolean"},
				"cloudflare":   map[string]interface{}{"type": "boolean"},
				"rateLimit":    map[string]interface{}{"type": "boolean"},
				"requiresAuth": map[string]interface{}{"type": "boolean"},
			},
		},
		"sampleDataJson": map[string]interface{}{"type": "string"},
	},
}

// testReportSchema is the wire-form TestReportWire contract the TEST
// stage is asked to produce after running the generated scraper.
var testReportSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"success", "exitCode", "timedOut", "recordCount", "schemaErrors", "sampleRecordsJson", "fieldCoverage"},
	"properties": map[string]interface{}{
		"success":     map[string]interface{}{"type": "boolean"},
		"exitCode":    map[string]interface{}{"type": "integer"},
		"timedOut":    map[string]interface{}{"type": "boolean"},
		"recordCount": map[string]interface{}{"type": "integer", "minimum": 0},
		"durationMs":  map[string]interface{}{"type": "integer", "minimum": 0},
		"schemaErrors": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"path", "message"},
				"properties": map[string]interface{}{
					"path":    map[string]interface{}{"type": "string"},
					"message": map[string]interface{}{"type": "string"},
				},
			},
		},
		"sampleRecordsJson": map[string]interface{}{"type": "string"},
		"fieldCoverage": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": map[string]interface{}{"type": "integer"},
		},
		"stdout": map[string]interface{}{"type": "string"},
		"stderr": map[string]interface{}{"type": "string"},
	},
}

// ReconReportSchema returns the JSON Schema the RECON stage's structured
// output must validate against.
func ReconReportSchema() map[string]interface{} { return reconReportSchema }

// TestReportSchema returns the JSON Schema the TEST stage's structured
// output must validate against.
func TestReportSchema() map[string]interface{} { return testReportSchema }
