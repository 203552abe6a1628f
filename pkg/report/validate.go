package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/corvidlabs/noctua/pkg/state"
)

// ValidationError is returned when a model's structured output fails
// schema validation after every recovery attempt.
type ValidationError struct {
	SchemaName string
	Errors     []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed schema validation: %s", e.SchemaName, strings.Join(e.Errors, "; "))
}

// ParseReconReport validates raw against the ReconReport wire schema and
// converts it to internal form. raw may be exactly the structured JSON, or
// text a model wrapped in prose/code fences — RecoverJSON is tried first.
func ParseReconReport(raw []byte) (*state.ReconReport, error) {
	recovered, err := RecoverJSON(raw, reconReportSchema)
	if err != nil {
		return nil, err
	}
	var wire state.ReconReportWire
	if err := json.Unmarshal(recovered, &wire); err != nil {
		return nil, fmt.Errorf("recon report did not decode into the expected shape: %w", err)
	}
	return wire.ToInternal()
}

// ParseTestReport validates raw against the TestReport wire schema and
// converts it to internal form.
func ParseTestReport(raw []byte) (*state.TestReport, error) {
	recovered, err := RecoverJSON(raw, testReportSchema)
	if err != nil {
		return nil, err
	}
	var wire state.TestReportWire
	if err := json.Unmarshal(recovered, &wire); err != nil {
		return nil, fmt.Errorf("test report did not decode into the expected shape: %w", err)
	}
	return wire.ToInternal()
}

// RecoverJSON validates raw against schema. If raw as given does not
// validate, it tries to recover a JSON object embedded in surrounding
// prose/code fences (the common failure mode for structured output from an
// LLM) and re-validates that. Returns the bytes that validated, or a
// ValidationError naming every schema complaint from the final attempt.
func RecoverJSON(raw []byte, schema map[string]interface{}) ([]byte, error) {
	if errs := validateAgainst(raw, schema); len(errs) == 0 {
		return raw, nil
	}

	candidate := recoverJSONObject(string(raw))
	if candidate == "" {
		return nil, &ValidationError{SchemaName: "structured output", Errors: validateAgainst(raw, schema)}
	}

	if errs := validateAgainst([]byte(candidate), schema); len(errs) != 0 {
		return nil, &ValidationError{SchemaName: "structured output", Errors: errs}
	}
	return []byte(candidate), nil
}

func validateAgainst(raw []byte, schema map[string]interface{}) []string {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return errs
}

// recoverJSONObject strips a leading/trailing code fence and, failing
// that, locates the outermost {...} span by brace counting. Returns "" if
// nothing JSON-shaped could be found.
func recoverJSONObject(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var probe interface{}
	if json.Unmarshal([]byte(trimmed), &probe) == nil {
		return trimmed
	}

	start, end, ok := findJSONObject(trimmed)
	if !ok {
		return ""
	}
	return trimmed[start:end]
}

// findJSONObject locates the outermost {...} span in text by brace
// counting, tolerating braces inside string literals.
func findJSONObject(text string) (start, end int, ok bool) {
	depth := 0
	inString := false
	escaped := false
	start = -1
	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return start, i + 1, true
				}
			}
		}
	}
	return 0, 0, false
}
