package state

import "encoding/json"

// parseRecords decodes a JSON array of objects, as produced by encodeRecords.
func parseRecords(raw string) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// encodeRecords encodes a slice of records as a JSON array string, "[]" for
// an empty or nil slice.
func encodeRecords(records []map[string]interface{}) (string, error) {
	if len(records) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
