// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package collectors

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONRecordCollector reads a JSON document whose root is an object
// (nested objects and arrays are kept as parsed) off disk and exposes it
// as a single collected object whose "json_data" field is the parsed
// record_data tree — the executor's dot-path walking does the rest.
type JSONRecordCollector struct{}

// Collect expects a "path" parameter naming a JSON file.
func (JSONRecordCollector) Collect(params map[string]string) ([]map[string]any, error) {
	path, ok := params["path"]
	if !ok || path == "" {
		return nil, fmt.Errorf("collectors: json_record collector requires a \"path\" field")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("collectors: read %q: %w", path, err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("collectors: parse %q: %w", path, err)
	}
	record, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("collectors: %q does not contain a JSON object at its root", path)
	}
	return []map[string]any{{
		"path":      path,
		"json_data": record,
	}}, nil
}
