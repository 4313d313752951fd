package cards

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// readRecords loads card records from a file, choosing the decoder by extension.
func readRecords(path string) ([]json.RawMessage, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return readJSON(path)
	case ".yaml", ".yml":
		return readYAML(path)
	case ".xlsx":
		return readSpreadsheet(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func readJSON(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s must hold a JSON array: %v", ErrInvalidRecord, filepath.Base(path), err)
	}
	return records, nil
}

func readYAML(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var docs []map[string]any
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s must hold a list of mappings: %v", ErrInvalidRecord, filepath.Base(path), err)
	}
	return marshalRecords(docs)
}

// readSpreadsheet reads the first sheet. The first row names the fields,
// every following non-blank row is one card.
func readSpreadsheet(path string) ([]json.RawMessage, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrInvalidRecord, filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []json.RawMessage{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	docs := make([]map[string]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		doc := make(map[string]any)
		for i, cell := range row {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell != "" {
				doc[headers[i]] = cell
			}
		}
		if len(doc) > 0 {
			docs = append(docs, doc)
		}
	}
	return marshalRecords(docs)
}

func marshalRecords(docs []map[string]any) ([]json.RawMessage, error) {
	records := make([]json.RawMessage, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("%w: record %d is empty", ErrInvalidRecord, i)
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i, err)
		}
		records = append(records, raw)
	}
	return records, nil
}
