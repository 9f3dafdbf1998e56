package results

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
)

// RenderCSV renders records as CSV: one column per motif node (sorted),
// one row per completed mapping. Rows are ordered by record key, matching
// ScanJob, so output is deterministic for a given result set.
func RenderCSV(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return []byte{}, nil
	}

	header := make([]string, 0, len(records[0].Candidate))
	for n := range records[0].Candidate {
		header = append(header, n)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	for _, rec := range records {
		row := make([]string, len(header))
		for i, n := range header {
			row[i] = rec.Candidate[n]
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("render csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJSON renders the completed mappings as a JSON array of objects.
func RenderJSON(records []Record) ([]byte, error) {
	mappings := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		mappings = append(mappings, rec.Candidate)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mappings); err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return buf.Bytes(), nil
}
