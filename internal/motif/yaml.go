package motif

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML builds a motif from a YAML node/edge list document.
// Parse failures and structural problems both surface as MalformedMotifError.
func ParseYAML(data []byte) (*Motif, error) {
	var d Doc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, &MalformedMotifError{Message: fmt.Sprintf("yaml: %v", err)}
	}
	return FromDoc(d)
}

// LoadFile builds a motif from a source file, dispatching on extension:
// .cue is compiled through the CUE frontend, everything else is treated as
// a YAML node/edge list.
func LoadFile(path string) (*Motif, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read motif source: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return ParseCUE(path, data)
	}
	return ParseYAML(data)
}
