package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/spectrum"
)

// FileSource replays device records from disk. Supported formats are a
// saved Spectrum XML response (.xml) and a YAML list of records keyed by
// canonical names or Spectrum attribute IDs (.yaml, .yml).
type FileSource struct {
	path  string
	attrs *spectrum.AttributeMap
}

// NewFileSource creates a file source; attrs maps attribute IDs found in
// the file to canonical names
func NewFileSource(path string, attrs *spectrum.AttributeMap) *FileSource {
	return &FileSource{path: path, attrs: attrs}
}

// Name returns the source identifier
func (f *FileSource) Name() string {
	return "file:" + filepath.Base(f.path)
}

// Fetch reads and parses the file
func (f *FileSource) Fetch(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(f.path)); ext {
	case ".xml":
		return f.attrs.ParseDevices(file)
	case ".yaml", ".yml":
		var raw []map[string]string
		if err := yaml.NewDecoder(file).Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		records := make([]domain.Record, 0, len(raw))
		for _, r := range raw {
			records = append(records, f.attrs.Canonicalize(r))
		}
		return records, nil
	default:
		return nil, fmt.Errorf("unsupported record file extension %q", ext)
	}
}
