package codec

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"spectrum-inventory/internal/domain"
)

// ErrUnknownFormat is returned by Lookup for unregistered formats
var ErrUnknownFormat = errors.New("unknown export format")

// Exporter interface for exporting an inventory to various formats
type Exporter interface {
	Export(inv *domain.Inventory, w io.Writer) error
	Format() string
}

var exporters = map[string]func() Exporter{
	"json":              func() Exporter { return NewJSONCodec() },
	"yaml":              func() Exporter { return NewYAMLCodec() },
	"ansible-inventory": func() Exporter { return NewAnsibleCodec() },
}

// Lookup returns the exporter for a format identifier
func Lookup(format string) (Exporter, error) {
	newExporter, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	return newExporter(), nil
}

// Formats returns the registered format identifiers, sorted
func Formats() []string {
	formats := make([]string, 0, len(exporters))
	for f := range exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
