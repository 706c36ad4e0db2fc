package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"spectrum-inventory/internal/domain"
)

// JSONCodec handles JSON export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

type jsonHost struct {
	*domain.Host
	Groups []string `json:"groups"`
}

type jsonInventory struct {
	Hosts    map[string]jsonHost      `json:"hosts"`
	Groups   map[string]*domain.Group `json:"groups"`
	Defaults domain.Defaults          `json:"defaults"`
}

// Export exports the inventory to JSON. Group memberships are written as
// group names.
func (c *JSONCodec) Export(inv *domain.Inventory, w io.Writer) error {
	out := jsonInventory{
		Hosts:    make(map[string]jsonHost, len(inv.Hosts)),
		Groups:   inv.Groups,
		Defaults: inv.Defaults,
	}
	for name, h := range inv.Hosts {
		out.Hosts[name] = jsonHost{Host: h, Groups: h.GroupNames()}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
