package codec

import (
	"fmt"
	"io"

	"spectrum-inventory/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec exports the inventory in the layout of Nornir's
// SimpleInventory files, combined into one document
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

type yamlInventory struct {
	Hosts    map[string]yamlHost  `yaml:"hosts"`
	Groups   map[string]yamlGroup `yaml:"groups"`
	Defaults domain.Defaults      `yaml:"defaults"`
}

type yamlHost struct {
	Hostname          string                              `yaml:"hostname"`
	Port              int                                 `yaml:"port"`
	Platform          string                              `yaml:"platform,omitempty"`
	Groups            []string                            `yaml:"groups,omitempty"`
	ConnectionOptions map[string]domain.ConnectionOptions `yaml:"connection_options,omitempty"`
	Data              map[string]any                      `yaml:"data,omitempty"`
}

type yamlGroup struct {
	Data map[string]any `yaml:"data,omitempty"`
}

// Export exports the inventory to YAML
func (c *YAMLCodec) Export(inv *domain.Inventory, w io.Writer) error {
	yi := yamlInventory{
		Hosts:    make(map[string]yamlHost, len(inv.Hosts)),
		Groups:   make(map[string]yamlGroup, len(inv.Groups)),
		Defaults: inv.Defaults,
	}

	for name, h := range inv.Hosts {
		yi.Hosts[name] = yamlHost{
			Hostname:          h.Hostname,
			Port:              h.Port,
			Platform:          h.Platform,
			Groups:            h.GroupNames(),
			ConnectionOptions: h.ConnectionOptions,
			Data:              h.Data,
		}
	}

	for name, g := range inv.Groups {
		yi.Groups[name] = yamlGroup{Data: g.Data}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yi); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
