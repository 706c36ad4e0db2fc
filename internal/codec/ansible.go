package codec

import (
	"fmt"
	"io"

	"spectrum-inventory/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec handles Ansible inventory export
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansiblePlatforms maps platform identifiers to ansible_network_os values
var ansiblePlatforms = map[string]string{
	domain.PlatformIOS:       "cisco.ios.ios",
	domain.PlatformIOSTelnet: "cisco.ios.ios",
	domain.PlatformNXOS:      "cisco.nxos.nxos",
	domain.PlatformASA:       "cisco.asa.asa",
	domain.PlatformJunos:     "junipernetworks.junos.junos",
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroupDef `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost     `yaml:"hosts,omitempty"`
	Vars     map[string]interface{}     `yaml:"vars,omitempty"`
}

type ansibleGroupDef struct {
	Hosts map[string]ansibleHost `yaml:"hosts,omitempty"`
	Vars  map[string]interface{} `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string                 `yaml:"ansible_host,omitempty"`
	Vars        map[string]interface{} `yaml:",inline"`
}

// Export exports the inventory to Ansible inventory format. Hosts are
// listed under every group they belong to; hosts without groups go
// directly under all.
func (c *AnsibleCodec) Export(inv *domain.Inventory, w io.Writer) error {
	out := ansibleInventory{
		All: ansibleGroup{
			Children: make(map[string]ansibleGroupDef),
			Hosts:    make(map[string]ansibleHost),
		},
	}

	for name, g := range inv.Groups {
		out.All.Children[name] = ansibleGroupDef{
			Hosts: make(map[string]ansibleHost),
			Vars:  g.Data,
		}
	}

	for name, h := range inv.Hosts {
		host := c.hostVars(h)

		if len(h.Groups) == 0 {
			out.All.Hosts[name] = host
			continue
		}
		for _, g := range h.Groups {
			child, ok := out.All.Children[g.Name]
			if !ok {
				child = ansibleGroupDef{Hosts: make(map[string]ansibleHost)}
				out.All.Children[g.Name] = child
			}
			child.Hosts[name] = host
		}
	}

	if inv.Defaults.Username != "" {
		out.All.Vars = map[string]interface{}{"ansible_user": inv.Defaults.Username}
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}

	return nil
}

// hostVars converts a host to its Ansible variables
func (c *AnsibleCodec) hostVars(h *domain.Host) ansibleHost {
	host := ansibleHost{
		AnsibleHost: h.Hostname,
		Vars:        make(map[string]interface{}, len(h.Data)+3),
	}

	for key, value := range h.Data {
		host.Vars[key] = value
	}

	host.Vars["ansible_port"] = h.Port

	if networkOS, ok := ansiblePlatforms[h.Platform]; ok {
		host.Vars["ansible_network_os"] = networkOS
		host.Vars["ansible_connection"] = "ansible.netcommon.network_cli"
		if h.Platform == domain.PlatformJunos {
			host.Vars["ansible_connection"] = "ansible.netcommon.netconf"
		}
	}

	return host
}
