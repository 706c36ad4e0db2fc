package domain

import "sort"

// Platform identifiers understood by the downstream connection plugins
const (
	PlatformIOS           = "ios"
	PlatformIOSTelnet     = "cisco_ios_telnet"
	PlatformNXOS          = "nxos_ssh"
	PlatformASA           = "cisco_asa"
	PlatformJunos         = "junos"
	PlatformGeneric       = "generic"
	PlatformGenericTelnet = "generic_telnet"
)

// Management ports
const (
	PortSSH     = 22
	PortTelnet  = 23
	PortNETCONF = 830
)

// ConnectionOptions holds per-plugin connection overrides for a host
type ConnectionOptions struct {
	Hostname string         `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Port     int            `json:"port,omitempty" yaml:"port,omitempty"`
	Username string         `json:"username,omitempty" yaml:"username,omitempty"`
	Password string         `json:"password,omitempty" yaml:"password,omitempty"`
	Platform string         `json:"platform,omitempty" yaml:"platform,omitempty"`
	Extras   map[string]any `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// Host represents a managed device ready to be connected to
type Host struct {
	Name     string   `json:"name" yaml:"-"`
	Hostname string   `json:"hostname" yaml:"hostname"` // network address
	Port     int      `json:"port" yaml:"port"`
	Platform string   `json:"platform,omitempty" yaml:"platform,omitempty"`
	Groups   []*Group `json:"-" yaml:"-"`

	ConnectionOptions map[string]ConnectionOptions `json:"connection_options,omitempty" yaml:"connection_options,omitempty"`
	Data              map[string]any               `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewHost creates a host with initialized maps
func NewHost(name, hostname string, port int) *Host {
	return &Host{
		Name:              name,
		Hostname:          hostname,
		Port:              port,
		ConnectionOptions: make(map[string]ConnectionOptions),
		Data:              make(map[string]any),
	}
}

// GroupNames returns the names of the groups this host belongs to, sorted
func (h *Host) GroupNames() []string {
	names := make([]string, 0, len(h.Groups))
	for _, g := range h.Groups {
		names = append(names, g.Name)
	}
	sort.Strings(names)
	return names
}

// HasGroup reports whether the host is a member of the named group
func (h *Host) HasGroup(name string) bool {
	for _, g := range h.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// GetDataString gets a data value as a string
func (h *Host) GetDataString(key string) string {
	if h.Data == nil {
		return ""
	}
	if s, ok := h.Data[key].(string); ok {
		return s
	}
	return ""
}

// Group is a named bucket of hosts
type Group struct {
	Name string         `json:"name" yaml:"-"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewGroup creates an empty group
func NewGroup(name string) *Group {
	return &Group{
		Name: name,
		Data: make(map[string]any),
	}
}
