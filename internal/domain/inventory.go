package domain

import "sort"

// Hosts maps host name to host
type Hosts map[string]*Host

// Groups maps group name to group
type Groups map[string]*Group

// Defaults are values applied to every host unless the host overrides them
type Defaults struct {
	Username          string                       `json:"username,omitempty" yaml:"username,omitempty"`
	Password          string                       `json:"password,omitempty" yaml:"password,omitempty"`
	ConnectionOptions map[string]ConnectionOptions `json:"connection_options,omitempty" yaml:"connection_options,omitempty"`
	Data              map[string]any               `json:"data,omitempty" yaml:"data,omitempty"`
}

// Inventory is the complete set of hosts and groups produced by one load
type Inventory struct {
	Hosts    Hosts    `json:"hosts"`
	Groups   Groups   `json:"groups"`
	Defaults Defaults `json:"defaults"`
}

// NewInventory creates an empty inventory with initialized maps
func NewInventory() *Inventory {
	return &Inventory{
		Hosts:  make(Hosts),
		Groups: make(Groups),
	}
}

// GetHost returns a host by name, or nil if not found
func (i *Inventory) GetHost(name string) *Host {
	return i.Hosts[name]
}

// GetOrCreateGroup returns the named group, creating it on first use
func (g Groups) GetOrCreateGroup(name string) *Group {
	if existing, ok := g[name]; ok {
		return existing
	}
	group := NewGroup(name)
	g[name] = group
	return group
}

// HostNames returns all host names, sorted
func (i *Inventory) HostNames() []string {
	names := make([]string, 0, len(i.Hosts))
	for name := range i.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupNames returns all group names, sorted
func (i *Inventory) GroupNames() []string {
	names := make([]string, 0, len(i.Groups))
	for name := range i.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the hosts that belong to the named group, sorted by name
func (i *Inventory) Children(group string) []*Host {
	var hosts []*Host
	for _, name := range i.HostNames() {
		if h := i.Hosts[name]; h.HasGroup(group) {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// Filter returns a new inventory holding only the hosts for which keep
// returns true. Groups and defaults are shared with the receiver.
func (i *Inventory) Filter(keep func(*Host) bool) *Inventory {
	filtered := &Inventory{
		Hosts:    make(Hosts),
		Groups:   i.Groups,
		Defaults: i.Defaults,
	}
	for name, h := range i.Hosts {
		if keep(h) {
			filtered.Hosts[name] = h
		}
	}
	return filtered
}
