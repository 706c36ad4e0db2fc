package spectrum

import (
	"fmt"
	"strings"

	"spectrum-inventory/internal/domain"
)

// Spectrum attribute IDs requested for every device
const (
	AttrIDModelName      = "0x1006e"
	AttrIDModelTypeName  = "0x10000"
	AttrIDModelClass     = "0x11ee8"
	AttrIDDeviceType     = "0x23000e"
	AttrIDNetworkAddress = "0x12d7f"
	AttrIDCondition      = "0x1000a"
	AttrIDCollections    = "0x12adb"
	AttrIDTopology       = "0x129e7"
	AttrIDCommModes      = "0x12beb"
)

// defaultAttributes lists the base attributes in request order
var defaultAttributes = []Attribute{
	{ID: AttrIDModelName, Name: domain.AttrModelName},
	{ID: AttrIDModelTypeName, Name: domain.AttrModelTypeName},
	{ID: AttrIDModelClass, Name: domain.AttrModelClass},
	{ID: AttrIDDeviceType, Name: domain.AttrDeviceType},
	{ID: AttrIDNetworkAddress, Name: domain.AttrNetworkAddress},
	{ID: AttrIDCondition, Name: domain.AttrCondition},
	{ID: AttrIDCollections, Name: domain.AttrCollections},
	{ID: AttrIDTopology, Name: domain.AttrTopology},
	{ID: AttrIDCommModes, Name: domain.AttrCommModes},
}

// Attribute pairs a Spectrum attribute ID with its canonical name. Name is
// empty for extra attributes requested without an alias.
type Attribute struct {
	ID   string
	Name string
}

// DefaultAttributes returns the base attribute set
func DefaultAttributes() []Attribute {
	out := make([]Attribute, len(defaultAttributes))
	copy(out, defaultAttributes)
	return out
}

// ParseAttribute parses "0x12345" or "0x12345=alias"
func ParseAttribute(s string) (Attribute, error) {
	id, alias, _ := strings.Cut(strings.TrimSpace(s), "=")
	id = normalizeID(strings.TrimSpace(id))
	if !isAttributeID(id) {
		return Attribute{}, fmt.Errorf("invalid attribute id %q", s)
	}
	return Attribute{ID: id, Name: strings.TrimSpace(alias)}, nil
}

// ParseAttributeMap builds an AttributeMap from "0x..[=alias]" strings
func ParseAttributeMap(extras []string) (*AttributeMap, error) {
	attrs := make([]Attribute, 0, len(extras))
	for _, s := range extras {
		a, err := ParseAttribute(s)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return NewAttributeMap(attrs...)
}

// AttributeMap translates Spectrum attribute IDs to canonical names
type AttributeMap struct {
	attrs []Attribute
	names map[string]string
}

// NewAttributeMap builds a map from the base attributes plus extras.
// Extras may not rename a mapped attribute or reuse a name already taken.
func NewAttributeMap(extra ...Attribute) (*AttributeMap, error) {
	m := &AttributeMap{
		attrs: DefaultAttributes(),
		names: make(map[string]string),
	}
	aliases := make(map[string]string)
	for _, a := range m.attrs {
		m.names[a.ID] = a.Name
		aliases[a.Name] = a.ID
	}

	for _, a := range extra {
		id := normalizeID(a.ID)
		if existing, ok := m.names[id]; ok {
			if a.Name != "" && a.Name != existing {
				return nil, fmt.Errorf("attribute %s is already mapped to %s", id, existing)
			}
			continue
		}
		if owner, taken := aliases[a.Name]; a.Name != "" && taken {
			return nil, fmt.Errorf("alias %s for attribute %s is already used by %s", a.Name, id, owner)
		}
		m.attrs = append(m.attrs, Attribute{ID: id, Name: a.Name})
		m.names[id] = a.Name
		if a.Name != "" {
			aliases[a.Name] = id
		}
	}

	return m, nil
}

// IDs returns the attribute IDs to request, in order
func (m *AttributeMap) IDs() []string {
	ids := make([]string, 0, len(m.attrs))
	for _, a := range m.attrs {
		ids = append(ids, a.ID)
	}
	return ids
}

// Attributes returns the mapped attributes, in request order
func (m *AttributeMap) Attributes() []Attribute {
	out := make([]Attribute, len(m.attrs))
	copy(out, m.attrs)
	return out
}

// Canonicalize converts a raw attribute set into a domain record. Known IDs
// are renamed, everything else passes through unchanged. A renamed ID wins
// over a raw key that already carries the same name.
func (m *AttributeMap) Canonicalize(raw map[string]string) domain.Record {
	rec := make(domain.Record, len(raw))
	for key, value := range raw {
		if m.names[normalizeID(key)] == "" {
			rec[key] = value
		}
	}
	for key, value := range raw {
		if name := m.names[normalizeID(key)]; name != "" {
			rec[name] = value
		}
	}
	return rec
}

func normalizeID(id string) string {
	if strings.HasPrefix(id, "0X") || strings.HasPrefix(id, "0x") {
		return strings.ToLower(id)
	}
	return id
}

func isAttributeID(id string) bool {
	if len(id) < 3 || !strings.HasPrefix(id, "0x") {
		return false
	}
	for _, c := range id[2:] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
