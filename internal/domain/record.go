package domain

// Canonical device attribute names. Data sources translate their own
// attribute identifiers into these at the boundary.
const (
	AttrModelName      = "model_name"
	AttrNetworkAddress = "network_address"
	AttrModelTypeName  = "model_type_name"
	AttrDeviceType     = "device_type"
	AttrCondition      = "condition"
	AttrModelClass     = "model_class"
	AttrCollections    = "collections_model_name_string"
	AttrTopology       = "topology_model_name_string"
	AttrCommModes      = "ncm_potential_comm_modes"
)

// Record is the flat attribute set returned for one device
type Record map[string]string

// Clone returns a copy of the record
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Pop removes key from the record and returns its value
func (r Record) Pop(key string) (string, bool) {
	v, ok := r[key]
	if ok {
		delete(r, key)
	}
	return v, ok
}
