package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
)

// System group OIDs queried from every device
const (
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"
	oidSysLocation = ".1.3.6.1.2.1.1.6.0"
)

var (
	errSNMPError          = errors.New("snmp agent returned error")
	errNoSNMPDataReturned = errors.New("no snmp data returned")
)

// SystemInfo holds the SNMPv2-MIB system group values of one device
type SystemInfo struct {
	Name     string `json:"sys_name,omitempty"`
	Descr    string `json:"sys_descr,omitempty"`
	ObjectID string `json:"sys_object_id,omitempty"`
	Location string `json:"sys_location,omitempty"`
}

// SystemCollector queries the system group of a device
type SystemCollector interface {
	System(ctx context.Context, address string) (*SystemInfo, error)
}

// SNMPCollector reads the system group over SNMP v2c
type SNMPCollector struct {
	community string
	port      uint16
	timeout   time.Duration
	retries   int
}

// NewSNMPCollector creates a v2c collector for community
func NewSNMPCollector(community string, timeout time.Duration) *SNMPCollector {
	return &SNMPCollector{
		community: community,
		port:      161,
		timeout:   timeout,
		retries:   1,
	}
}

// System queries sysName, sysDescr, sysObjectID and sysLocation
func (c *SNMPCollector) System(ctx context.Context, address string) (*SystemInfo, error) {
	client := &gosnmp.GoSNMP{
		Target:    address,
		Port:      c.port,
		Community: c.community,
		Version:   gosnmp.Version2c,
		Timeout:   c.timeout,
		Retries:   c.retries,
		Context:   ctx,
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("snmp connect %s: %w", address, err)
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysDescr, oidSysObjectID, oidSysName, oidSysLocation})
	if err != nil {
		return nil, fmt.Errorf("snmp get %s: %w", address, err)
	}
	if result.Error != gosnmp.NoError {
		return nil, fmt.Errorf("%w: %s", errSNMPError, result.Error)
	}

	info, ok := systemInfoFromPDUs(result.Variables)
	if !ok {
		return nil, errNoSNMPDataReturned
	}
	return info, nil
}

// systemInfoFromPDUs maps system group variables. It reports false when
// every variable was missing on the agent.
func systemInfoFromPDUs(variables []gosnmp.SnmpPDU) (*SystemInfo, bool) {
	info := &SystemInfo{}
	found := false

	for _, v := range variables {
		if v.Type == gosnmp.NoSuchObject || v.Type == gosnmp.NoSuchInstance {
			continue
		}
		found = true

		switch v.Name {
		case oidSysDescr:
			info.Descr = octetString(v)
		case oidSysName:
			info.Name = octetString(v)
		case oidSysLocation:
			info.Location = octetString(v)
		case oidSysObjectID:
			if v.Type == gosnmp.ObjectIdentifier {
				info.ObjectID, _ = v.Value.(string)
			}
		}
	}

	return info, found
}

func octetString(v gosnmp.SnmpPDU) string {
	if v.Type != gosnmp.OctetString {
		return ""
	}
	b, _ := v.Value.([]byte)
	return string(b)
}
