package translate

import (
	"strings"

	"spectrum-inventory/internal/domain"
)

// commModePorts maps Spectrum NCM communication modes to management ports.
// Modes missing from the table have no supported CLI transport.
var commModePorts = map[string]int{
	"32": domain.PortSSH,
	"7":  domain.PortSSH,
	"3":  domain.PortTelnet,
}

var modelTypePlatforms = map[string]string{
	"Rtr_Cisco":  domain.PlatformIOS,
	"SwCiscoIOS": domain.PlatformIOS,
	"CiscoNXOS":  domain.PlatformNXOS,
	"SwCat45xx":  domain.PlatformIOS,
	"HubCat29xx": domain.PlatformIOS,
	"CiscoASA":   domain.PlatformASA,
}

var deviceTypePlatforms = map[string]string{
	"CiscoRT":   domain.PlatformIOS,
	"JuniperRT": domain.PlatformJunos,
}

// PortForCommMode returns the management port for a communication mode
func PortForCommMode(mode string) (int, bool) {
	port, ok := commModePorts[strings.TrimSpace(mode)]
	return port, ok
}

// PlatformFor infers the platform identifier from a model type name and a
// device type. Returns "" when nothing matches.
func PlatformFor(modelType, deviceType string) string {
	if platform, ok := modelTypePlatforms[modelType]; ok {
		return platform
	}
	if platform, ok := deviceTypePlatforms[deviceType]; ok {
		return platform
	}

	switch {
	case deviceType == "":
		return ""
	case strings.Contains(deviceType, "Cisco"):
		return domain.PlatformIOS
	case strings.Contains(deviceType, "Juniper"):
		return domain.PlatformJunos
	}

	return ""
}

// genericPlatform is the fallback identifier for devices whose platform
// could not be inferred
func genericPlatform(port int) string {
	if port == domain.PortTelnet {
		return domain.PlatformGenericTelnet
	}
	return domain.PlatformGeneric
}

// telnetConnectionOptions returns the plugin options Netmiko and NAPALM
// need to drive a Cisco IOS device over telnet
func telnetConnectionOptions() map[string]domain.ConnectionOptions {
	return map[string]domain.ConnectionOptions{
		"netmiko": {
			Extras: map[string]any{"device_type": domain.PlatformIOSTelnet},
		},
		"napalm": {
			Extras: map[string]any{
				"optional_args": map[string]any{"transport": "telnet"},
			},
		},
	}
}
