package verify

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/rs/zerolog"
)

// PortScanner checks management ports with nmap
type PortScanner struct {
	timeout           time.Duration
	skipHostDiscovery bool
	binaryPath        string
	logger            zerolog.Logger
}

// ScannerOption is a functional option for configuring PortScanner
type ScannerOption func(*PortScanner)

// WithScanTimeout bounds each nmap run
func WithScanTimeout(d time.Duration) ScannerOption {
	return func(s *PortScanner) {
		s.timeout = d
	}
}

// WithHostDiscovery enables nmap host discovery (ping scan) before the port check.
// Disabled by default because network gear often drops ICMP.
func WithHostDiscovery(enabled bool) ScannerOption {
	return func(s *PortScanner) {
		s.skipHostDiscovery = !enabled
	}
}

// WithBinaryPath sets the nmap executable
func WithBinaryPath(path string) ScannerOption {
	return func(s *PortScanner) {
		s.binaryPath = path
	}
}

// WithScanLogger sets the logger
func WithScanLogger(logger zerolog.Logger) ScannerOption {
	return func(s *PortScanner) {
		s.logger = logger
	}
}

// NewPortScanner creates an nmap-backed scanner
func NewPortScanner(opts ...ScannerOption) *PortScanner {
	s := &PortScanner{
		timeout:           2 * time.Minute,
		skipHostDiscovery: true,
		logger:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one nmap scan per distinct port. Targets that share a port
// are scanned together.
func (s *PortScanner) Scan(ctx context.Context, targets []Target) ([]Result, error) {
	byPort := make(map[int][]Target)
	for _, t := range targets {
		byPort[t.Port] = append(byPort[t.Port], t)
	}

	ports := make([]int, 0, len(byPort))
	for p := range byPort {
		ports = append(ports, p)
	}
	sort.Ints(ports)

	results := make([]Result, 0, len(targets))
	for _, port := range ports {
		run, err := s.run(ctx, port, byPort[port])
		if err != nil {
			return nil, err
		}
		results = append(results, mapResults(run, byPort[port])...)
	}
	return results, nil
}

func (s *PortScanner) run(ctx context.Context, port int, targets []Target) (*nmap.Run, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	addrs := make([]string, 0, len(targets))
	seen := make(map[string]bool)
	for _, t := range targets {
		if !seen[t.Address] {
			seen[t.Address] = true
			addrs = append(addrs, t.Address)
		}
	}

	opts := []nmap.Option{
		nmap.WithTargets(addrs...),
		nmap.WithPorts(strconv.Itoa(port)),
	}
	if s.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}
	if s.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(s.binaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	s.logger.Debug().Int("port", port).Int("targets", len(addrs)).Msg("Starting nmap scan")
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan of port %d failed: %w", port, err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.logger.Warn().Strs("warnings", *warnings).Int("port", port).Msg("nmap reported warnings")
	}
	return result, nil
}

// mapResults matches nmap hosts back to targets by address. Targets that
// nmap did not report are StateUnknown.
func mapResults(run *nmap.Run, targets []Target) []Result {
	type observed struct {
		state   string
		service string
	}
	seen := make(map[string]map[int]observed)

	if run != nil {
		for _, host := range run.Hosts {
			ports := make(map[int]observed)
			for _, p := range host.Ports {
				ports[int(p.ID)] = observed{state: p.State.State, service: p.Service.Name}
			}
			down := host.Status.State != "" && host.Status.State != "up"

			for _, addr := range host.Addresses {
				if down {
					seen[addr.Addr] = nil
					continue
				}
				seen[addr.Addr] = ports
			}
		}
	}

	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		r := Result{Host: t.Host, Address: t.Address, Port: t.Port, State: StateUnknown}

		ports, ok := seen[t.Address]
		switch {
		case !ok:
		case ports == nil:
			r.State = StateDown
		default:
			if p, found := ports[t.Port]; found {
				r.State = normalizeState(p.state)
				r.Service = p.service
			}
		}
		results = append(results, r)
	}
	return results
}

// normalizeState folds nmap's compound states ("open|filtered") into
// filtered
func normalizeState(state string) string {
	switch state {
	case StateOpen, StateClosed, StateFiltered:
		return state
	case "open|filtered", "closed|filtered", "unfiltered":
		return StateFiltered
	case "":
		return StateUnknown
	default:
		return state
	}
}
