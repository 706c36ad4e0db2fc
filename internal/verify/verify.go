// Package verify reports whether the hosts of a loaded inventory answer on
// their management port. It never modifies the inventory.
//
// Port state comes from nmap. For SSH hosts the server host key is
// optionally collected so operators can pin it before automation runs.
package verify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"spectrum-inventory/internal/domain"
)

// Port states reported in Result.State. The first three are nmap's own.
const (
	StateOpen     = "open"
	StateClosed   = "closed"
	StateFiltered = "filtered"
	StateDown     = "down"
	StateUnknown  = "unknown"
)

// Target is one host address and port to check
type Target struct {
	Host    string
	Address string
	Port    int
}

// Result is the outcome of checking one target
type Result struct {
	Host        string      `json:"host"`
	Address     string      `json:"address"`
	Port        int         `json:"port"`
	State       string      `json:"state"`
	Service     string      `json:"service,omitempty"`
	Fingerprint string      `json:"fingerprint,omitempty"`
	System      *SystemInfo `json:"system,omitempty"`
	Err         error       `json:"-"`
}

// Reachable reports whether the management port answered
func (r Result) Reachable() bool {
	return r.State == StateOpen
}

// Scanner reports the port state of each target
type Scanner interface {
	Scan(ctx context.Context, targets []Target) ([]Result, error)
}

// KeyCollector returns the SHA256 host key fingerprint of an SSH server
type KeyCollector interface {
	Collect(ctx context.Context, address string, port int) (string, error)
}

// Targets returns one target per host, sorted by host name
func Targets(inv *domain.Inventory) []Target {
	targets := make([]Target, 0, len(inv.Hosts))
	for _, name := range inv.HostNames() {
		h := inv.Hosts[name]
		targets = append(targets, Target{Host: name, Address: h.Hostname, Port: h.Port})
	}
	return targets
}

// Verifier runs the scanner and, when configured, the host key collector
type Verifier struct {
	scanner     Scanner
	keys        KeyCollector
	system      SystemCollector
	concurrency int
	logger      zerolog.Logger
}

// Option configures a Verifier
type Option func(*Verifier)

// WithKeyCollector enables host key collection for open SSH ports
func WithKeyCollector(kc KeyCollector) Option {
	return func(v *Verifier) {
		v.keys = kc
	}
}

// WithSystemCollector enables SNMP system group collection for hosts that
// were not reported down
func WithSystemCollector(sc SystemCollector) Option {
	return func(v *Verifier) {
		v.system = sc
	}
}

// WithConcurrency limits parallel per-host collections
func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// New creates a verifier backed by scanner
func New(scanner Scanner, opts ...Option) *Verifier {
	v := &Verifier{
		scanner:     scanner,
		concurrency: 8,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks every host in inv. Results are sorted by host name.
func (v *Verifier) Verify(ctx context.Context, inv *domain.Inventory) ([]Result, error) {
	targets := Targets(inv)
	if len(targets) == 0 {
		return nil, nil
	}

	results, err := v.scanner.Scan(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("port scan: %w", err)
	}

	if v.keys != nil || v.system != nil {
		v.collect(ctx, results)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Host < results[j].Host })

	open := 0
	for _, r := range results {
		if r.Reachable() {
			open++
		}
	}
	v.logger.Info().
		Int("hosts", len(results)).
		Int("reachable", open).
		Msg("Verification complete")

	return results, nil
}

func (v *Verifier) collect(ctx context.Context, results []Result) {
	sem := make(chan struct{}, v.concurrency)
	var wg sync.WaitGroup

	for i := range results {
		r := &results[i]
		wantKey := v.keys != nil && r.Port == domain.PortSSH && r.Reachable()
		wantSystem := v.system != nil && r.State != StateDown
		if !wantKey && !wantSystem {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var errs []error
			if wantKey {
				fp, err := v.keys.Collect(ctx, r.Address, r.Port)
				if err != nil {
					v.logger.Debug().Err(err).Str("host", r.Host).Msg("Host key collection failed")
					errs = append(errs, err)
				}
				r.Fingerprint = fp
			}
			if wantSystem {
				info, err := v.system.System(ctx, r.Address)
				if err != nil {
					v.logger.Debug().Err(err).Str("host", r.Host).Msg("SNMP system query failed")
					errs = append(errs, err)
				}
				r.System = info
			}
			r.Err = errors.Join(errs...)
		}()
	}

	wg.Wait()
}
