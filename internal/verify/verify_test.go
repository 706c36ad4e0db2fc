package verify

import (
	"context"
	"errors"
	"sync"
	"testing"

	nmap "github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum-inventory/internal/domain"
)

type fakeScanner struct {
	states map[string]string
	err    error
}

func (f *fakeScanner) Scan(_ context.Context, targets []Target) ([]Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		results = append(results, Result{Host: t.Host, Address: t.Address, Port: t.Port, State: f.states[t.Address]})
	}
	return results, nil
}

type fakeKeys struct {
	mu    sync.Mutex
	calls []string
	fps   map[string]string
}

func (f *fakeKeys) Collect(_ context.Context, address string, _ int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, address)
	f.mu.Unlock()
	if fp, ok := f.fps[address]; ok {
		return fp, nil
	}
	return "", errors.New("handshake failed")
}

func testInventory() *domain.Inventory {
	inv := domain.NewInventory()
	for _, h := range []*domain.Host{
		domain.NewHost("sw2", "10.0.0.2", domain.PortTelnet),
		domain.NewHost("sw1", "10.0.0.1", domain.PortSSH),
		domain.NewHost("mx1", "10.0.0.3", domain.PortNETCONF),
		domain.NewHost("sw3", "10.0.0.4", domain.PortSSH),
	} {
		inv.Hosts[h.Name] = h
	}
	return inv
}

func TestTargets(t *testing.T) {
	got := Targets(testInventory())

	require.Len(t, got, 4)
	assert.Equal(t, Target{Host: "mx1", Address: "10.0.0.3", Port: domain.PortNETCONF}, got[0])
	assert.Equal(t, "sw1", got[1].Host)
	assert.Equal(t, "sw3", got[3].Host)
}

func TestVerify(t *testing.T) {
	scanner := &fakeScanner{states: map[string]string{
		"10.0.0.1": StateOpen,
		"10.0.0.2": StateOpen,
		"10.0.0.3": StateFiltered,
		"10.0.0.4": StateOpen,
	}}
	keys := &fakeKeys{fps: map[string]string{"10.0.0.1": "SHA256:abc"}}

	v := New(scanner, WithKeyCollector(keys), WithConcurrency(2))
	results, err := v.Verify(context.Background(), testInventory())
	require.NoError(t, err)
	require.Len(t, results, 4)

	byHost := make(map[string]Result)
	for _, r := range results {
		byHost[r.Host] = r
	}

	assert.Equal(t, "SHA256:abc", byHost["sw1"].Fingerprint)
	assert.NoError(t, byHost["sw1"].Err)
	assert.Empty(t, byHost["sw3"].Fingerprint)
	assert.Error(t, byHost["sw3"].Err)
	assert.Empty(t, byHost["sw2"].Fingerprint, "telnet hosts get no key collection")
	assert.False(t, byHost["mx1"].Reachable())

	assert.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.4"}, keys.calls)
	assert.Equal(t, "mx1", results[0].Host, "results are sorted by host")
}

type fakeSystem struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSystem) System(_ context.Context, address string) (*SystemInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, address)
	f.mu.Unlock()
	if address == "10.0.0.3" {
		return nil, errors.New("timeout")
	}
	return &SystemInfo{Name: "sys-" + address}, nil
}

func TestVerifyWithSystemCollector(t *testing.T) {
	scanner := &fakeScanner{states: map[string]string{
		"10.0.0.1": StateOpen,
		"10.0.0.2": StateDown,
		"10.0.0.3": StateFiltered,
		"10.0.0.4": StateClosed,
	}}
	system := &fakeSystem{}

	results, err := New(scanner, WithSystemCollector(system)).Verify(context.Background(), testInventory())
	require.NoError(t, err)

	byHost := make(map[string]Result)
	for _, r := range results {
		byHost[r.Host] = r
	}

	require.NotNil(t, byHost["sw1"].System)
	assert.Equal(t, "sys-10.0.0.1", byHost["sw1"].System.Name)
	assert.Nil(t, byHost["sw2"].System, "down hosts are not queried")
	assert.Error(t, byHost["mx1"].Err)
	assert.Nil(t, byHost["mx1"].System)
	assert.NotNil(t, byHost["sw3"].System, "closed management port does not prevent SNMP")

	assert.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.3", "10.0.0.4"}, system.calls)
}

func TestVerifyScanError(t *testing.T) {
	v := New(&fakeScanner{err: errors.New("nmap missing")})

	_, err := v.Verify(context.Background(), testInventory())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nmap missing")
}

func TestVerifyEmptyInventory(t *testing.T) {
	v := New(&fakeScanner{err: errors.New("must not be called")})

	results, err := v.Verify(context.Background(), domain.NewInventory())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMapResults(t *testing.T) {
	targets := []Target{
		{Host: "sw1", Address: "10.0.0.1", Port: 22},
		{Host: "sw2", Address: "10.0.0.2", Port: 22},
		{Host: "sw3", Address: "10.0.0.3", Port: 22},
		{Host: "sw4", Address: "10.0.0.4", Port: 22},
		{Host: "sw5", Address: "10.0.0.5", Port: 22},
	}

	run := &nmap.Run{
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.1", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 22, Protocol: "tcp", State: nmap.State{State: "open"}, Service: nmap.Service{Name: "ssh"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.2", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 22, Protocol: "tcp", State: nmap.State{State: "closed"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.3", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 22, Protocol: "tcp", State: nmap.State{State: "open|filtered"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "10.0.0.4", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "down"},
			},
		},
	}

	got := mapResults(run, targets)
	require.Len(t, got, 5)

	tests := []struct {
		host    string
		state   string
		service string
	}{
		{"sw1", StateOpen, "ssh"},
		{"sw2", StateClosed, ""},
		{"sw3", StateFiltered, ""},
		{"sw4", StateDown, ""},
		{"sw5", StateUnknown, ""},
	}
	for i, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.host, got[i].Host)
			assert.Equal(t, tt.state, got[i].State)
			assert.Equal(t, tt.service, got[i].Service)
		})
	}

	assert.True(t, got[0].Reachable())
}

func TestMapResultsNilRun(t *testing.T) {
	got := mapResults(nil, []Target{{Host: "sw1", Address: "10.0.0.1", Port: 22}})
	require.Len(t, got, 1)
	assert.Equal(t, StateUnknown, got[0].State)
}

func TestNewPortScannerOptions(t *testing.T) {
	s := NewPortScanner()
	assert.True(t, s.skipHostDiscovery)

	s = NewPortScanner(WithHostDiscovery(true), WithBinaryPath("/opt/nmap/bin/nmap"))
	assert.False(t, s.skipHostDiscovery)
	assert.Equal(t, "/opt/nmap/bin/nmap", s.binaryPath)
}
