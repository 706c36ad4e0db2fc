package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum-inventory/internal/verify"
)

type stubScanner struct{}

// Scan reports mx1 filtered and every other host open
func (stubScanner) Scan(_ context.Context, targets []verify.Target) ([]verify.Result, error) {
	results := make([]verify.Result, 0, len(targets))
	for _, tg := range targets {
		state := verify.StateOpen
		if tg.Host == "mx1" {
			state = verify.StateFiltered
		}
		results = append(results, verify.Result{Host: tg.Host, Address: tg.Address, Port: tg.Port, State: state})
	}
	return results, nil
}

type stubKeys struct{}

func (stubKeys) Collect(context.Context, string, int) (string, error) {
	return "SHA256:c3R1Yi1rZXk", nil
}

type stubSystem struct{}

func (stubSystem) System(_ context.Context, address string) (*verify.SystemInfo, error) {
	return &verify.SystemInfo{Name: "sys-" + address}, nil
}

// verifyBackends records how runVerify built its collectors
type verifyBackends struct {
	keyUser    string
	keyTimeout time.Duration
	community  string
	keys       bool
	system     bool
}

func stubVerifyBackends(t *testing.T) *verifyBackends {
	t.Helper()
	origScanner, origKeys, origSystem := newScanner, newKeyCollector, newSystemCollector
	t.Cleanup(func() {
		newScanner, newKeyCollector, newSystemCollector = origScanner, origKeys, origSystem
	})

	b := &verifyBackends{}
	newScanner = func(...verify.ScannerOption) verify.Scanner { return stubScanner{} }
	newKeyCollector = func(timeout time.Duration, user string) verify.KeyCollector {
		b.keys, b.keyUser, b.keyTimeout = true, user, timeout
		return stubKeys{}
	}
	newSystemCollector = func(community string, _ time.Duration) verify.SystemCollector {
		b.system, b.community = true, community
		return stubSystem{}
	}
	return b
}

type reportRow struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	State       string `json:"state"`
	Fingerprint string `json:"fingerprint"`
	System      *struct {
		Name string `json:"sys_name"`
	} `json:"system"`
	Error string `json:"error"`
}

func TestRunVerifyTable(t *testing.T) {
	b := stubVerifyBackends(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"verify", "-config", writeTestConfig(t), "-file", filepath.Join("testdata", "devices.xml"),
	}, &out)
	require.NoError(t, err)

	assert.False(t, b.keys)
	assert.False(t, b.system)

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Regexp(t, `^HOST\s+ADDRESS\s+PORT\s+STATE\s+SYSNAME\s+FINGERPRINT$`, string(lines[0]))
	assert.Regexp(t, `^mx1\s+10\.0\.0\.2\s+830\s+filtered\s+-`, string(lines[1]))
	assert.Regexp(t, `^sw1\s+10\.0\.0\.1\s+23\s+open\s+-`, string(lines[2]))
}

func TestRunVerifyFlagOverrides(t *testing.T) {
	b := stubVerifyBackends(t)
	devices := filepath.Join(t.TempDir(), "devices.xml")
	writeDevices(t, devices, deviceModel("fw1", "10.0.0.9", "Host_Device", "32", "edge"))

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"verify",
		"-config", writeTestConfig(t, "verify:\n  host_keys: false\n  snmp_community: public\n"),
		"-file", devices,
		"-host-keys",
		"-snmp-community", "private",
		"-timeout", "2s",
		"-json",
	}, &out)
	require.NoError(t, err)

	assert.True(t, b.keys)
	assert.Equal(t, "netops", b.keyUser)
	assert.Equal(t, 2*time.Second, b.keyTimeout)
	assert.True(t, b.system)
	assert.Equal(t, "private", b.community)

	var rows []reportRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 3)

	byHost := make(map[string]reportRow, len(rows))
	for _, r := range rows {
		byHost[r.Host] = r
	}
	assert.Equal(t, 22, byHost["fw1"].Port)
	assert.Equal(t, "SHA256:c3R1Yi1rZXk", byHost["fw1"].Fingerprint)
	assert.Empty(t, byHost["sw1"].Fingerprint, "telnet hosts get no key collection")
	require.NotNil(t, byHost["mx1"].System)
	assert.Equal(t, "sys-10.0.0.2", byHost["mx1"].System.Name)
	assert.Empty(t, byHost["fw1"].Error)
}

func TestRunVerifyConfigDisablesCollectors(t *testing.T) {
	b := stubVerifyBackends(t)

	err := run(context.Background(), []string{
		"verify",
		"-config", writeTestConfig(t, "verify:\n  host_keys: true\n  snmp_community: public\n"),
		"-file", filepath.Join("testdata", "devices.xml"),
		"-host-keys=false",
		"-snmp-community", "",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.False(t, b.keys)
	assert.False(t, b.system)
}

func TestRunVerifyReportDestination(t *testing.T) {
	stubVerifyBackends(t)
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "hosts.yaml")
	reportPath := filepath.Join(dir, "report.txt")
	cfg := writeTestConfig(t, "export:\n  output: "+exportPath+"\n")

	t.Run("stdout by default", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), []string{
			"verify", "-config", cfg, "-file", filepath.Join("testdata", "devices.xml"),
		}, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "FINGERPRINT")
	})

	t.Run("report file", func(t *testing.T) {
		var out bytes.Buffer
		err := run(context.Background(), []string{
			"verify", "-config", cfg, "-file", filepath.Join("testdata", "devices.xml"),
			"-group", "edge", "-o", reportPath,
		}, &out)
		require.NoError(t, err)
		assert.Empty(t, out.String())

		data, err := os.ReadFile(reportPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "sw1")
		assert.NotContains(t, string(data), "mx1")
	})

	_, err := os.Stat(exportPath)
	assert.True(t, os.IsNotExist(err), "verify must not write the export destination")
}
