package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveTestSnapshot loads the devices fixture into a fresh database
func saveTestSnapshot(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	err := run(context.Background(), []string{
		"load",
		"-config", writeTestConfig(t),
		"-file", filepath.Join("testdata", "devices.xml"),
		"-db", dbPath,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	return dbPath
}

func TestRunSnapshot(t *testing.T) {
	dbPath := saveTestSnapshot(t)
	cfg := writeTestConfig(t)

	t.Run("summary and hosts", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), []string{"snapshot", "-config", cfg, "-db", dbPath}, &out))

		assert.Regexp(t, `^run \S+ at \S+: 2 hosts, 2 groups\n`, out.String())
		assert.Regexp(t, `(?m)^mx1\s+10\.0\.0\.2\s+830\s+junos\s+Juniper MX480$`, out.String())
		assert.Regexp(t, `(?m)^sw1\s+10\.0\.0\.1\s+23\s+cisco_ios_telnet\s+Cisco Catalyst 3850$`, out.String())
	})

	t.Run("group members", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), []string{
			"snapshot", "-config", cfg, "-db", dbPath, "-group", "edge",
		}, &out))

		assert.Contains(t, out.String(), "sw1")
		assert.NotContains(t, out.String(), "mx1")
	})

	t.Run("export stored inventory", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), []string{
			"snapshot", "-config", cfg, "-db", dbPath, "-format", "json", "-group", "core",
		}, &out))

		assert.ElementsMatch(t, []string{"mx1", "sw1"}, exportedHosts(t, out.Bytes()))
	})

	t.Run("database from config", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), []string{
			"snapshot", "-config", writeTestConfig(t, "export:\n  database: "+dbPath+"\n"),
		}, &out))
		assert.Contains(t, out.String(), "2 hosts")
	})
}

func TestRunSnapshotErrors(t *testing.T) {
	dbPath := saveTestSnapshot(t)
	cfg := writeTestConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no database", []string{"-config", cfg}, "requires -db"},
		{"empty database", []string{"-config", cfg, "-db", filepath.Join(t.TempDir(), "empty.db")}, "no snapshot saved"},
		{"unknown group", []string{"-config", cfg, "-db", dbPath, "-group", "branch"}, "no hosts in group"},
		{"unknown format", []string{"-config", cfg, "-db", dbPath, "-format", "csv"}, "available: ansible-inventory, json, yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), append([]string{"snapshot"}, tt.args...), &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
