package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/logger"
	"spectrum-inventory/internal/spectrum"
	"spectrum-inventory/internal/translate"
)

type staticSource struct {
	records []domain.Record
	err     error
	calls   int
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Fetch(context.Context) ([]domain.Record, error) {
	s.calls++
	return s.records, s.err
}

func newAttrs(t *testing.T) *spectrum.AttributeMap {
	t.Helper()
	m, err := spectrum.NewAttributeMap()
	require.NoError(t, err)
	return m
}

func TestLoader_Load(t *testing.T) {
	src := &staticSource{records: []domain.Record{
		{
			domain.AttrModelName:      "sw1",
			domain.AttrNetworkAddress: "10.0.0.1",
			domain.AttrCommModes:      "32",
			domain.AttrCollections:    "core",
		},
		{
			domain.AttrModelName:      "pc1",
			domain.AttrNetworkAddress: "10.0.0.9",
		},
	}}

	loader := NewLoader(src, translate.New(), logger.NewTestLogger())
	loader.SetDefaults(domain.Defaults{Username: "netops"})

	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, first.RunID)
	assert.Equal(t, 2, first.Records)
	assert.Equal(t, 1, first.Skipped())
	assert.Equal(t, []string{"sw1"}, first.Inventory.HostNames())
	assert.Equal(t, []string{"core"}, first.Inventory.GroupNames())
	assert.Equal(t, "netops", first.Inventory.Defaults.Username)

	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotSame(t, first.Inventory.Groups["core"], second.Inventory.Groups["core"])
	assert.Equal(t, 2, src.calls)
}

func TestLoader_DuplicatesAreNotSkipped(t *testing.T) {
	src := &staticSource{records: []domain.Record{
		{domain.AttrModelName: "sw1", domain.AttrNetworkAddress: "10.0.0.1", domain.AttrCommModes: "32"},
		{domain.AttrModelName: "sw1", domain.AttrNetworkAddress: "10.0.0.2", domain.AttrCommModes: "32"},
	}}

	result, err := NewLoader(src, translate.New(), logger.NewTestLogger()).Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Skipped())
	assert.Equal(t, 1, result.Stats.Replaced)
	assert.Len(t, result.Inventory.Hosts, 1)
}

func TestLoader_LoadErrors(t *testing.T) {
	t.Run("fetch error propagates", func(t *testing.T) {
		errDown := errors.New("server down")
		loader := NewLoader(&staticSource{err: errDown}, translate.New(), logger.NewTestLogger())

		_, err := loader.Load(context.Background())
		require.ErrorIs(t, err, errDown)
	})

	t.Run("translate error propagates", func(t *testing.T) {
		src := &staticSource{records: []domain.Record{{domain.AttrCommModes: "32"}}}
		loader := NewLoader(src, translate.New(), logger.NewTestLogger())

		_, err := loader.Load(context.Background())
		require.ErrorIs(t, err, translate.ErrMissingAttribute)
	})
}

func TestFileSource_XML(t *testing.T) {
	src := NewFileSource("testdata/devices.xml", newAttrs(t))
	assert.Equal(t, "file:devices.xml", src.Name())

	result, err := NewLoader(src, translate.New(translate.WithGenericFallback(true)), logger.NewTestLogger()).
		Load(context.Background())
	require.NoError(t, err)

	inv := result.Inventory
	assert.Equal(t, []string{"mx1", "sw1"}, inv.HostNames())
	assert.Equal(t, domain.PlatformIOSTelnet, inv.Hosts["sw1"].Platform)
	assert.Equal(t, domain.PortNETCONF, inv.Hosts["mx1"].Port)
	assert.Same(t, inv.Groups["core"], inv.Hosts["mx1"].Groups[0])
}

func TestFileSource_YAML(t *testing.T) {
	records, err := NewFileSource("testdata/devices.yaml", newAttrs(t)).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "r1", records[0][domain.AttrModelName])
	assert.Equal(t, "r2", records[1][domain.AttrModelName])
	assert.Equal(t, "JuniperRT", records[1][domain.AttrDeviceType])
	assert.Equal(t, "LON1", records[1]["site_code"])
}

func TestFileSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", "testdata/nope.xml"},
		{"unsupported extension", "source.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileSource(tt.path, newAttrs(t)).Fetch(context.Background())
			require.Error(t, err)
		})
	}
}
