// Package translate converts device records into inventory hosts and groups.
package translate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"spectrum-inventory/internal/domain"
)

var (
	// ErrMissingAttribute is returned when a required attribute is absent or blank
	ErrMissingAttribute = errors.New("missing required attribute")
	// ErrMalformedAttribute is returned when an attribute cannot be converted
	ErrMalformedAttribute = errors.New("malformed attribute")
)

// Keys used for residual host data
const (
	DataModelType  = "model_type"
	DataCondition  = "condition"
	DataModelClass = "model_class"
	DataDeviceType = "device_type"
	DataTopology   = "topology_string"
)

// Option configures a Translator
type Option func(*Translator)

// WithGenericFallback assigns the generic platform identifiers to devices
// whose platform cannot be inferred
func WithGenericFallback(enabled bool) Option {
	return func(t *Translator) {
		t.genericFallback = enabled
	}
}

// WithLogger sets the logger used for per-record diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(t *Translator) {
		t.logger = l
	}
}

// Translator turns flat device records into hosts and groups
type Translator struct {
	genericFallback bool
	logger          zerolog.Logger
}

// New creates a Translator
func New(opts ...Option) *Translator {
	t := &Translator{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stats counts what happened to the records of one translation
type Stats struct {
	Records int
	// Skipped records had no supported management transport
	Skipped int
	// Replaced records were overwritten by a later record with the same host name
	Replaced int
}

// Translate processes records in order and returns the resulting hosts and
// groups. Both collections are built fresh on every call; the records are
// not modified.
func (t *Translator) Translate(records []domain.Record) (domain.Hosts, domain.Groups, error) {
	hosts, groups, _, err := t.TranslateStats(records)
	return hosts, groups, err
}

// TranslateStats is Translate that also reports per-record outcomes
func (t *Translator) TranslateStats(records []domain.Record) (domain.Hosts, domain.Groups, Stats, error) {
	hosts := make(domain.Hosts)
	groups := make(domain.Groups)
	stats := Stats{Records: len(records)}

	for i, rec := range records {
		host, err := t.translateRecord(rec.Clone(), groups)
		if err != nil {
			return nil, nil, Stats{}, fmt.Errorf("record %d: %w", i, err)
		}
		if host == nil {
			stats.Skipped++
			continue
		}

		if _, dup := hosts[host.Name]; dup {
			stats.Replaced++
			t.logger.Warn().
				Str("host", host.Name).
				Int("record", i).
				Msg("Duplicate host name, replacing earlier record")
		}
		hosts[host.Name] = host
	}

	t.logger.Debug().
		Int("records", stats.Records).
		Int("hosts", len(hosts)).
		Int("groups", len(groups)).
		Int("skipped", stats.Skipped).
		Int("replaced", stats.Replaced).
		Msg("Translated device records")

	return hosts, groups, stats, nil
}

// translateRecord builds the host for one record, registering its groups.
// It returns a nil host for devices without a supported management transport.
func (t *Translator) translateRecord(rec domain.Record, groups domain.Groups) (*domain.Host, error) {
	collections, _ := rec.Pop(domain.AttrCollections)
	groupNames := splitCollections(collections)

	memberOf := make([]*domain.Group, 0, len(groupNames))
	for _, name := range groupNames {
		memberOf = append(memberOf, groups.GetOrCreateGroup(name))
	}

	mode, _ := rec.Pop(domain.AttrCommModes)
	port, ok := PortForCommMode(mode)
	if !ok {
		t.logger.Debug().
			Str("model_name", rec[domain.AttrModelName]).
			Str("comm_mode", mode).
			Msg("Skipping device without supported management transport")
		return nil, nil
	}

	platform := PlatformFor(rec[domain.AttrModelTypeName], rec[domain.AttrDeviceType])

	var connOpts map[string]domain.ConnectionOptions
	if port == domain.PortTelnet && platform == domain.PlatformIOS {
		platform = domain.PlatformIOSTelnet
		connOpts = telnetConnectionOptions()
	}

	if platform == "" && t.genericFallback {
		platform = genericPlatform(port)
	}

	if platform == domain.PlatformJunos {
		port = domain.PortNETCONF
	}

	name, err := popRequired(rec, domain.AttrModelName)
	if err != nil {
		return nil, err
	}
	address, err := popRequired(rec, domain.AttrNetworkAddress)
	if err != nil {
		return nil, err
	}

	data, err := residualData(rec)
	if err != nil {
		return nil, fmt.Errorf("host %s: %w", name, err)
	}

	host := domain.NewHost(name, address, port)
	host.Platform = platform
	host.Groups = memberOf
	host.Data = data
	for plugin, opts := range connOpts {
		host.ConnectionOptions[plugin] = opts
	}

	return host, nil
}

// splitCollections splits a colon-delimited collection string into unique,
// non-empty group names in first-seen order
func splitCollections(s string) []string {
	if s == "" {
		return nil
	}

	seen := make(map[string]bool)
	var names []string
	for _, token := range strings.Split(s, ":") {
		token = strings.TrimSpace(token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		names = append(names, token)
	}
	return names
}

func popRequired(rec domain.Record, key string) (string, error) {
	v, _ := rec.Pop(key)
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingAttribute, key)
	}
	return v, nil
}

// residualData converts what is left of the record into host data. Known
// attributes get stable names; everything else is carried through as-is.
func residualData(rec domain.Record) (map[string]any, error) {
	data := make(map[string]any, len(rec)+5)

	modelType, _ := rec.Pop(domain.AttrModelTypeName)
	data[DataModelType] = modelType

	condition, err := popInt(rec, domain.AttrCondition)
	if err != nil {
		return nil, err
	}
	data[DataCondition] = condition

	modelClass, err := popInt(rec, domain.AttrModelClass)
	if err != nil {
		return nil, err
	}
	data[DataModelClass] = modelClass

	deviceType, _ := rec.Pop(domain.AttrDeviceType)
	data[DataDeviceType] = deviceType

	topology, _ := rec.Pop(domain.AttrTopology)
	data[DataTopology] = topology

	for k, v := range rec {
		data[k] = v
	}

	return data, nil
}

func popInt(rec domain.Record, key string) (int, error) {
	v, _ := rec.Pop(key)
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedAttribute, key, v)
	}
	return n, nil
}
