// Package source defines where device records come from and loads them
// into an inventory.
package source

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/translate"
)

// Source yields the flat device records for one load
type Source interface {
	// Name returns the identifier used in logs
	Name() string

	// Fetch returns all device records. It is called once per load and
	// performs no retries of its own.
	Fetch(ctx context.Context) ([]domain.Record, error)
}

// Loader fetches records from a source and translates them
type Loader struct {
	source     Source
	translator *translate.Translator
	defaults   domain.Defaults
	logger     zerolog.Logger
}

// NewLoader creates a loader for src
func NewLoader(src Source, tr *translate.Translator, logger zerolog.Logger) *Loader {
	return &Loader{
		source:     src,
		translator: tr,
		logger:     logger,
	}
}

// SetDefaults sets the inventory defaults attached to every load
func (l *Loader) SetDefaults(d domain.Defaults) {
	l.defaults = d
}

// Result is the outcome of one load
type Result struct {
	RunID     string
	Inventory *domain.Inventory
	Records   int
	Stats     translate.Stats
}

// Skipped is the number of records without a supported management
// transport. Records replaced by a later duplicate are not included.
func (r *Result) Skipped() int {
	return r.Stats.Skipped
}

// Load performs one fetch and one translation. A new inventory is built
// on every call.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := l.logger.With().
		Str("run_id", runID).
		Str("source", l.source.Name()).
		Logger()

	log.Debug().Msg("Loading inventory")

	records, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", l.source.Name(), err)
	}

	hosts, groups, stats, err := l.translator.TranslateStats(records)
	if err != nil {
		return nil, fmt.Errorf("translate %s records: %w", l.source.Name(), err)
	}

	inv := domain.NewInventory()
	inv.Hosts = hosts
	inv.Groups = groups
	inv.Defaults = l.defaults

	result := &Result{RunID: runID, Inventory: inv, Records: len(records), Stats: stats}

	log.Info().
		Int("records", result.Records).
		Int("hosts", len(hosts)).
		Int("groups", len(groups)).
		Int("skipped", stats.Skipped).
		Int("replaced", stats.Replaced).
		Msg("Inventory loaded")

	return result, nil
}
