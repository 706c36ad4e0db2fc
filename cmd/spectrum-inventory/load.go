package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"spectrum-inventory/internal/codec"
	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/logger"
	"spectrum-inventory/internal/repository/sqlite"
	"spectrum-inventory/internal/source"
	"spectrum-inventory/internal/watcher"
)

func runLoad(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("load")
	var flags commonFlags
	flags.register(fs)
	format := fs.String("format", "", formatUsage())
	output := fs.String("o", "", "write the export to this file instead of stdout")
	watch := fs.Bool("watch", false, "re-export whenever the -file input changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *watch && flags.file == "" {
		return errors.New("-watch requires -file")
	}

	cfg, err := flags.loadConfig(fs)
	if err != nil {
		return err
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "format":
			cfg.Export.Format = *format
		case "o":
			cfg.Export.Output = *output
		}
	})

	exporter, err := codec.Lookup(cfg.Export.Format)
	if err != nil {
		return err
	}

	loader, err := flags.newLoader(cfg)
	if err != nil {
		return err
	}

	loadAndExport := func(ctx context.Context) error {
		result, err := load(ctx, loader, cfg.Export.Database)
		if err != nil {
			return err
		}
		inv, err := selectGroup(result.Inventory, flags.group)
		if err != nil {
			return err
		}
		return export(exporter, inv, cfg.Export.Output, stdout)
	}

	if err := loadAndExport(ctx); err != nil {
		return err
	}
	if !*watch {
		return nil
	}

	log := cliLogger()
	w := watcher.New(flags.file, func(ctx context.Context) {
		if err := loadAndExport(ctx); err != nil {
			log.Error().Err(err).Msg("Reload failed")
		}
	}).WithLogger(logger.WithComponent("watcher"))

	if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// load runs one inventory load and optionally persists the snapshot
func load(ctx context.Context, loader *source.Loader, dbPath string) (*source.Result, error) {
	result, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		if err := saveSnapshot(ctx, dbPath, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func saveSnapshot(ctx context.Context, dbPath string, result *source.Result) error {
	repo, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SaveSnapshot(ctx, result.RunID, result.Inventory); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	log := cliLogger()
	log.Info().
		Str("run_id", result.RunID).
		Str("database", dbPath).
		Msg("Snapshot saved")
	return nil
}

func export(exporter codec.Exporter, inv *domain.Inventory, path string, stdout io.Writer) error {
	w, closeFn, err := openOutput(path, stdout)
	if err != nil {
		return err
	}
	if err := exporter.Export(inv, w); err != nil {
		closeFn()
		return fmt.Errorf("export %s: %w", exporter.Format(), err)
	}
	return closeFn()
}
