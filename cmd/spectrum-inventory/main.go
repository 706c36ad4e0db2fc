package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"spectrum-inventory/internal/codec"
	"spectrum-inventory/internal/config"
	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/logger"
	"spectrum-inventory/internal/source"
	"spectrum-inventory/internal/spectrum"
	"spectrum-inventory/internal/translate"
)

const usage = `Usage: spectrum-inventory <command> [flags]

Commands:
  load     fetch devices from Spectrum and export the inventory (default)
  verify   load, then check each host's management port
  snapshot show the inventory saved by load -db
  attrs    print the Spectrum attributes that are requested

Run "spectrum-inventory <command> -h" for command flags.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "spectrum-inventory: %v\n", err)
		os.Exit(1)
	}
}

var errEmptyGroup = errors.New("no hosts in group")

// run dispatches to a subcommand. Exported inventories and reports are
// written to stdout unless -o is given.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cmd := "load"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "load":
		return runLoad(ctx, args, stdout)
	case "verify":
		return runVerify(ctx, args, stdout)
	case "snapshot":
		return runSnapshot(ctx, args, stdout)
	case "attrs":
		return runAttrs(args, stdout)
	case "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

// commonFlags are shared by load and verify
type commonFlags struct {
	configPath      string
	dbPath          string
	file            string
	group           string
	genericFallback bool
	debug           bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "config file path (default: search standard locations)")
	fs.StringVar(&f.dbPath, "db", "", "also save a snapshot to this SQLite database")
	fs.StringVar(&f.file, "file", "", "read devices from a saved XML or YAML file instead of Spectrum")
	fs.StringVar(&f.group, "group", "", "only use hosts that belong to this group")
	fs.BoolVar(&f.genericFallback, "generic-fallback", true, "assign generic platforms to unmatched devices")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
}

// loadConfig reads the config file and applies command line overrides
func (f *commonFlags) loadConfig(fs *flag.FlagSet) (*config.Config, error) {
	cfg, path, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "db":
			cfg.Export.Database = f.dbPath
		case "generic-fallback":
			enabled := f.genericFallback
			cfg.Translate.GenericFallback = &enabled
		case "debug":
			cfg.Logging.Debug = f.debug
		}
	})

	if err := logger.Init(cfg.Logging); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	log := cliLogger()
	if path != "" {
		log.Debug().Str("path", path).Msg("Loaded config")
	}
	log.Debug().Msg(cfg.Summary())

	return cfg, nil
}

// newLoader builds the source, translator and loader for cfg
func (f *commonFlags) newLoader(cfg *config.Config) (*source.Loader, error) {
	var src source.Source
	if f.file != "" {
		attrs, err := spectrum.ParseAttributeMap(cfg.Spectrum.ExtraAttributes)
		if err != nil {
			return nil, err
		}
		src = source.NewFileSource(f.file, attrs)
	} else {
		client, err := spectrum.NewClient(cfg.SpectrumClientConfig(),
			spectrum.WithLogger(logger.WithComponent("spectrum")))
		if err != nil {
			return nil, err
		}
		src = client
	}

	tr := translate.New(
		translate.WithGenericFallback(cfg.GenericFallback()),
		translate.WithLogger(logger.WithComponent("translate")),
	)

	loader := source.NewLoader(src, tr, logger.WithComponent("loader"))
	loader.SetDefaults(cfg.InventoryDefaults())
	return loader, nil
}

// openOutput returns the destination for an export or report and a function to finalize it
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return file, file.Close, nil
}

// selectGroup narrows inv to the members of group. An empty group keeps
// every host.
func selectGroup(inv *domain.Inventory, group string) (*domain.Inventory, error) {
	if group == "" {
		return inv, nil
	}
	members := inv.Children(group)
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %q", errEmptyGroup, group)
	}

	log := cliLogger()
	log.Debug().Str("group", group).Int("hosts", len(members)).Msg("Selected group")

	return inv.Filter(func(h *domain.Host) bool { return h.HasGroup(group) }), nil
}

// formatUsage describes the -format flag
func formatUsage() string {
	return "export format: " + strings.Join(codec.Formats(), ", ")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func cliLogger() zerolog.Logger {
	return logger.WithComponent("cli")
}
