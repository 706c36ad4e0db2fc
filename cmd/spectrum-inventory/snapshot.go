package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"spectrum-inventory/internal/codec"
	"spectrum-inventory/internal/config"
	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/logger"
	"spectrum-inventory/internal/repository/sqlite"
	"spectrum-inventory/internal/translate"
)

// runSnapshot reports on the inventory saved by the last load -db. With
// -format the stored inventory is exported instead of listed.
func runSnapshot(ctx context.Context, args []string, stdout io.Writer) error {
	fs := newFlagSet("snapshot")
	configPath := fs.String("config", "", "config file path (default: search standard locations)")
	dbPath := fs.String("db", "", "SQLite database written by load -db (default from config)")
	group := fs.String("group", "", "only show hosts that belong to this group")
	format := fs.String("format", "", formatUsage()+" (default: host table)")
	output := fs.String("o", "", "write to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if *dbPath == "" {
		*dbPath = cfg.Export.Database
	}
	if *dbPath == "" {
		return errors.New("snapshot requires -db or export.database")
	}

	repo, err := sqlite.New(*dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	snap, err := repo.LatestSnapshot(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no snapshot saved in %s", *dbPath)
	}

	inv, err := repo.Inventory(ctx)
	if err != nil {
		return err
	}
	inv.Defaults = cfg.InventoryDefaults()

	if *format != "" {
		exporter, err := codec.Lookup(*format)
		if err != nil {
			return err
		}
		selected, err := selectGroup(inv, *group)
		if err != nil {
			return err
		}
		return export(exporter, selected, *output, stdout)
	}

	hosts, err := snapshotHosts(ctx, repo, inv, *group)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(*output, stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "run %s at %s: %d hosts, %d groups\n\n",
		snap.RunID, snap.CreatedAt.Format(time.RFC3339), snap.Hosts, snap.Groups)
	if err := writeHostTable(w, hosts); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

// snapshotHosts returns the hosts to list sorted by name. A group is
// resolved against the stored memberships.
func snapshotHosts(ctx context.Context, repo *sqlite.Repository, inv *domain.Inventory, group string) ([]*domain.Host, error) {
	names := inv.HostNames()
	if group != "" {
		var err error
		names, err = repo.GroupMembers(ctx, group)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: %q", errEmptyGroup, group)
		}
	}

	hosts := make([]*domain.Host, 0, len(names))
	for _, name := range names {
		if h := inv.GetHost(name); h != nil {
			hosts = append(hosts, h)
		}
	}
	return hosts, nil
}

func writeHostTable(w io.Writer, hosts []*domain.Host) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tADDRESS\tPORT\tPLATFORM\tDEVICE TYPE")
	for _, h := range hosts {
		platform := h.Platform
		if platform == "" {
			platform = "-"
		}
		deviceType := h.GetDataString(translate.DataDeviceType)
		if deviceType == "" {
			deviceType = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", h.Name, h.Hostname, h.Port, platform, deviceType)
	}
	return tw.Flush()
}
