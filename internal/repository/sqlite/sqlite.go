package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"spectrum-inventory/internal/domain"
	"spectrum-inventory/internal/repository"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Repository implements repository.SnapshotStore using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.SnapshotStore = (*Repository)(nil)

// New opens (creating if needed) the SQLite database at dbPath
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != memoryPath {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		host_count INTEGER NOT NULL,
		group_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hosts (
		name TEXT PRIMARY KEY,
		hostname TEXT NOT NULL,
		port INTEGER NOT NULL,
		platform TEXT,
		connection_options JSON,
		data JSON
	);

	CREATE TABLE IF NOT EXISTS inventory_groups (
		name TEXT PRIMARY KEY,
		data JSON
	);

	CREATE TABLE IF NOT EXISTS host_groups (
		host_name TEXT NOT NULL,
		group_name TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (host_name, group_name),
		FOREIGN KEY (host_name) REFERENCES hosts(name) ON DELETE CASCADE,
		FOREIGN KEY (group_name) REFERENCES inventory_groups(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_host_groups_group ON host_groups(group_name);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSnapshot replaces the stored inventory with inv and records the run
func (r *Repository) SaveSnapshot(ctx context.Context, runID string, inv *domain.Inventory) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"host_groups", "hosts", "inventory_groups"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, name := range inv.GroupNames() {
		data, err := marshalToNull(inv.Groups[name].Data)
		if err != nil {
			return fmt.Errorf("failed to marshal group %s data: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory_groups (name, data) VALUES (?, ?)`, name, data); err != nil {
			return fmt.Errorf("failed to insert group %s: %w", name, err)
		}
	}

	for _, name := range inv.HostNames() {
		host := inv.Hosts[name]
		opts, err := marshalToNull(host.ConnectionOptions)
		if err != nil {
			return fmt.Errorf("failed to marshal host %s connection options: %w", name, err)
		}
		data, err := marshalToNull(host.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal host %s data: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO hosts (name, hostname, port, platform, connection_options, data)
			VALUES (?, ?, ?, ?, ?, ?)
		`, name, host.Hostname, host.Port, stringToNull(host.Platform), opts, data); err != nil {
			return fmt.Errorf("failed to insert host %s: %w", name, err)
		}

		for i, g := range host.Groups {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO inventory_groups (name) VALUES (?)`, g.Name); err != nil {
				return fmt.Errorf("failed to insert group %s: %w", g.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO host_groups (host_name, group_name, position) VALUES (?, ?, ?)
			`, name, g.Name, i); err != nil {
				return fmt.Errorf("failed to insert host %s group %s: %w", name, g.Name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (run_id, created_at, host_count, group_count)
		VALUES (?, ?, ?, ?)
	`, runID, formatTime(r.now()), len(inv.Hosts), len(inv.Groups)); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent run, or nil if none was saved
func (r *Repository) LatestSnapshot(ctx context.Context) (*repository.Snapshot, error) {
	var (
		snap      repository.Snapshot
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, host_count, group_count
		FROM snapshots
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&snap.RunID, &createdAt, &snap.Hosts, &snap.Groups)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	snap.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot time: %w", err)
	}
	return &snap, nil
}

// Inventory loads the stored hosts and groups. Defaults are not persisted.
func (r *Repository) Inventory(ctx context.Context) (*domain.Inventory, error) {
	inv := domain.NewInventory()

	groupRows, err := r.db.QueryContext(ctx, `SELECT name, data FROM inventory_groups`)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer groupRows.Close()

	for groupRows.Next() {
		var (
			name string
			data sql.NullString
		)
		if err := groupRows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		group := inv.Groups.GetOrCreateGroup(name)
		if err := unmarshalJSONField(data, &group.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal group %s data: %w", name, err)
		}
	}
	if err := groupRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	hostRows, err := r.db.QueryContext(ctx, `
		SELECT name, hostname, port, platform, connection_options, data
		FROM hosts
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosts: %w", err)
	}
	defer hostRows.Close()

	for hostRows.Next() {
		var (
			name, hostname   string
			port             int
			platform         sql.NullString
			connOpts, dataJS sql.NullString
		)
		if err := hostRows.Scan(&name, &hostname, &port, &platform, &connOpts, &dataJS); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}

		host := domain.NewHost(name, hostname, port)
		host.Platform = nullToString(platform)
		if err := unmarshalJSONField(connOpts, &host.ConnectionOptions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal host %s connection options: %w", name, err)
		}
		if err := unmarshalJSONField(dataJS, &host.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal host %s data: %w", name, err)
		}
		inv.Hosts[name] = host
	}
	if err := hostRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hosts: %w", err)
	}

	memberRows, err := r.db.QueryContext(ctx, `
		SELECT host_name, group_name FROM host_groups ORDER BY host_name, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query host groups: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var hostName, groupName string
		if err := memberRows.Scan(&hostName, &groupName); err != nil {
			return nil, fmt.Errorf("failed to scan host group: %w", err)
		}
		if host, ok := inv.Hosts[hostName]; ok {
			host.Groups = append(host.Groups, inv.Groups.GetOrCreateGroup(groupName))
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating host groups: %w", err)
	}

	return inv, nil
}

// GroupMembers returns the names of hosts in group, sorted
func (r *Repository) GroupMembers(ctx context.Context, group string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT host_name FROM host_groups WHERE group_name = ? ORDER BY host_name
	`, group)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, name)
	}
	return members, rows.Err()
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
