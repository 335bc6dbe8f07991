// Package cache provides the SQLite query cache for tkt.
//
// The cache is derived state: the JSON item files under .tkt/items/
// remain the source of truth, and the daemon rebuilds cache rows as the
// files change. Queries that would otherwise scan every item file
// (filtered lists, per-status stats, dependency lookups) hit SQLite
// instead.
//
// The database runs embedded with WAL mode so the dashboard can read
// while the daemon writes.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/jordanwest/tkt/internal/types"
)

// DB wraps the cache database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the cache database at path and
// initializes the schema. The caller must Close when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := db.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		_ = db.conn.Close()
		return fmt.Errorf("failed to checkpoint cache database: %w", err)
	}
	return db.conn.Close()
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		iteration TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		assignee TEXT NOT NULL DEFAULT '',
		labels TEXT NOT NULL DEFAULT '[]',
		parent TEXT NOT NULL DEFAULT '',
		comment_count INTEGER NOT NULL DEFAULT 0,
		due_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deps (
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id),
		FOREIGN KEY (from_id) REFERENCES items(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
	CREATE INDEX IF NOT EXISTS idx_items_iteration ON items(iteration);
	CREATE INDEX IF NOT EXISTS idx_items_assignee ON items(assignee);
	CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);
	CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent);
	CREATE INDEX IF NOT EXISTS idx_deps_to ON deps(to_id);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// UpsertItem inserts or updates one item row and replaces its
// dependency edges.
func (db *DB) UpsertItem(ctx context.Context, item *types.WorkItem) error {
	if item.ID == "" {
		return fmt.Errorf("cannot cache item without id")
	}

	labelsJSON, err := json.Marshal(item.Labels)
	if err != nil {
		return fmt.Errorf("failed to marshal labels: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO items (
		id, title, description, type, status, iteration, priority,
		assignee, labels, parent, comment_count, due_at,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		type = excluded.type,
		status = excluded.status,
		iteration = excluded.iteration,
		priority = excluded.priority,
		assignee = excluded.assignee,
		labels = excluded.labels,
		parent = excluded.parent,
		comment_count = excluded.comment_count,
		due_at = excluded.due_at,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`

	if _, err := tx.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.Type,
		item.Status,
		item.Iteration,
		string(item.Priority),
		item.Assignee,
		string(labelsJSON),
		item.Parent,
		len(item.Comments),
		timeToNullString(item.Due),
		item.CreatedAt.Format(time.RFC3339),
		item.UpdatedAt.Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM deps WHERE from_id = ?", item.ID); err != nil {
		return fmt.Errorf("failed to clear deps for %s: %w", item.ID, err)
	}
	for _, dep := range item.DependsOn {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO deps (from_id, to_id) VALUES (?, ?)",
			item.ID, dep,
		); err != nil {
			return fmt.Errorf("failed to insert dep %s -> %s: %w", item.ID, dep, err)
		}
	}

	return tx.Commit()
}

// DeleteItem removes an item row. Deleting an absent row is not an
// error; dependency edges cascade.
func (db *DB) DeleteItem(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cached item %s: %w", id, err)
	}
	return nil
}

// ListOptions filters a cache query.
type ListOptions struct {
	Status    string
	Type      string
	Iteration string
	Assignee  string
	Priority  types.Priority
	Label     string
	Limit     int
}

// ListItems returns cached items matching the filter, ordered by
// creation time then id.
func (db *DB) ListItems(ctx context.Context, opts ListOptions) ([]*types.WorkItem, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, opts.Status)
	}
	if opts.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, opts.Type)
	}
	if opts.Iteration != "" {
		conditions = append(conditions, "iteration = ?")
		args = append(args, opts.Iteration)
	}
	if opts.Assignee != "" {
		conditions = append(conditions, "assignee = ?")
		args = append(args, opts.Assignee)
	}
	if opts.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(opts.Priority))
	}
	if opts.Label != "" {
		// Labels are a JSON array; match the quoted element.
		conditions = append(conditions, "labels LIKE ?")
		args = append(args, `%"`+opts.Label+`"%`)
	}

	query := `
		SELECT id, title, description, type, status, iteration, priority,
		       assignee, labels, parent, due_at, created_at, updated_at
		FROM items
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY created_at ASC, id ASC
	`
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		deps, err := db.depsFor(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		item.DependsOn = deps
	}
	return items, nil
}

func (db *DB) depsFor(ctx context.Context, id string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT to_id FROM deps WHERE from_id = ? ORDER BY to_id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query deps for %s: %w", id, err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("failed to scan dep: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

// Stats summarizes the cached item set for the dashboard.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByType     map[string]int `json:"byType"`
	ByPriority map[string]int `json:"byPriority"`
}

// GetStats returns aggregate counts over the cached items.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus:   make(map[string]int),
		ByType:     make(map[string]int),
		ByPriority: make(map[string]int),
	}

	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count cached items: %w", err)
	}

	for column, dest := range map[string]map[string]int{
		"status":   stats.ByStatus,
		"type":     stats.ByType,
		"priority": stats.ByPriority,
	} {
		query := fmt.Sprintf("SELECT %s, COUNT(*) FROM items GROUP BY %s", column, column)
		rows, err := db.conn.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate by %s: %w", column, err)
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s aggregate: %w", column, err)
			}
			dest[key] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("error iterating %s aggregate: %w", column, err)
		}
		rows.Close()
	}

	return stats, nil
}

// RebuildFrom replaces the entire cache contents with the given item
// set, as when the daemon starts or after a pull rewrites the store.
func (db *DB) RebuildFrom(ctx context.Context, items []*types.WorkItem) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM deps"); err != nil {
		return fmt.Errorf("failed to clear deps: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache clear: %w", err)
	}

	for _, item := range items {
		if err := db.UpsertItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func scanItems(rows *sql.Rows) ([]*types.WorkItem, error) {
	var items []*types.WorkItem

	for rows.Next() {
		var item types.WorkItem
		var priority, labelsJSON string
		var createdAt, updatedAt string
		var dueAt sql.NullString

		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Type,
			&item.Status,
			&item.Iteration,
			&priority,
			&item.Assignee,
			&labelsJSON,
			&item.Parent,
			&dueAt,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cached item: %w", err)
		}

		item.Priority = types.Priority(priority)

		if labelsJSON != "" && labelsJSON != "null" {
			if err := json.Unmarshal([]byte(labelsJSON), &item.Labels); err != nil {
				return nil, fmt.Errorf("failed to unmarshal labels: %w", err)
			}
		}

		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			item.CreatedAt = t
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			item.UpdatedAt = t
		}
		item.Due = nullStringToTime(dueAt)

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cached items: %w", err)
	}
	return items, nil
}

func timeToNullString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func nullStringToTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
