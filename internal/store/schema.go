package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

// Generation is the schema generation written to schema_meta.
const Generation = 2

const (
	metaGeneration = "generation"
	metaLastScan   = "last_scan"
)

const componentsTable = `CREATE TABLE components (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	platform TEXT NOT NULL DEFAULT 'claude',
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	origin TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	version TEXT NOT NULL DEFAULT '',
	install_path TEXT NOT NULL DEFAULT '',
	last_modified TEXT,
	error_message TEXT NOT NULL DEFAULT '',
	first_seen TEXT NOT NULL,
	last_seen TEXT NOT NULL,
	detail_json TEXT,
	UNIQUE(platform, name, type)
)`

// componentColumns are the columns of the current components table, in
// declaration order.
var componentColumns = []string{
	"id", "platform", "name", "type", "origin", "status", "version",
	"install_path", "last_modified", "error_message", "first_seen",
	"last_seen", "detail_json",
}

const ftsTable = `CREATE VIRTUAL TABLE components_fts USING fts5(
	name,
	description,
	keywords,
	tokenize='unicode61'
)`

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS installation_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		component_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		version TEXT,
		snapshot_json TEXT,
		FOREIGN KEY (component_id) REFERENCES components(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		component_id INTEGER NOT NULL,
		session_id TEXT,
		timestamp TEXT NOT NULL,
		duration_ms INTEGER,
		success INTEGER NOT NULL DEFAULT 1,
		error_message TEXT,
		FOREIGN KEY (component_id) REFERENCES components(id) ON DELETE CASCADE
	)`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_components_type ON components(type)`,
	`CREATE INDEX IF NOT EXISTS idx_components_origin ON components(origin)`,
	`CREATE INDEX IF NOT EXISTS idx_events_component ON installation_events(component_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invocations_component ON invocations(component_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invocations_timestamp ON invocations(timestamp)`,
}

// ensureSchema runs the open-time checks in order: create or migrate the
// components table, add columns missing from older dependent tables, then
// verify the search index against the components it should mirror.
func (s *Store) ensureSchema(ctx context.Context) error {
	cols, err := tableColumns(ctx, s.db, "components")
	if err != nil {
		return &Error{Op: "inspect schema", Err: err}
	}

	switch {
	case len(cols) == 0:
		err = s.withTx(ctx, "create schema", func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, componentsTable); err != nil {
				return fmt.Errorf("create components: %w", err)
			}
			return s.applyStatements(ctx, tx)
		})
	case !hasColumns(cols, componentColumns):
		err = s.migrate(ctx, cols)
	default:
		err = s.withTx(ctx, "apply schema", func(tx *sql.Tx) error {
			return s.applyStatements(ctx, tx)
		})
	}
	if err != nil {
		return err
	}

	return s.ensureSearchIndex(ctx)
}

func (s *Store) applyStatements(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %q: %w", abbreviate(stmt), err)
		}
	}

	events, err := tableColumns(ctx, tx, "installation_events")
	if err != nil {
		return err
	}
	if !events["snapshot_json"] {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE installation_events ADD COLUMN snapshot_json TEXT`); err != nil {
			return fmt.Errorf("add snapshot column: %w", err)
		}
	}

	for _, stmt := range indexStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply index statement %q: %w", abbreviate(stmt), err)
		}
	}
	for _, table := range []string{"invocations", "installation_events"} {
		if err := s.normalizeTimestamps(ctx, tx, table); err != nil {
			return err
		}
	}
	return setMeta(ctx, tx, metaGeneration, strconv.Itoa(Generation))
}

// storedTimeGlob matches timestamps already in timeLayout.
const storedTimeGlob = "????-??-??T??:??:??.?????????Z"

// normalizeTimestamps rewrites timestamps written by older databases (for
// example "2006-01-02 15:04:05.000000") into timeLayout, so window bounds
// compare correctly as text. Values that cannot be parsed are left alone.
func (s *Store) normalizeTimestamps(ctx context.Context, tx *sql.Tx, table string) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, CAST(timestamp AS TEXT) FROM %s WHERE CAST(timestamp AS TEXT) NOT GLOB ?`, table), storedTimeGlob)
	if err != nil {
		return fmt.Errorf("scan %s timestamps: %w", table, err)
	}
	fixed := map[int64]string{}
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s timestamps: %w", table, err)
		}
		if t := parseTime(raw); !t.IsZero() {
			fixed[id] = formatTime(t)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan %s timestamps: %w", table, err)
	}

	for id, ts := range fixed {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET timestamp = ? WHERE id = ?`, table), ts, id); err != nil {
			return fmt.Errorf("normalize %s timestamp: %w", table, err)
		}
	}
	if len(fixed) > 0 {
		s.logger.Info("normalized legacy timestamps", zap.String("table", table), zap.Int("rows", len(fixed)))
	}
	return nil
}

// migrate moves an older components table to the current generation in one
// transaction: rename it aside, create the current table, copy every row
// (ids preserved, so dependent rows keep pointing at the right component)
// with defaults for missing columns, drop the old table and rebuild the
// search index. On any failure the old schema is left untouched.
func (s *Store) migrate(ctx context.Context, legacy map[string]bool) error {
	s.logger.Info("migrating catalog schema",
		zap.String("path", s.path),
		zap.Bool("has_platform", legacy["platform"]),
		zap.Int("generation", Generation))

	// Both pragmas are ignored inside a transaction. legacy_alter_table keeps
	// the RENAME from rewriting the foreign keys of dependent tables.
	for _, pragma := range []string{"PRAGMA foreign_keys = OFF", "PRAGMA legacy_alter_table = ON"} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return &Error{Op: "migrate", Err: fmt.Errorf("apply pragma %q: %w", pragma, err)}
		}
	}
	defer func() {
		for _, pragma := range []string{"PRAGMA legacy_alter_table = OFF", "PRAGMA foreign_keys = ON"} {
			if _, err := s.db.ExecContext(ctx, pragma); err != nil {
				s.logger.Warn("restoring pragma failed", zap.String("pragma", pragma), zap.Error(err))
			}
		}
	}()

	var copied int64
	err := s.withTx(ctx, "migrate", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS components_legacy`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `ALTER TABLE components RENAME TO components_legacy`); err != nil {
			return fmt.Errorf("rename components: %w", err)
		}
		if _, err := tx.ExecContext(ctx, componentsTable); err != nil {
			return fmt.Errorf("create components: %w", err)
		}

		query, args := copyStatement(legacy, formatTime(s.now()))
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("copy components: %w", err)
		}
		copied, _ = res.RowsAffected()

		if _, err := tx.ExecContext(ctx, `DROP TABLE components_legacy`); err != nil {
			return fmt.Errorf("drop legacy components: %w", err)
		}
		if err := s.applyStatements(ctx, tx); err != nil {
			return err
		}
		return s.rebuildSearchIndex(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("catalog schema migrated", zap.Int64("rows", copied))
	return nil
}

// copyStatement builds the INSERT ... SELECT that fills the current table
// from components_legacy, substituting defaults for columns the legacy table
// lacks. Older databases kept the detail in metadata_json.
func copyStatement(legacy map[string]bool, now string) (string, []any) {
	var (
		exprs []string
		args  []any
	)
	for _, col := range componentColumns {
		switch col {
		case "id", "name", "type":
			exprs = append(exprs, col)
		case "platform":
			if legacy[col] {
				exprs = append(exprs, fmt.Sprintf("COALESCE(NULLIF(platform, ''), '%s')", catalog.PlatformClaude))
			} else {
				exprs = append(exprs, fmt.Sprintf("'%s'", catalog.PlatformClaude))
			}
		case "first_seen", "last_seen":
			if legacy[col] {
				exprs = append(exprs, fmt.Sprintf("COALESCE(CAST(%s AS TEXT), ?)", col))
			} else {
				exprs = append(exprs, "?")
			}
			args = append(args, now)
		case "last_modified":
			if legacy[col] {
				exprs = append(exprs, col)
			} else {
				exprs = append(exprs, "NULL")
			}
		case "detail_json":
			switch {
			case legacy[col]:
				exprs = append(exprs, col)
			case legacy["metadata_json"]:
				exprs = append(exprs, "metadata_json")
			default:
				exprs = append(exprs, "NULL")
			}
		default:
			if legacy[col] {
				exprs = append(exprs, fmt.Sprintf("COALESCE(%s, '')", col))
			} else {
				exprs = append(exprs, "''")
			}
		}
	}
	query := fmt.Sprintf("INSERT INTO components (%s) SELECT %s FROM components_legacy ORDER BY id",
		strings.Join(componentColumns, ", "), strings.Join(exprs, ", "))
	return query, args
}

// ensureSearchIndex rebuilds components_fts when it is missing, is an
// external-content table (which older databases used), or no longer has
// one row per component.
func (s *Store) ensureSearchIndex(ctx context.Context) error {
	var ddl string
	err := s.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'components_fts'`).Scan(&ddl)
	reason := ""
	switch {
	case errors.Is(err, sql.ErrNoRows):
		reason = "missing"
	case err != nil:
		return &Error{Op: "inspect search index", Err: err}
	case strings.Contains(strings.ToLower(strings.ReplaceAll(ddl, " ", "")), "content="):
		reason = "external content"
	default:
		var indexed, components int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM components_fts`).Scan(&indexed); err != nil {
			reason = "unreadable"
		} else if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM components`).Scan(&components); err != nil {
			return &Error{Op: "inspect search index", Err: err}
		} else if indexed != components {
			reason = fmt.Sprintf("%d indexed rows for %d components", indexed, components)
		}
	}
	if reason == "" {
		return nil
	}

	if reason != "missing" {
		s.logger.Info("rebuilding search index", zap.String("reason", reason))
	}
	return s.withTx(ctx, "rebuild search index", func(tx *sql.Tx) error {
		return s.rebuildSearchIndex(ctx, tx)
	})
}

// rebuildSearchIndex recreates components_fts from the components table.
func (s *Store) rebuildSearchIndex(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS components_fts`); err != nil {
		return fmt.Errorf("drop search index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ftsTable); err != nil {
		return fmt.Errorf("create search index: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+selectColumns+` FROM components ORDER BY id`)
	if err != nil {
		return fmt.Errorf("read components: %w", err)
	}
	var records []record
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			rows.Close()
			return err
		}
		records = append(records, r)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range records {
		if err := indexEntry(ctx, tx, r.id, r.entry, r.rawDetail); err != nil {
			return err
		}
	}
	return nil
}

// indexEntry replaces the search row of component id.
func indexEntry(ctx context.Context, tx *sql.Tx, id int64, e catalog.Entry, rawDetail string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM components_fts WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("clear search row: %w", err)
	}
	description := e.Description()
	if description == "" {
		description = legacyDescription(rawDetail)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO components_fts (rowid, name, description, keywords) VALUES (?, ?, ?, ?)`,
		id, e.Name, description, e.Keywords()); err != nil {
		return fmt.Errorf("index %s: %w", e.Identity, err)
	}
	return nil
}

// legacyDescription reads the description of a pre-envelope metadata blob.
func legacyDescription(raw string) string {
	var blob struct {
		Description string `json:"description"`
	}
	if raw == "" || json.Unmarshal([]byte(raw), &blob) != nil {
		return ""
	}
	return blob.Description
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// tableColumns returns the column names of table, or an empty set when the
// table does not exist.
func tableColumns(ctx context.Context, q querier, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func hasColumns(have map[string]bool, want []string) bool {
	for _, c := range want {
		if !have[c] {
			return false
		}
	}
	return true
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMeta(ctx context.Context, x execer, key, value string) error {
	_, err := x.ExecContext(ctx, `
		INSERT INTO schema_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func abbreviate(stmt string) string {
	const maxLen = 64
	trimmed := strings.Join(strings.Fields(stmt), " ")
	if len(trimmed) <= maxLen {
		return trimmed
	}
	return trimmed[:maxLen] + "…"
}
