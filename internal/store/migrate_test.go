package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

func execAll(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, abbreviate(stmt))
	}
}

const legacyComponents = `CREATE TABLE components (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	origin TEXT,
	status TEXT,
	version TEXT,
	install_path TEXT,
	first_seen DATETIME NOT NULL,
	last_seen DATETIME NOT NULL,
	metadata_json TEXT,
	UNIQUE(name, type)
)`

const legacyInvocations = `CREATE TABLE invocations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	component_id INTEGER NOT NULL,
	session_id TEXT,
	timestamp DATETIME NOT NULL,
	duration_ms INTEGER,
	success BOOLEAN,
	error_message TEXT,
	FOREIGN KEY (component_id) REFERENCES components(id)
)`

const legacyEvents = `CREATE TABLE installation_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	component_id INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	version TEXT,
	metadata_json TEXT,
	FOREIGN KEY (component_id) REFERENCES components(id)
)`

func TestMigratesComponentsWithoutPlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	execAll(t, path,
		legacyComponents, legacyInvocations, legacyEvents,
		`CREATE INDEX idx_components_type ON components(type)`,
		`INSERT INTO components (id, name, type, origin, status, version, install_path, first_seen, last_seen, metadata_json)
		 VALUES (7, 'legacy-skill', 'skill', 'in-house', 'active', '1.0.0', '/tmp', '2025-01-01 10:00:00', '2025-01-02 10:00:00', '{')`,
		`INSERT INTO components (id, name, type, origin, status, version, install_path, first_seen, last_seen, metadata_json)
		 VALUES (9, 'legacy-skill-2', 'skill', 'in-house', 'active', '1.0.0', '/tmp', datetime('now'), datetime('now'), '{"description":"x-ray vision"}')`,
		`INSERT INTO components (id, name, type, origin, status, version, install_path, first_seen, last_seen, metadata_json)
		 VALUES (12, 'old-hook', 'hook', NULL, NULL, NULL, NULL, datetime('now'), datetime('now'), NULL)`,
		`INSERT INTO invocations (component_id, session_id, timestamp, duration_ms, success) VALUES (9, 's1', '2026-02-27 09:00:00', 15, 1)`,
		`INSERT INTO installation_events (component_id, event_type, timestamp, version) VALUES (9, 'installed', '2025-01-01 10:00:00', '1.0.0')`,
	)

	s := openTestStore(t, path)
	ctx := context.Background()

	rows, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3, "every legacy row survives")
	for _, e := range rows {
		assert.Equal(t, catalog.PlatformClaude, e.Platform, e.Name)
	}
	assert.Nil(t, rows[0].Detail, "undecodable legacy metadata is dropped")

	cols, err := tableColumns(ctx, s.db, "components")
	require.NoError(t, err)
	assert.True(t, hasColumns(cols, componentColumns))
	legacy, err := tableColumns(ctx, s.db, "components_legacy")
	require.NoError(t, err)
	assert.Empty(t, legacy)

	var generation string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = 'generation'`).Scan(&generation))
	assert.Equal(t, "2", generation)

	found, err := s.Search(ctx, "x-ray")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "legacy-skill-2", found[0].Name)

	// Dependent rows still point at the preserved ids.
	id := catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeSkill, Name: "legacy-skill-2"}
	usage, err := s.EntryUsage(ctx, id, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Total)
	events, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, catalog.EventInstalled, events[0].Kind)

	tracked, err := s.Track(ctx, catalog.Invocation{Identity: id, SessionID: "s2", Success: true})
	require.NoError(t, err)
	assert.True(t, tracked, "foreign keys resolve against the migrated table")

	_, err = s.Upsert(ctx, scanOf(skill("legacy-skill-2", "renewed")))
	require.NoError(t, err)
	events, err = s.History(ctx, id)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestMigrationNormalizesLegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	execAll(t, path,
		legacyComponents, legacyInvocations, legacyEvents,
		`INSERT INTO components (id, name, type, first_seen, last_seen) VALUES (3, 'mail', 'skill', '2025-01-01 10:00:00', '2025-01-01 10:00:00')`,
		// The 30-day window before testNow opens at 2026-01-30T12:00:00Z.
		`INSERT INTO invocations (component_id, session_id, timestamp, duration_ms, success) VALUES (3, 's1', '2026-01-30 18:00:00.123456', 10, 1)`,
		`INSERT INTO invocations (component_id, session_id, timestamp, duration_ms, success) VALUES (3, 's1', '2026-01-30 06:00:00.000000', 10, 1)`,
		`INSERT INTO installation_events (component_id, event_type, timestamp, version) VALUES (3, 'installed', '2026-02-01T08:30:00.5', '1.0.0')`,
	)

	s := openTestStore(t, path)
	ctx := context.Background()

	id := catalog.Identity{Platform: catalog.PlatformClaude, Type: catalog.TypeSkill, Name: "mail"}
	usage, err := s.EntryUsage(ctx, id, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.Total, "only the invocation inside the window counts")

	var stamps []string
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp FROM invocations ORDER BY id`)
	require.NoError(t, err)
	for rows.Next() {
		var ts string
		require.NoError(t, rows.Scan(&ts))
		stamps = append(stamps, ts)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{
		"2026-01-30T18:00:00.123456000Z",
		"2026-01-30T06:00:00.000000000Z",
	}, stamps)

	events, err := s.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, time.Date(2026, 2, 1, 8, 30, 0, 500_000_000, time.UTC).Equal(events[0].Timestamp))
}

func TestMigratedIndexMatchesRebuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	execAll(t, path,
		legacyComponents,
		`INSERT INTO components (name, type, first_seen, last_seen, metadata_json) VALUES ('alpha', 'skill', datetime('now'), datetime('now'), '{"description":"shared words"}')`,
		`INSERT INTO components (name, type, first_seen, last_seen, metadata_json) VALUES ('beta', 'command', datetime('now'), datetime('now'), '{"description":"shared"}')`,
	)

	s := openTestStore(t, path)
	ctx := context.Background()
	migrated, err := s.Search(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, migrated, 2)

	// Force a from-scratch rebuild on the next open.
	_, err = s.db.ExecContext(ctx, `DELETE FROM components_fts`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openTestStore(t, path)
	rebuilt, err := s.Search(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, migrated, rebuilt)
}

func TestRebuildsExternalContentSearchIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy_fts.db")
	execAll(t, path,
		`CREATE TABLE components (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			platform TEXT NOT NULL DEFAULT 'claude',
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			origin TEXT,
			status TEXT,
			version TEXT,
			install_path TEXT,
			first_seen DATETIME NOT NULL,
			last_seen DATETIME NOT NULL,
			metadata_json TEXT,
			UNIQUE(platform, name, type)
		)`,
		`CREATE VIRTUAL TABLE components_fts USING fts5(name, description, keywords, content=components)`,
		`INSERT INTO components (platform, name, type, origin, status, version, install_path, first_seen, last_seen, metadata_json)
		 VALUES ('claude', 'x', 'skill', 'in-house', 'active', '1.0.0', '/tmp', datetime('now'), datetime('now'), '{"description":"d"}')`,
	)

	s := openTestStore(t, path)
	ctx := context.Background()

	var ddl string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE name = 'components_fts'`).Scan(&ddl))
	assert.NotContains(t, ddl, "content=")

	found, err := s.Search(ctx, "d")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "x", found[0].Name)
}

func TestRebuildsIndexWhenRowCountsDiffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	s := openTestStore(t, path)
	ctx := context.Background()
	_, err := s.Upsert(ctx, scanOf(skill("gmail-send", "Send email"), skill("other", "Other thing")))
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `DELETE FROM components_fts WHERE name = 'gmail-send'`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openTestStore(t, path)
	found, err := s.Search(ctx, "email")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestFailedMigrationLeavesLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.db")
	// No uniqueness in this generation, so the copy into the current table
	// fails on the duplicate identity.
	execAll(t, path,
		`CREATE TABLE components (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			first_seen DATETIME NOT NULL,
			last_seen DATETIME NOT NULL
		)`,
		`INSERT INTO components (name, type, first_seen, last_seen) VALUES ('dup', 'skill', datetime('now'), datetime('now'))`,
		`INSERT INTO components (name, type, first_seen, last_seen) VALUES ('dup', 'skill', datetime('now'), datetime('now'))`,
	)

	_, err := Open(context.Background(), Options{Path: path, Now: func() time.Time { return testNow }})
	require.Error(t, err)
	assert.True(t, IsStoreError(err))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	cols, err := tableColumns(ctx, db, "components")
	require.NoError(t, err)
	assert.False(t, cols["platform"])
	assert.True(t, cols["first_seen"])

	legacy, err := tableColumns(ctx, db, "components_legacy")
	require.NoError(t, err)
	assert.Empty(t, legacy)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM components`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestCopyStatementDefaults(t *testing.T) {
	query, args := copyStatement(map[string]bool{"id": true, "name": true, "type": true, "metadata_json": true}, "NOW")
	assert.Contains(t, query, "'claude'")
	assert.Contains(t, query, "metadata_json")
	assert.Equal(t, []any{"NOW", "NOW"}, args)
}
