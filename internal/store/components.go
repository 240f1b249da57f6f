package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/catalog"
)

const selectColumns = `id, platform, name, type, origin, status, version, install_path,
	last_modified, error_message, detail_json`

// record is one components row: the entry plus its row id and raw detail.
type record struct {
	id        int64
	entry     catalog.Entry
	rawDetail string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecord(row rowScanner) (record, error) {
	var (
		r            record
		platform     string
		typ          string
		origin       string
		status       string
		lastModified sql.NullString
		detail       sql.NullString
	)
	if err := row.Scan(&r.id, &platform, &r.entry.Name, &typ, &origin, &status,
		&r.entry.Version, &r.entry.InstallPath, &lastModified, &r.entry.ErrorMessage, &detail); err != nil {
		return record{}, err
	}
	r.entry.Platform = catalog.Platform(platform)
	r.entry.Type = catalog.ComponentType(typ)
	r.entry.Origin = catalog.Origin(origin)
	r.entry.Status = catalog.Status(status)
	if lastModified.Valid {
		r.entry.LastModified = parseTime(lastModified.String)
	}
	if detail.Valid {
		r.rawDetail = detail.String
		d, err := catalog.DecodeDetail([]byte(detail.String))
		if err != nil {
			s.logger.Debug("undecodable detail", zap.String("identity", r.entry.Identity.String()), zap.Error(err))
		}
		r.entry.Detail = d
	}
	return r, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Entry
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r.entry)
	}
	return out, rows.Err()
}

// UpsertSummary counts what one Upsert did.
type UpsertSummary struct {
	Installed int
	Updated   int
}

// Upsert writes every entry of result in one transaction. New identities
// are inserted with an installed event; existing ones are fully replaced
// (attributes missing from the new entry are not preserved) with an updated
// event. Entries absent from result are left as they are.
func (s *Store) Upsert(ctx context.Context, result catalog.ScanResult) (UpsertSummary, error) {
	var summary UpsertSummary
	now := formatTime(s.now())

	err := s.withTx(ctx, "upsert", func(tx *sql.Tx) error {
		for _, e := range result.All() {
			kind, id, err := upsertEntry(ctx, tx, e, now)
			if err != nil {
				return err
			}
			if kind == catalog.EventInstalled {
				summary.Installed++
			} else {
				summary.Updated++
			}

			snapshot, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode snapshot of %s: %w", e.Identity, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO installation_events (component_id, event_type, timestamp, version, snapshot_json)
				VALUES (?, ?, ?, ?, ?)
			`, id, string(kind), now, e.Version, string(snapshot)); err != nil {
				return fmt.Errorf("record %s event for %s: %w", kind, e.Identity, err)
			}

			if err := indexEntry(ctx, tx, id, e, ""); err != nil {
				return err
			}
		}

		scanTime := result.ScanTime
		if scanTime.IsZero() {
			scanTime = s.now()
		}
		return setMeta(ctx, tx, metaLastScan, formatTime(scanTime))
	})
	if err != nil {
		return UpsertSummary{}, err
	}

	s.logger.Debug("catalog updated",
		zap.Int("installed", summary.Installed),
		zap.Int("updated", summary.Updated))
	return summary, nil
}

func upsertEntry(ctx context.Context, tx *sql.Tx, e catalog.Entry, now string) (catalog.EventKind, int64, error) {
	detail, err := catalog.EncodeDetail(e.Detail)
	if err != nil {
		return "", 0, err
	}
	var lastModified any
	if !e.LastModified.IsZero() {
		lastModified = formatTime(e.LastModified)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM components WHERE platform = ? AND name = ? AND type = ?
	`, string(e.Platform), e.Name, string(e.Type)).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx, `
			INSERT INTO components (platform, name, type, origin, status, version, install_path,
				last_modified, error_message, first_seen, last_seen, detail_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, string(e.Platform), e.Name, string(e.Type), string(e.Origin), string(e.Status), e.Version,
			e.InstallPath, lastModified, e.ErrorMessage, now, now, string(detail))
		if err != nil {
			return "", 0, fmt.Errorf("insert %s: %w", e.Identity, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return "", 0, fmt.Errorf("insert %s: %w", e.Identity, err)
		}
		return catalog.EventInstalled, id, nil

	case err != nil:
		return "", 0, fmt.Errorf("select %s: %w", e.Identity, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE components
		SET origin = ?, status = ?, version = ?, install_path = ?, last_modified = ?,
			error_message = ?, last_seen = ?, detail_json = ?
		WHERE id = ?
	`, string(e.Origin), string(e.Status), e.Version, e.InstallPath, lastModified,
		e.ErrorMessage, now, string(detail), id); err != nil {
		return "", 0, fmt.Errorf("update %s: %w", e.Identity, err)
	}
	return catalog.EventUpdated, id, nil
}

// Filter restricts List. Zero fields match everything.
type Filter struct {
	Platform catalog.Platform
	Type     catalog.ComponentType
	Origin   catalog.Origin
	Status   catalog.Status
}

// Match reports whether e satisfies every set field of f.
func (f Filter) Match(e catalog.Entry) bool {
	return (f.Platform == "" || e.Platform == f.Platform) &&
		(f.Type == "" || e.Type == f.Type) &&
		(f.Origin == "" || e.Origin == f.Origin) &&
		(f.Status == "" || e.Status == f.Status)
}

// List returns the entries matching every set field of f, ordered by name.
func (s *Store) List(ctx context.Context, f Filter) ([]catalog.Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	add("platform", string(f.Platform))
	add("type", string(f.Type))
	add("origin", string(f.Origin))
	add("status", string(f.Status))

	query := `SELECT ` + selectColumns + ` FROM components`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY name, platform, type`

	entries, err := s.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	return entries, nil
}

// Get returns the entry with the given identity or a NotFoundError.
func (s *Store) Get(ctx context.Context, id catalog.Identity) (catalog.Entry, error) {
	r, err := s.scanRecord(s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+` FROM components WHERE platform = ? AND name = ? AND type = ?
	`, string(id.Platform), id.Name, string(id.Type)))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Entry{}, NotFoundError{Entity: "component", Key: id.String()}
	}
	if err != nil {
		return catalog.Entry{}, &Error{Op: "get", Err: err}
	}
	return r.entry, nil
}

// Search returns the entries whose name, description or keywords match
// every token of query as a prefix, best matches first.
func (s *Store) Search(ctx context.Context, query string) ([]catalog.Entry, error) {
	match := sanitizeFTSQuery(query)
	if match == "" {
		return nil, nil
	}

	entries, err := s.queryEntries(ctx, `
		SELECT `+prefixed("c", selectColumns)+`
		FROM (SELECT rowid AS id, rank FROM components_fts WHERE components_fts MATCH ?) m
		JOIN components c ON c.id = m.id
		ORDER BY m.rank, c.name
	`, match)
	if err != nil {
		return nil, &Error{Op: "search", Err: err}
	}
	return entries, nil
}

// sanitizeFTSQuery turns free text into an FTS5 expression: each token
// becomes a quoted prefix term and the terms are ANDed.
func sanitizeFTSQuery(query string) string {
	var terms []string
	for _, term := range strings.Fields(query) {
		term = strings.ReplaceAll(term, `"`, "")
		term = strings.ReplaceAll(term, "\x00", "")
		term = strings.Trim(term, "*")
		if term != "" {
			terms = append(terms, `"`+term+`"*`)
		}
	}
	return strings.Join(terms, " AND ")
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// History returns the installation events of an entry, oldest first.
func (s *Store) History(ctx context.Context, id catalog.Identity) ([]catalog.InstallationEvent, error) {
	componentID, err := s.componentID(ctx, id)
	if err != nil {
		return nil, err
	}
	if componentID == 0 {
		return nil, NotFoundError{Entity: "component", Key: id.String()}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, timestamp, version, snapshot_json
		FROM installation_events
		WHERE component_id = ?
		ORDER BY timestamp, id
	`, componentID)
	if err != nil {
		return nil, &Error{Op: "history", Err: err}
	}
	defer rows.Close()

	var events []catalog.InstallationEvent
	for rows.Next() {
		var (
			kind, ts string
			version  sql.NullString
			snapshot sql.NullString
		)
		if err := rows.Scan(&kind, &ts, &version, &snapshot); err != nil {
			return nil, &Error{Op: "history", Err: err}
		}
		ev := catalog.InstallationEvent{
			Identity:  id,
			Kind:      catalog.EventKind(kind),
			Timestamp: parseTime(ts),
			Version:   version.String,
		}
		if snapshot.Valid && snapshot.String != "" {
			var e catalog.Entry
			if err := json.Unmarshal([]byte(snapshot.String), &e); err == nil {
				ev.Snapshot = &e
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "history", Err: err}
	}
	return events, nil
}

// componentID returns the row id of an identity, or 0 when absent.
func (s *Store) componentID(ctx context.Context, id catalog.Identity) (int64, error) {
	var rowID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM components WHERE platform = ? AND name = ? AND type = ?
	`, string(id.Platform), id.Name, string(id.Type)).Scan(&rowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, &Error{Op: "lookup", Err: err}
	}
	return rowID, nil
}

// LastScan returns the scan time of the most recent Upsert, or the zero
// time when the catalog has never been filled.
func (s *Store) LastScan(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE key = ?`, metaLastScan).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &Error{Op: "last scan", Err: err}
	}
	return parseTime(value), nil
}

// Count returns the number of components in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM components`).Scan(&n); err != nil {
		return 0, &Error{Op: "count", Err: err}
	}
	return n, nil
}
