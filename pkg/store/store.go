// Package store caches reports and event windows in SQLite.
//
// Fetching a report and its events from FFLogs is slow and rate limited, and
// the same selection tends to be analysed repeatedly. The store keeps every
// report and every (report, actor, window) event sequence it is given, so a
// later run can be served locally, including with no network at all. It only
// ever holds inputs; analysis results are never persisted.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/source"

	_ "modernc.org/sqlite"
)

// Store manages all SQLite operations with WAL mode for concurrent access.
type Store struct {
	db *sql.DB
}

// ReportSummary is one row of ListReports.
type ReportSummary struct {
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	Fights    int       `json:"fights"`
	Windows   int       `json:"event_windows"`
	FetchedAt time.Time `json:"fetched_at"`
}

// New opens (or creates) the SQLite database and initializes the schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		code       TEXT PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		fetched_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fights (
		code       TEXT NOT NULL REFERENCES reports(code) ON DELETE CASCADE,
		id         INTEGER NOT NULL,
		boss       TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL,
		end_time   INTEGER NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		zone_name  TEXT NOT NULL DEFAULT '',
		kill       INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (code, id)
	);

	CREATE TABLE IF NOT EXISTS friendlies (
		code   TEXT NOT NULL REFERENCES reports(code) ON DELETE CASCADE,
		id     INTEGER NOT NULL,
		name   TEXT NOT NULL DEFAULT '',
		type   TEXT NOT NULL DEFAULT '',
		server TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (code, id)
	);

	CREATE TABLE IF NOT EXISTS participation (
		code        TEXT NOT NULL REFERENCES reports(code) ON DELETE CASCADE,
		friendly_id INTEGER NOT NULL,
		fight_id    INTEGER NOT NULL,
		PRIMARY KEY (code, friendly_id, fight_id)
	);

	CREATE TABLE IF NOT EXISTS event_windows (
		code       TEXT NOT NULL REFERENCES reports(code) ON DELETE CASCADE,
		actor_id   INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		end_time   INTEGER NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (code, actor_id, start_time, end_time)
	);

	CREATE TABLE IF NOT EXISTS events (
		code         TEXT NOT NULL,
		actor_id     INTEGER NOT NULL,
		start_time   INTEGER NOT NULL,
		end_time     INTEGER NOT NULL,
		seq          INTEGER NOT NULL,
		timestamp    INTEGER NOT NULL,
		type         TEXT NOT NULL,
		source_id    INTEGER NOT NULL DEFAULT 0,
		target_id    INTEGER NOT NULL DEFAULT 0,
		ability_guid INTEGER,
		ability_name TEXT,
		ability_type INTEGER,
		amount       INTEGER NOT NULL DEFAULT 0,
		raw          TEXT,
		PRIMARY KEY (code, actor_id, start_time, end_time, seq),
		FOREIGN KEY (code, actor_id, start_time, end_time)
			REFERENCES event_windows(code, actor_id, start_time, end_time) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// SaveReport stores r, replacing any report with the same code along with
// its cached event windows. Loading reports are rejected.
func (s *Store) SaveReport(ctx context.Context, r *model.Report) error {
	if r == nil || r.Code == "" {
		return errors.New("save report: code is required")
	}
	if r.Loading {
		return fmt.Errorf("save report %q: report is still loading", r.Code)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return retryOnContention(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE code = ?`, r.Code); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reports (code, title, fetched_at) VALUES (?, ?, ?)`,
			r.Code, r.Title, now,
		); err != nil {
			return err
		}
		for _, f := range r.Fights {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO fights (code, id, boss, start_time, end_time, name, zone_name, kill)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.Code, f.ID, string(f.Boss), f.StartTime, f.EndTime, f.Name, f.ZoneName, boolToInt(f.Kill),
			); err != nil {
				return fmt.Errorf("insert fight %d: %w", f.ID, err)
			}
		}
		for _, c := range r.Friendlies {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO friendlies (code, id, name, type, server) VALUES (?, ?, ?, ?, ?)`,
				r.Code, c.ID, c.Name, c.Type, c.Server,
			); err != nil {
				return fmt.Errorf("insert friendly %d: %w", c.ID, err)
			}
			for _, ref := range c.Fights {
				if _, err := tx.ExecContext(ctx,
					`INSERT OR IGNORE INTO participation (code, friendly_id, fight_id) VALUES (?, ?, ?)`,
					r.Code, c.ID, ref.ID,
				); err != nil {
					return fmt.Errorf("insert participation %d/%d: %w", c.ID, ref.ID, err)
				}
			}
		}
		return tx.Commit()
	})
}

// Report returns the cached report for code, or source.ErrNotFound.
func (s *Store) Report(ctx context.Context, code string) (*model.Report, error) {
	r := &model.Report{Code: code}
	err := s.db.QueryRowContext(ctx, `SELECT title FROM reports WHERE code = ?`, code).Scan(&r.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %q: %w", code, source.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, boss, start_time, end_time, name, zone_name, kill
		 FROM fights WHERE code = ? ORDER BY id`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var f model.Fight
		var boss string
		var kill int
		if err := rows.Scan(&f.ID, &boss, &f.StartTime, &f.EndTime, &f.Name, &f.ZoneName, &kill); err != nil {
			return nil, err
		}
		f.Boss, f.Kill = model.BossID(boss), kill != 0
		r.Fights = append(r.Fights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	friendlies, err := s.friendlies(ctx, code)
	if err != nil {
		return nil, err
	}
	r.Friendlies = friendlies
	return r, nil
}

func (s *Store) friendlies(ctx context.Context, code string) ([]model.Combatant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.name, f.type, f.server, p.fight_id
		 FROM friendlies f LEFT JOIN participation p
		   ON p.code = f.code AND p.friendly_id = f.id
		 WHERE f.code = ? ORDER BY f.id, p.fight_id`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Combatant
	for rows.Next() {
		var c model.Combatant
		var fightID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Server, &fightID); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != c.ID {
			out = append(out, c)
		}
		if fightID.Valid {
			last := &out[len(out)-1]
			last.Fights = append(last.Fights, model.FightRef{ID: int(fightID.Int64)})
		}
	}
	return out, rows.Err()
}

// ListReports returns a summary of every cached report ordered by code.
func (s *Store) ListReports(ctx context.Context) ([]ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.code, r.title, r.fetched_at,
		        (SELECT COUNT(*) FROM fights f WHERE f.code = r.code),
		        (SELECT COUNT(*) FROM event_windows w WHERE w.code = r.code)
		 FROM reports r ORDER BY r.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportSummary
	for rows.Next() {
		var rs ReportSummary
		var fetched string
		if err := rows.Scan(&rs.Code, &rs.Title, &fetched, &rs.Fights, &rs.Windows); err != nil {
			return nil, err
		}
		var parseErr error
		rs.FetchedAt, parseErr = time.Parse(time.RFC3339Nano, fetched)
		if parseErr != nil {
			return nil, fmt.Errorf("parse fetched_at for report %s: %w", rs.Code, parseErr)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// DeleteReport removes a report and everything cached for it.
func (s *Store) DeleteReport(ctx context.Context, code string) error {
	return retryOnContention(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE code = ?`, code)
		return err
	})
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// SaveEvents stores the complete event sequence for q, replacing any
// previous copy of the same window. The report must already be saved.
func (s *Store) SaveEvents(ctx context.Context, q source.EventQuery, events []model.Event) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return retryOnContention(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM event_windows WHERE code = ? AND actor_id = ? AND start_time = ? AND end_time = ?`,
			q.Code, q.ActorID, q.Start, q.End,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_windows (code, actor_id, start_time, end_time, fetched_at)
			 VALUES (?, ?, ?, ?, ?)`,
			q.Code, q.ActorID, q.Start, q.End, now,
		); err != nil {
			return fmt.Errorf("insert window %s: %w", q, err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO events (code, actor_id, start_time, end_time, seq, timestamp, type,
			                     source_id, target_id, ability_guid, ability_name, ability_type, amount, raw)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, e := range events {
			var guid, abilityType sql.NullInt64
			var name sql.NullString
			if e.Ability != nil {
				guid = sql.NullInt64{Int64: int64(e.Ability.GUID), Valid: true}
				abilityType = sql.NullInt64{Int64: int64(e.Ability.Type), Valid: true}
				name = sql.NullString{String: e.Ability.Name, Valid: true}
			}
			var raw sql.NullString
			if len(e.Raw) > 0 {
				raw = sql.NullString{String: string(e.Raw), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				q.Code, q.ActorID, q.Start, q.End, i, e.Timestamp, e.Type,
				e.SourceID, e.TargetID, guid, name, abilityType, e.Amount, raw,
			); err != nil {
				return fmt.Errorf("insert event %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// CachedEvents returns the stored sequence for exactly q's window. ok is
// false when that window has never been saved.
func (s *Store) CachedEvents(ctx context.Context, q source.EventQuery) (events []model.Event, ok bool, err error) {
	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM event_windows WHERE code = ? AND actor_id = ? AND start_time = ? AND end_time = ?`,
		q.Code, q.ActorID, q.Start, q.End,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, type, source_id, target_id, ability_guid, ability_name, ability_type, amount, raw
		 FROM events
		 WHERE code = ? AND actor_id = ? AND start_time = ? AND end_time = ?
		 ORDER BY seq ASC`,
		q.Code, q.ActorID, q.Start, q.End)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	events, err = scanEvents(rows)
	if err != nil {
		return nil, false, err
	}
	return events, true, nil
}

// Events implements source.EventSource from the cache alone. A window that
// was never saved is source.ErrNotFound.
func (s *Store) Events(ctx context.Context, q source.EventQuery) ([]model.Event, error) {
	events, ok, err := s.CachedEvents(ctx, q)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("events %s: %w", q, source.ErrNotFound)
	}
	return events, nil
}

// CountEvents returns the number of cached events across all windows.
func (s *Store) CountEvents(ctx context.Context) int64 {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0
	}
	return count
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		var e model.Event
		var guid, abilityType sql.NullInt64
		var name, raw sql.NullString
		if err := rows.Scan(&e.Timestamp, &e.Type, &e.SourceID, &e.TargetID,
			&guid, &name, &abilityType, &e.Amount, &raw); err != nil {
			return nil, err
		}
		if guid.Valid {
			e.Ability = &model.Ability{GUID: int(guid.Int64), Name: name.String, Type: int(abilityType.Int64)}
		}
		if raw.Valid {
			e.Raw = json.RawMessage(raw.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
