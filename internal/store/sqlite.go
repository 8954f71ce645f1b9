//go:build sqlite
// +build sqlite

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "linkscout/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) List(ctx context.Context) ([]Schedule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, api_key, channels, months, frequency, send_time, email, active, created_at
		 FROM schedules ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sch)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, id string) (Schedule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, api_key, channels, months, frequency, send_time, email, active, created_at
		 FROM schedules WHERE id = ?`, id)
	sch, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Schedule{}, ErrNotFound
	}
	if err != nil {
		return Schedule{}, err
	}
	return sch, nil
}

func (s *sqliteStore) Put(ctx context.Context, sch Schedule) error {
	if strings.TrimSpace(sch.ID) == "" {
		return errors.New("schedule id is required")
	}
	channels, err := json.Marshal(sch.Channels)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules(id, name, api_key, channels, months, frequency, send_time, email, active, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, api_key=excluded.api_key, channels=excluded.channels,
		   months=excluded.months, frequency=excluded.frequency, send_time=excluded.send_time,
		   email=excluded.email, active=excluded.active, created_at=excluded.created_at`,
		sch.ID, sch.Name, sch.APIKey, string(channels), sch.LookbackMonths,
		string(sch.Frequency), sch.SendTime, sch.Email, boolInt(sch.Active),
		sch.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(r rowScanner) (Schedule, error) {
	var (
		sch      Schedule
		channels string
		freq     string
		active   int
		created  string
	)
	err := r.Scan(&sch.ID, &sch.Name, &sch.APIKey, &channels, &sch.LookbackMonths,
		&freq, &sch.SendTime, &sch.Email, &active, &created)
	if err != nil {
		return Schedule{}, err
	}
	if err := json.Unmarshal([]byte(channels), &sch.Channels); err != nil {
		return Schedule{}, err
	}
	sch.Frequency = Frequency(freq)
	sch.Active = active != 0
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		sch.CreatedAt = t
	}
	return sch, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
