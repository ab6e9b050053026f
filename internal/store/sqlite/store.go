// Package sqlite keeps the operation journal: one row per install, update,
// configure, or service action, so `meshup history` can show what the tool
// did to the system and when.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

type OperationRecord struct {
	OperationID string `json:"operationId"`
	Kind        string `json:"kind"`
	Channel     string `json:"channel,omitempty"`
	Frontend    string `json:"frontend,omitempty"`
	Status      string `json:"status"`
	ExitCode    *int   `json:"exitCode,omitempty"`
	Version     string `json:"version,omitempty"`
	StartedAt   string `json:"startedAt"`
	EndedAt     string `json:"endedAt,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

func Open(stateDir string) (*Store, error) {
	if stateDir == "" {
		stateDir = ".meshup"
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(stateDir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS operations (
		operation_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		channel TEXT,
		frontend TEXT,
		status TEXT NOT NULL,
		exit_code INTEGER,
		version TEXT,
		started_at TEXT NOT NULL,
		ended_at TEXT,
		last_error TEXT
	);`)
	return err
}

func (s *Store) InsertOperation(r OperationRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO operations (operation_id, kind, channel, frontend, status, exit_code, version, started_at, ended_at, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.OperationID, r.Kind, nullableString(r.Channel), nullableString(r.Frontend), r.Status,
		nullableInt(r.ExitCode), nullableString(r.Version), r.StartedAt, nullableString(r.EndedAt), nullableString(r.LastError),
	)
	return err
}

func (s *Store) UpdateOperationCompletion(opID, status, version string, exitCode *int, lastError string) error {
	_, err := s.db.Exec(
		`UPDATE operations SET status = ?, version = ?, exit_code = ?, ended_at = ?, last_error = ? WHERE operation_id = ?`,
		status, nullableString(version), nullableInt(exitCode), time.Now().UTC().Format(time.RFC3339Nano), nullableString(lastError), opID,
	)
	return err
}

func (s *Store) GetOperation(opID string) (OperationRecord, error) {
	row := s.db.QueryRow(`SELECT operation_id, kind, COALESCE(channel,''), COALESCE(frontend,''), status, exit_code, COALESCE(version,''), started_at, COALESCE(ended_at,''), COALESCE(last_error,'') FROM operations WHERE operation_id = ?`, opID)
	var r OperationRecord
	var exit sql.NullInt64
	if err := row.Scan(&r.OperationID, &r.Kind, &r.Channel, &r.Frontend, &r.Status, &exit, &r.Version, &r.StartedAt, &r.EndedAt, &r.LastError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OperationRecord{}, fmt.Errorf("operation not found: %s", opID)
		}
		return OperationRecord{}, err
	}
	if exit.Valid {
		v := int(exit.Int64)
		r.ExitCode = &v
	}
	return r, nil
}

func (s *Store) ListOperations(limit int) ([]OperationRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(`SELECT operation_id, kind, COALESCE(channel,''), COALESCE(frontend,''), status, exit_code, COALESCE(version,''), started_at, COALESCE(ended_at,''), COALESCE(last_error,'')
		FROM operations ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OperationRecord, 0)
	for rows.Next() {
		var r OperationRecord
		var exit sql.NullInt64
		if err := rows.Scan(&r.OperationID, &r.Kind, &r.Channel, &r.Frontend, &r.Status, &exit, &r.Version, &r.StartedAt, &r.EndedAt, &r.LastError); err != nil {
			return nil, err
		}
		if exit.Valid {
			v := int(exit.Int64)
			r.ExitCode = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
