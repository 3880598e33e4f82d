package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS worlds (
			instance_name TEXT NOT NULL,
			name TEXT NOT NULL,
			last_seen DATETIME NOT NULL,
			background TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (instance_name, name)
		);
		CREATE INDEX IF NOT EXISTS idx_worlds_last_seen
			ON worlds(last_seen);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *sqliteStorage) Upsert(rec WorldRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO worlds (instance_name, name, last_seen, background)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(instance_name, name)
		 DO UPDATE SET last_seen = excluded.last_seen, background = excluded.background`,
		rec.InstanceName, rec.Name, rec.LastSeen, rec.Background,
	)
	if err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (s *sqliteStorage) List() ([]WorldRecord, error) {
	rows, err := s.db.Query(
		`SELECT instance_name, name, last_seen, background FROM worlds
		 ORDER BY last_seen DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var result []WorldRecord
	for rows.Next() {
		var rec WorldRecord
		if err := rows.Scan(&rec.InstanceName, &rec.Name, &rec.LastSeen, &rec.Background); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *sqliteStorage) Delete(instanceName, name string) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM worlds WHERE instance_name = ? AND name = ?`,
		instanceName, name,
	)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *sqliteStorage) Cleanup(olderThan time.Time) error {
	_, err := s.db.Exec(`DELETE FROM worlds WHERE last_seen < ?`, olderThan)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
