/*
   BSKYWATCH - Bluesky timeline pattern watcher
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package db

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// migrate создает таблицу состояний или дополняет старую схему.
// Миграция только добавляющая: существующие записи не трогаются.
func migrate(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(scan_state)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(columns) == 0 {
		_, err = db.Exec(`
		CREATE TABLE scan_state (
			scan_name TEXT PRIMARY KEY,
			handle TEXT NOT NULL,
			last_read_timestamp TEXT NOT NULL,
			last_run_at TEXT,
			updated_at TEXT
		)`)
		return err
	}

	hasLastRunAt := false
	for _, column := range columns {
		if column == "last_run_at" {
			hasLastRunAt = true
			break
		}
	}
	if !hasLastRunAt {
		_, err = db.Exec(`ALTER TABLE scan_state ADD COLUMN last_run_at TEXT`)
		return err
	}

	return nil
}
