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
	"time"
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// GetLastRead возвращает последнюю прочитанную метку времени скана.
// Отсутствие записи не является ошибкой: возвращается пустая строка.
func (db *DB) GetLastRead(scanName string) (string, error) {
	var timestamp string
	err := db.QueryRow(`
		SELECT last_read_timestamp FROM scan_state WHERE scan_name = ?
	`, scanName).Scan(&timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}

	return timestamp, nil
}

// UpsertScanState заменяет запись скана новой меткой времени.
func (db *DB) UpsertScanState(scanName, handle, timestamp string) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO scan_state (scan_name, handle, last_read_timestamp, last_run_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, scanName, handle, timestamp, now(), now())
	return err
}

// TouchRun обновляет только время запуска, не трогая метку чтения.
func (db *DB) TouchRun(scanName string) error {
	_, err := db.Exec(`
		UPDATE scan_state
		SET last_run_at = ?, updated_at = ?
		WHERE scan_name = ?
	`, now(), now(), scanName)
	return err
}

// ResetScanState удаляет запись скана. Возвращает, существовала ли она.
func (db *DB) ResetScanState(scanName string) (bool, error) {
	result, err := db.Exec(`
		DELETE FROM scan_state WHERE scan_name = ?
	`, scanName)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// ListScanStates возвращает записи сканов; при пустом имени - все, по алфавиту.
func (db *DB) ListScanStates(scanName string) ([]ScanState, error) {
	var rows *sql.Rows
	var err error
	if scanName != "" {
		rows, err = db.Query(`
			SELECT scan_name, handle, last_read_timestamp, last_run_at, updated_at
			FROM scan_state WHERE scan_name = ?
		`, scanName)
	} else {
		rows, err = db.Query(`
			SELECT scan_name, handle, last_read_timestamp, last_run_at, updated_at
			FROM scan_state ORDER BY scan_name
		`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []ScanState
	for rows.Next() {
		var state ScanState
		var lastRunAt, updatedAt sql.NullString
		err := rows.Scan(
			&state.ScanName,
			&state.Handle,
			&state.LastReadTimestamp,
			&lastRunAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		// Колонки, добавленные миграцией, могут быть NULL у старых записей
		state.LastRunAt = lastRunAt.String
		state.UpdatedAt = updatedAt.String

		states = append(states, state)
	}

	return states, rows.Err()
}
