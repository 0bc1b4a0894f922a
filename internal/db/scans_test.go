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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestGetLastReadMissing(t *testing.T) {
	database := newTestDB(t)

	timestamp, err := database.GetLastRead("alerts")
	require.NoError(t, err)
	assert.Equal(t, "", timestamp)
}

func TestUpsertAndGet(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.UpsertScanState("alerts", "user.bsky.social", "2026-08-20T10:00:00Z"))

	timestamp, err := database.GetLastRead("alerts")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-20T10:00:00Z", timestamp)

	// Повторная вставка заменяет запись
	require.NoError(t, database.UpsertScanState("alerts", "user.bsky.social", "2026-08-21T10:00:00Z"))

	timestamp, err = database.GetLastRead("alerts")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-21T10:00:00Z", timestamp)
}

func TestTouchRunKeepsLastRead(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.UpsertScanState("alerts", "user.bsky.social", "2026-08-20T10:00:00Z"))
	require.NoError(t, database.TouchRun("alerts"))

	timestamp, err := database.GetLastRead("alerts")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-20T10:00:00Z", timestamp)

	states, err := database.ListScanStates("alerts")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.NotEmpty(t, states[0].LastRunAt)
}

func TestResetScanState(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.UpsertScanState("alerts", "user.bsky.social", "2026-08-20T10:00:00Z"))

	existed, err := database.ResetScanState("alerts")
	require.NoError(t, err)
	assert.True(t, existed)

	timestamp, err := database.GetLastRead("alerts")
	require.NoError(t, err)
	assert.Equal(t, "", timestamp)

	// Сброс несуществующего скана - не ошибка
	existed, err = database.ResetScanState("alerts")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestListScanStatesOrdered(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.UpsertScanState("zeta", "z.bsky.social", "2026-08-20T10:00:00Z"))
	require.NoError(t, database.UpsertScanState("alpha", "a.bsky.social", "2026-08-20T11:00:00Z"))
	require.NoError(t, database.UpsertScanState("mid", "m.bsky.social", "2026-08-20T12:00:00Z"))

	states, err := database.ListScanStates("")
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "alpha", states[0].ScanName)
	assert.Equal(t, "mid", states[1].ScanName)
	assert.Equal(t, "zeta", states[2].ScanName)

	states, err = database.ListScanStates("mid")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "m.bsky.social", states[0].Handle)
}

func TestMigrationAddsLastRunAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// Старая схема без last_run_at
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(`
	CREATE TABLE scan_state (
		scan_name TEXT PRIMARY KEY,
		handle TEXT NOT NULL,
		last_read_timestamp TEXT NOT NULL,
		updated_at TEXT
	)`)
	require.NoError(t, err)
	_, err = raw.Exec(`
		INSERT INTO scan_state (scan_name, handle, last_read_timestamp, updated_at)
		VALUES (?, ?, ?, ?)
	`, "legacy", "old.bsky.social", "2026-08-01T00:00:00Z", "2026-08-01T00:00:00Z")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	database, err := NewDB(path)
	require.NoError(t, err)
	defer database.Close()

	// Старая запись читается, данные не потеряны
	states, err := database.ListScanStates("")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "legacy", states[0].ScanName)
	assert.Equal(t, "2026-08-01T00:00:00Z", states[0].LastReadTimestamp)
	assert.Equal(t, "", states[0].LastRunAt)

	require.NoError(t, database.TouchRun("legacy"))

	states, err = database.ListScanStates("legacy")
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.NotEmpty(t, states[0].LastRunAt)
}
