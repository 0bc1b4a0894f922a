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

package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[bluesky]
username = "user.bsky.social"
password = "app-password"

[storage]
database = "custom.db"

[telegram]
token = "tg-token"
chat_id = 42

[[scan]]
name = "alerts"
handle = "target.bsky.social"
pattern = "(?i)breaking"
webhook_url = "https://example.com/hook"
limit = 50
lookback_hours = 12

[[scan]]
name = "shouts"
handle = "other.bsky.social"
pattern = "hello"
shell = "notify-send {handle} {text}"
shell_executable = "/bin/bash"
telegram = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestLoadConfig(t *testing.T) {
	conf, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "user.bsky.social", conf.Bluesky.Username)
	assert.Equal(t, "app-password", conf.Bluesky.Password)
	assert.Equal(t, "custom.db", conf.Storage.Database)
	assert.Equal(t, "tg-token", conf.Telegram.Token)
	assert.Equal(t, int64(42), conf.Telegram.ChatID)

	require.Len(t, conf.Scans, 2)
	assert.Equal(t, "alerts", conf.Scans[0].Name)
	assert.Equal(t, "target.bsky.social", conf.Scans[0].Handle)
	assert.Equal(t, "(?i)breaking", conf.Scans[0].Pattern)
	assert.Equal(t, 50, conf.Scans[0].Limit)
	assert.Equal(t, 12, conf.Scans[0].LookbackHours)

	assert.Equal(t, "notify-send {handle} {text}", conf.Scans[1].Shell)
	assert.Equal(t, "/bin/bash", conf.Scans[1].ShellExecutable)
	assert.True(t, conf.Scans[1].Telegram)

	require.NoError(t, conf.ValidateCredentials())

	scan, ok := conf.Scan("shouts")
	require.True(t, ok)
	assert.Equal(t, "other.bsky.social", scan.Handle)

	_, ok = conf.Scan("missing")
	assert.False(t, ok)
}

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig(writeConfig(t, `
[bluesky]
username = "u"
password = "p"
`))
	require.NoError(t, err)

	assert.Equal(t, "bskywatch.db", conf.Storage.Database)
	assert.Empty(t, conf.Scans)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BLUESKY_PASSWORD", "from-env")

	conf, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Bluesky.Password)
}

func TestValidateCredentialsMissing(t *testing.T) {
	conf := &Config{}
	require.Error(t, conf.ValidateCredentials())
}
