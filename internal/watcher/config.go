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
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type BlueskyConf struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Service  string `mapstructure:"service"`
}

type StorageConf struct {
	Database string `mapstructure:"database"`
}

type TelegramConf struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// ScanConfig - одна именованная конфигурация сканирования.
type ScanConfig struct {
	Name            string `mapstructure:"name"`
	Handle          string `mapstructure:"handle"`
	Pattern         string `mapstructure:"pattern"`
	WebhookURL      string `mapstructure:"webhook_url"`
	Shell           string `mapstructure:"shell"`
	ShellExecutable string `mapstructure:"shell_executable"`
	Telegram        bool   `mapstructure:"telegram"`
	Limit           int    `mapstructure:"limit"`
	LookbackHours   int    `mapstructure:"lookback_hours"`
}

type Config struct {
	Bluesky  BlueskyConf
	Storage  StorageConf
	Telegram TelegramConf
	Scans    []ScanConfig
}

// LoadConfig читает TOML-конфигурацию. Учетные данные можно переопределить
// переменными окружения (BLUESKY_USERNAME, BLUESKY_PASSWORD, TELEGRAM_TOKEN),
// в том числе из .env файла рядом с бинарником.
func LoadConfig(path string) (*Config, error) {
	// .env может отсутствовать, это не ошибка
	godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("bluesky.service", "")
	v.SetDefault("storage.database", "bskywatch.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var conf Config
	// Get вместо Unmarshal для учетных данных: AutomaticEnv
	// учитывается только при прямом обращении к ключам
	conf.Bluesky.Username = v.GetString("bluesky.username")
	conf.Bluesky.Password = v.GetString("bluesky.password")
	conf.Bluesky.Service = v.GetString("bluesky.service")
	conf.Storage.Database = v.GetString("storage.database")
	conf.Telegram.Token = v.GetString("telegram.token")
	conf.Telegram.ChatID = v.GetInt64("telegram.chat_id")

	if err := v.UnmarshalKey("scan", &conf.Scans); err != nil {
		return nil, fmt.Errorf("failed to parse scan configurations: %w", err)
	}

	return &conf, nil
}

// ValidateCredentials проверяет, что данные для входа в Bluesky заданы.
func (conf *Config) ValidateCredentials() error {
	if conf.Bluesky.Username == "" || conf.Bluesky.Password == "" {
		return errors.New("bluesky credentials missing in config file")
	}

	return nil
}

// Scan возвращает конфигурацию скана по имени.
func (conf *Config) Scan(name string) (*ScanConfig, bool) {
	for i := range conf.Scans {
		if conf.Scans[i].Name == name {
			return &conf.Scans[i], true
		}
	}

	return nil, false
}
