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

package notify

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/mymmrac/telego"
)

// Match - один пост, подошедший под шаблон скана.
type Match struct {
	Handle    string `json:"handle"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
	Pattern   string `json:"pattern"`
	URI       string `json:"uri"`
	URL       string `json:"url"`
}

// Result - итог одного прогона скана, единица доставки.
type Result struct {
	ScanName     string
	Matches      []Match
	ScannedPosts int
}

// Channels - настроенные каналы доставки. Пустое значение отключает канал.
type Channels struct {
	WebhookURL      string
	ShellTemplate   string
	ShellExecutable string
	TelegramChatID  int64
}

// Configured сообщает, настроен ли хотя бы один канал.
func (ch Channels) Configured() bool {
	return ch.WebhookURL != "" || ch.ShellTemplate != "" || ch.TelegramChatID != 0
}

type Dispatcher struct {
	http *http.Client
	tg   *telego.Bot
}

// NewDispatcher создает диспетчер уведомлений. Телеграм-бот опционален,
// при nil телеграм-канал просто недоступен.
func NewDispatcher(tg *telego.Bot) *Dispatcher {
	return &Dispatcher{
		http: &http.Client{Timeout: 30 * time.Second},
		tg:   tg,
	}
}

// Dispatch доставляет результат скана по всем настроенным каналам.
// Каналы независимы: сбой одного логируется и не мешает остальным,
// сбой доставки одного совпадения не мешает следующим.
func (d *Dispatcher) Dispatch(ctx context.Context, ch Channels, result Result) {
	if len(result.Matches) == 0 {
		return
	}

	if ch.WebhookURL != "" {
		if err := d.sendWebhook(ctx, ch.WebhookURL, result); err != nil {
			log.Printf("Error calling webhook for %s: %v", result.ScanName, err)
		} else {
			log.Printf("Webhook called successfully for %s", result.ScanName)
		}
	}

	if ch.ShellTemplate != "" {
		for _, match := range result.Matches {
			if err := d.runShell(ctx, ch, match); err != nil {
				log.Printf("Shell command failed for %s: %v", result.ScanName, err)
				continue
			}
			log.Printf("Shell command executed successfully for %s", result.ScanName)
		}
	}

	if ch.TelegramChatID != 0 {
		if d.tg == nil {
			log.Printf("Telegram channel requested for %s, but no bot token is configured", result.ScanName)
			return
		}
		for _, match := range result.Matches {
			if err := d.sendTelegram(ctx, ch.TelegramChatID, result.ScanName, match); err != nil {
				log.Printf("Error sending telegram notification for %s: %v", result.ScanName, err)
			}
		}
	}
}
