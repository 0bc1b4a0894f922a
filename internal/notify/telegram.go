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
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
)

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)

	return replacer.Replace(text)
}

// sendTelegram отправляет одно совпадение отдельным сообщением.
func (d *Dispatcher) sendTelegram(ctx context.Context, chatID int64, scanName string, match Match) error {
	text := match.Text
	if len([]rune(text)) > 500 {
		text = string([]rune(text)[:500]) + "\n\n⚠️ Текст был обрезан."
	}

	msgText := fmt.Sprintf(
		"🔔 *Совпадение в скане \"%s\"*:\n\n"+
			"📝 *Текст*: %s\n\n"+
			"👤 *Аккаунт*: %s\n"+
			"🔗 *Ссылка*: [Перейти к посту](%s)\n"+
			"⏰ *Время публикации*: %s",
		escapeMarkdown(scanName),
		escapeMarkdown(text),
		escapeMarkdown(match.Handle),
		match.URL,
		match.CreatedAt,
	)

	params := &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      msgText,
		ParseMode: "Markdown",
	}

	if _, err := d.tg.SendMessage(ctx, params); err != nil {
		return err
	}

	return nil
}
