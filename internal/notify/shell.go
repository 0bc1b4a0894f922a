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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
)

const (
	shellTimeout = 30 * time.Second

	defaultShell = "/bin/sh"
)

// BuildShellCommand подставляет поля совпадения в шаблон команды.
// Каждое значение экранируется: текст поста не должен читаться
// оболочкой как синтаксис.
func BuildShellCommand(template string, match Match) string {
	replacer := strings.NewReplacer(
		"{handle}", shellescape.Quote(match.Handle),
		"{created_at}", shellescape.Quote(match.CreatedAt),
		"{text}", shellescape.Quote(match.Text),
		"{pattern}", shellescape.Quote(match.Pattern),
		"{uri}", shellescape.Quote(match.URI),
		"{url}", shellescape.Quote(match.URL),
	)

	return replacer.Replace(template)
}

// runShell выполняет команду шаблона для одного совпадения.
func (d *Dispatcher) runShell(ctx context.Context, ch Channels, match Match) error {
	command := BuildShellCommand(ch.ShellTemplate, match)

	executable := ch.ShellExecutable
	if executable == "" {
		executable = defaultShell
	}

	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return err
	}

	return nil
}
