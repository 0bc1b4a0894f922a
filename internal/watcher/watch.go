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
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Watch запускает все сканы по cron-расписанию до отмены контекста.
// Каждая итерация - обычный пакетный прогон, как от внешнего планировщика.
func (r *Runner) Watch(ctx context.Context, cronSpec string, scanAtStartup bool) error {
	c := cron.New()
	_, err := c.AddFunc(cronSpec, func() {
		log.Printf("Running scheduled scans...")
		r.RunAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronSpec, err)
	}

	if scanAtStartup {
		log.Printf("Performing initial scan on startup...")
		r.RunAll(ctx)
	}

	c.Start()
	log.Printf("Watching on schedule %q. Press CTRL-C to exit.", cronSpec)

	<-ctx.Done()
	c.Stop()
	log.Printf("Scheduler stopped.")

	return nil
}
