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

// Модель состояния одного скана
type ScanState struct {
	ScanName          string `db:"scan_name"`           // Имя скана (первичный ключ)
	Handle            string `db:"handle"`              // Отслеживаемый аккаунт
	LastReadTimestamp string `db:"last_read_timestamp"` // ISO-8601 UTC; граница уже просмотренных постов
	LastRunAt         string `db:"last_run_at"`         // Время последнего запуска
	UpdatedAt         string `db:"updated_at"`
}
