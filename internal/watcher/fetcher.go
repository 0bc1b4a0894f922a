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
	"sort"
	"time"

	"Unbewohnte/BSKYWATCH/internal/watcher/bluesky"

	"golang.org/x/time/rate"
)

const (
	defaultLookbackHours = 24

	// Пауза между запросами страниц, чтобы не упереться в лимиты API
	defaultPageDelay = time.Second
)

// AuthorFeedSource - часть Bluesky API, нужная сборщику постов.
type AuthorFeedSource interface {
	GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*bluesky.FeedPage, error)
}

// Post - один кандидат на сканирование. Живет только внутри прогона.
type Post struct {
	URI       string
	Text      string
	CreatedAt string // ISO-8601, UTC
	Handle    string
}

type Fetcher struct {
	source    AuthorFeedSource
	pageDelay time.Duration
	now       func() time.Time
}

func NewFetcher(source AuthorFeedSource) *Fetcher {
	return &Fetcher{
		source:    source,
		pageDelay: defaultPageDelay,
		now:       time.Now,
	}
}

// FetchBackward листает ленту от новых постов к старым и собирает всё
// новее водяного знака и не старше окна lookbackHours. При пустом
// watermark границей служит только окно. Ошибка посреди листания не
// выбрасывает уже собранное: частичный результат возвращается вместе
// с ошибкой. Результат отсортирован по возрастанию created_at.
//
// Сравнение меток времени - обычное лексикографическое сравнение строк.
// Оно корректно только потому, что источник отдает ISO-8601 в UTC с
// фиксированной шириной полей; не заменять на разбор времени.
func (f *Fetcher) FetchBackward(ctx context.Context, handle, watermark string, lookbackHours, limit int) ([]Post, error) {
	if lookbackHours <= 0 {
		lookbackHours = defaultLookbackHours
	}
	cutoff := f.now().UTC().Add(-time.Duration(lookbackHours) * time.Hour).Format(time.RFC3339)

	// Лимитер с корзиной на один токен: первая страница проходит сразу,
	// последующие ждут паузу
	limiter := rate.NewLimiter(rate.Every(f.pageDelay), 1)

	var posts []Post
	cursor := ""
	for {
		if err := limiter.Wait(ctx); err != nil {
			return posts, err
		}

		page, err := f.source.GetAuthorFeed(ctx, handle, limit, cursor)
		if err != nil {
			sortByCreatedAt(posts)
			return posts, err
		}

		reachedBound := false
		for _, item := range page.Feed {
			created := item.Post.Record.CreatedAt
			if watermark != "" && created <= watermark {
				reachedBound = true
				break
			}
			if created <= cutoff {
				reachedBound = true
				break
			}

			posts = append(posts, Post{
				URI:       item.Post.URI,
				Text:      item.Post.Record.Text,
				CreatedAt: created,
				Handle:    handle,
			})
		}

		if reachedBound || page.Cursor == "" || len(page.Feed) == 0 {
			break
		}
		cursor = page.Cursor
	}

	sortByCreatedAt(posts)
	return posts, nil
}

func sortByCreatedAt(posts []Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt < posts[j].CreatedAt
	})
}
