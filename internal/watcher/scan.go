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

	"Unbewohnte/BSKYWATCH/internal/notify"
	"Unbewohnte/BSKYWATCH/internal/watcher/bluesky"
)

// StateStore - хранилище водяных знаков сканов. Оркестратор - его
// единственный писатель.
type StateStore interface {
	GetLastRead(scanName string) (string, error)
	UpsertScanState(scanName, handle, timestamp string) error
	TouchRun(scanName string) error
}

type Notifier interface {
	Dispatch(ctx context.Context, ch notify.Channels, result notify.Result)
}

// FeedAPI - операции Bluesky API, нужные оркестратору.
type FeedAPI interface {
	AuthorFeedSource
	GetProfile(ctx context.Context, actor string) (*bluesky.Profile, error)
	GetPosts(ctx context.Context, uris []string) ([]bluesky.Post, error)
}

type Runner struct {
	conf     *Config
	store    StateStore
	api      FeedAPI
	fetcher  *Fetcher
	notifier Notifier
}

func NewRunner(conf *Config, store StateStore, api FeedAPI, notifier Notifier) *Runner {
	return &Runner{
		conf:     conf,
		store:    store,
		api:      api,
		fetcher:  NewFetcher(api),
		notifier: notifier,
	}
}

// channels собирает каналы доставки скана.
func (r *Runner) channels(scan *ScanConfig) notify.Channels {
	ch := notify.Channels{
		WebhookURL:      scan.WebhookURL,
		ShellTemplate:   scan.Shell,
		ShellExecutable: scan.ShellExecutable,
	}
	if scan.Telegram {
		ch.TelegramChatID = r.conf.Telegram.ChatID
	}

	return ch
}

// RunAll прогоняет все сканы по очереди. Ошибка одного скана
// логируется и не мешает остальным.
func (r *Runner) RunAll(ctx context.Context) {
	for i := range r.conf.Scans {
		if err := r.RunScan(ctx, &r.conf.Scans[i]); err != nil {
			log.Printf("Scan %s failed: %v", r.conf.Scans[i].Name, err)
		}
	}
}

// RunScan выполняет один скан: читает водяной знак, собирает новые
// посты, сканирует их, продвигает водяной знак и рассылает совпадения.
func (r *Runner) RunScan(ctx context.Context, scan *ScanConfig) error {
	if scan.Handle == "" || scan.Pattern == "" {
		log.Printf("Skipping scan '%s': missing handle or pattern", scan.Name)
		return nil
	}
	if !r.channels(scan).Configured() {
		log.Printf("Skipping scan '%s': no notification channel configured (webhook_url, shell or telegram)", scan.Name)
		return nil
	}

	log.Printf("Running scan: %s", scan.Name)

	lastRead, err := r.store.GetLastRead(scan.Name)
	if err != nil {
		return fmt.Errorf("failed to read scan state: %w", err)
	}

	posts, fetchErr := r.fetcher.FetchBackward(ctx, scan.Handle, lastRead, scan.LookbackHours, scan.Limit)
	if fetchErr != nil {
		if len(posts) == 0 {
			return fmt.Errorf("failed to fetch timeline for %s: %w", scan.Handle, fetchErr)
		}
		// Частичный результат обрабатываем: водяной знак продвинется
		// только до реально полученных постов, остальное доберет
		// следующий прогон
		log.Printf("Fetch for %s interrupted, continuing with %d collected posts: %v", scan.Name, len(posts), fetchErr)
	}

	if lastRead != "" {
		log.Printf("Filtered to %d new posts since %s", len(posts), lastRead)
	}

	if len(posts) == 0 {
		log.Printf("No new posts to scan for %s", scan.Name)
		if err := r.store.TouchRun(scan.Name); err != nil {
			return fmt.Errorf("failed to update run time: %w", err)
		}
		return nil
	}

	// Компиляция после проверки на пустоту: при кривом шаблоне водяной
	// знак не двигается и непросканированные посты не теряются
	matcher, err := NewMatcher(scan.Pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern for %s: %w", scan.Name, err)
	}

	var matches []notify.Match
	latest := ""
	for _, post := range posts {
		// Максимум created_at среди всех рассмотренных постов,
		// независимо от совпадений (лексикографическое сравнение)
		if post.CreatedAt > latest {
			latest = post.CreatedAt
		}

		if !matcher.Matches(post.Text) {
			continue
		}

		matches = append(matches, notify.Match{
			Handle:    post.Handle,
			CreatedAt: post.CreatedAt,
			Text:      post.Text,
			Pattern:   scan.Pattern,
			URI:       post.URI,
			URL:       bluesky.PostURL(post.URI, post.Handle),
		})
		log.Printf("Match found in %s: %s  %s", scan.Name, post.CreatedAt, post.Text)
	}

	if latest != "" {
		if err := r.store.UpsertScanState(scan.Name, scan.Handle, latest); err != nil {
			return fmt.Errorf("failed to update scan state: %w", err)
		}
	} else {
		if err := r.store.TouchRun(scan.Name); err != nil {
			return fmt.Errorf("failed to update run time: %w", err)
		}
	}

	if len(matches) == 0 {
		log.Printf("No matches found for %s", scan.Name)
		return nil
	}

	r.notifier.Dispatch(ctx, r.channels(scan), notify.Result{
		ScanName:     scan.Name,
		Matches:      matches,
		ScannedPosts: len(posts),
	})

	return nil
}

// TestPost прогоняет шаблон скана по одному конкретному посту,
// не трогая водяной знак. При execute совпадение рассылается
// по настроенным каналам скана.
func (r *Runner) TestPost(ctx context.Context, scan *ScanConfig, postURL string, execute bool) error {
	handle, rkey, err := bluesky.ParsePostURL(postURL)
	if err != nil {
		return err
	}

	profile, err := r.api.GetProfile(ctx, handle)
	if err != nil {
		return fmt.Errorf("failed to resolve handle %s: %w", handle, err)
	}

	uri := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", profile.DID, rkey)
	posts, err := r.api.GetPosts(ctx, []string{uri})
	if err != nil {
		return fmt.Errorf("failed to fetch post %s: %w", uri, err)
	}
	if len(posts) == 0 {
		return fmt.Errorf("post not found: %s", uri)
	}

	matcher, err := NewMatcher(scan.Pattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern for %s: %w", scan.Name, err)
	}

	post := posts[0]
	if !matcher.Matches(post.Record.Text) {
		log.Printf("No match: pattern %q does not match post text", scan.Pattern)
		return nil
	}

	match := notify.Match{
		Handle:    handle,
		CreatedAt: post.Record.CreatedAt,
		Text:      post.Record.Text,
		Pattern:   scan.Pattern,
		URI:       post.URI,
		URL:       bluesky.PostURL(post.URI, handle),
	}
	log.Printf("Match found: %s  %s", match.CreatedAt, match.Text)

	if !execute {
		log.Printf("Dry run, notifications not dispatched (use --execute to dispatch)")
		return nil
	}

	r.notifier.Dispatch(ctx, r.channels(scan), notify.Result{
		ScanName:     scan.Name,
		Matches:      []notify.Match{match},
		ScannedPosts: 1,
	})

	return nil
}
