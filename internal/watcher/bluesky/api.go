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

package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultService = "https://bsky.social"

	// Максимальный размер страницы getAuthorFeed по протоколу
	MaxFeedPageSize = 100
)

type Client struct {
	service   string
	http      *http.Client
	accessJwt string
	did       string
}

func NewClient(service string) *Client {
	if service == "" {
		service = DefaultService
	}

	return &Client{
		service: strings.TrimSuffix(service, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bluesky API error %d (%s): %s", e.Status, e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values, body any, out any) error {
	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.service+"/xrpc/"+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Code = "UnknownError"
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// CreateSession авторизуется и запоминает токен доступа на клиенте.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) error {
	var session struct {
		AccessJwt string `json:"accessJwt"`
		DID       string `json:"did"`
		Handle    string `json:"handle"`
	}

	err := c.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil, map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.accessJwt = session.AccessJwt
	c.did = session.DID

	return nil
}

// GetAuthorFeed возвращает одну страницу ленты автора, от новых к старым.
func (c *Client) GetAuthorFeed(ctx context.Context, actor string, limit int, cursor string) (*FeedPage, error) {
	if limit <= 0 || limit > MaxFeedPageSize {
		limit = MaxFeedPageSize
	}

	params := url.Values{}
	params.Set("actor", actor)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page FeedPage
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getAuthorFeed", params, nil, &page); err != nil {
		return nil, fmt.Errorf("failed to get author feed: %w", err)
	}

	return &page, nil
}

// GetProfile возвращает профиль аккаунта (в первую очередь его DID).
func (c *Client) GetProfile(ctx context.Context, actor string) (*Profile, error) {
	params := url.Values{}
	params.Set("actor", actor)

	var profile Profile
	if err := c.call(ctx, http.MethodGet, "app.bsky.actor.getProfile", params, nil, &profile); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}

// GetPosts возвращает посты по их at://-идентификаторам.
func (c *Client) GetPosts(ctx context.Context, uris []string) ([]Post, error) {
	params := url.Values{}
	for _, uri := range uris {
		params.Add("uris", uri)
	}

	var result struct {
		Posts []Post `json:"posts"`
	}
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getPosts", params, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}

	return result.Posts, nil
}

// PostURL строит человекочитаемую ссылку на пост из его at://-URI.
// Нестандартный URI возвращается как есть.
func PostURL(uri, handle string) string {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return uri
	}

	// did/collection/rkey
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "app.bsky.feed.post" {
		return uri
	}

	return fmt.Sprintf("https://bsky.app/profile/%s/post/%s", handle, parts[2])
}

// ParsePostURL разбирает ссылку вида https://bsky.app/profile/<handle>/post/<rkey>.
func ParsePostURL(postURL string) (handle, rkey string, err error) {
	parsed, err := url.Parse(postURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid post URL: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "profile" || parts[2] != "post" {
		return "", "", fmt.Errorf("unrecognized post URL format: %s", postURL)
	}

	return parts[1], parts[3], nil
}
