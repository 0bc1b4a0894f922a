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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(matches int) Result {
	result := Result{ScanName: "alerts", ScannedPosts: 10}
	for i := 0; i < matches; i++ {
		result.Matches = append(result.Matches, Match{
			Handle:    "user.bsky.social",
			CreatedAt: "2026-08-23T10:00:00Z",
			Text:      "Breaking: market opens up",
			Pattern:   "breaking",
			URI:       "at://did:plc:abc/app.bsky.feed.post/xyz",
			URL:       "https://bsky.app/profile/user.bsky.social/post/xyz",
		})
	}

	return result
}

func TestSendWebhookPayload(t *testing.T) {
	var received webhookPayload
	var contentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(nil)
	require.NoError(t, d.sendWebhook(context.Background(), server.URL, sampleResult(3)))

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "alerts", received.ScanName)
	assert.Equal(t, 3, received.TotalMatches)
	assert.Equal(t, 10, received.ScannedPosts)
	require.Len(t, received.Matches, 3)
	assert.Equal(t, "breaking", received.Matches[0].Pattern)
	assert.Equal(t, "https://bsky.app/profile/user.bsky.social/post/xyz", received.Matches[0].URL)
}

func TestSendWebhookNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewDispatcher(nil)
	err := d.sendWebhook(context.Background(), server.URL, sampleResult(1))
	require.Error(t, err)
}

func TestDispatchWebhookFailureDoesNotBlockShell(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	marker := t.TempDir() + "/ran"

	result := sampleResult(1)
	ch := Channels{
		WebhookURL:    server.URL,
		ShellTemplate: "touch " + marker,
	}

	d := NewDispatcher(nil)
	d.Dispatch(context.Background(), ch, result)

	// Сбой вебхука не мешает shell-каналу
	assert.FileExists(t, marker)
}

func TestDispatchNoMatchesNoDelivery(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	d := NewDispatcher(nil)
	d.Dispatch(context.Background(), Channels{WebhookURL: server.URL}, Result{ScanName: "alerts"})

	assert.False(t, called)
}
