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

// PostRecord - содержимое записи поста. Отсутствующие поля остаются
// пустыми строками, это ожидаемо для нетекстовых постов.
type PostRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"` // ISO-8601, UTC
}

type Post struct {
	URI    string     `json:"uri"` // at://did:plc:xxx/app.bsky.feed.post/rkey
	CID    string     `json:"cid"`
	Record PostRecord `json:"record"`
}

type FeedItem struct {
	Post Post `json:"post"`
}

// FeedPage - одна страница ленты автора. Пустой Cursor означает,
// что дальше страниц нет.
type FeedPage struct {
	Feed   []FeedItem `json:"feed"`
	Cursor string     `json:"cursor"`
}

type Profile struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}
