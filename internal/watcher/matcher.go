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
	"fmt"
	"regexp"
)

// Matcher - скомпилированный шаблон скана. Компилируется один раз
// на прогон: без учета регистра, '.' захватывает переводы строк.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

func NewMatcher(pattern string) (*Matcher, error) {
	re, err := regexp.Compile("(?is)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return &Matcher{pattern: pattern, re: re}, nil
}

// Matches сообщает, встречается ли шаблон где-либо в тексте.
func (m *Matcher) Matches(text string) bool {
	return m.re.MatchString(text)
}

func (m *Matcher) Pattern() string {
	return m.pattern
}
