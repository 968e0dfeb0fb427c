// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sqlstore

import (
	"strconv"
	"strings"
)

// dialect - differences between the SQL backends
type dialect struct {
	name   string
	driver string
	blob   string
	// numbered placeholders ($1, $2 ...) instead of ?
	numbered bool
}

var sqliteDialect = dialect{
	name:   "sqlite",
	driver: "sqlite",
	blob:   "BLOB",
}

var postgresDialect = dialect{
	name:     "postgres",
	driver:   "pgx",
	blob:     "BYTEA",
	numbered: true,
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			link TEXT PRIMARY KEY,
			packed ` + d.blob + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			link TEXT PRIMARY KEY,
			version_id TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			seq BIGINT NOT NULL,
			status INTEGER NOT NULL,
			consumed_by TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS unique_id_idx ON records (version_id, seq)`,
		`CREATE INDEX IF NOT EXISTS fingerprint_idx ON records (fingerprint, status)`,
	}
}

// rebind - convert ? placeholders for the backend
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if '?' == c {
			n += 1
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
