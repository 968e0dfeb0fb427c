// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sqlstore - record store on SQLite or PostgreSQL
package sqlstore

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
)

// Store - record store over database/sql
type Store struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite - open or create a SQLite database file
func OpenSQLite(path string) (*Store, error) {
	return open(sqliteDialect, path)
}

// OpenPostgres - connect to PostgreSQL with a DSN
func OpenPostgres(dsn string) (*Store, error) {
	return open(postgresDialect, dsn)
}

func open(d dialect, source string) (*Store, error) {
	db, err := sql.Open(d.driver, source)
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}

	// sqlite allows one writer
	if sqliteDialect.name == d.name {
		db.SetMaxOpenConns(1)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); nil != err {
		db.Close()
		return nil, recordstore.QueryFailed(err)
	}

	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); nil != err {
			db.Close()
			return nil, recordstore.QueryFailed(err)
		}
	}

	return &Store{
		db:      db,
		dialect: d,
	}, nil
}

// Backend - name of the dialect in use
func (s *Store) Backend() string {
	return s.dialect.name
}

// Insert - add a committed transaction in one database transaction
func (s *Store) Insert(tx *record.Transaction) error {
	packed, link, err := recordstore.CheckInsertable(tx)
	if nil != err {
		return err
	}

	ctx := context.Background()
	dbTx, err := s.db.BeginTx(ctx, nil)
	if nil != err {
		return recordstore.QueryFailed(err)
	}
	defer dbTx.Rollback()

	var existing int
	err = dbTx.QueryRowContext(ctx, s.dialect.rebind(`SELECT COUNT(*) FROM transactions WHERE link = ?`), link.String()).Scan(&existing)
	if nil != err {
		return recordstore.QueryFailed(err)
	}
	if existing > 0 {
		return nil
	}

	for _, c := range tx.Consumed {
		var consumedBy sql.NullString
		err := dbTx.QueryRowContext(ctx, s.dialect.rebind(`SELECT consumed_by FROM records WHERE link = ?`), c.Link.String()).Scan(&consumedBy)
		if sql.ErrNoRows == err {
			continue
		}
		if nil != err {
			return recordstore.QueryFailed(err)
		}
		if consumedBy.Valid && consumedBy.String != link.String() {
			return fault.ErrConsumedByOther
		}
		_, err = dbTx.ExecContext(ctx, s.dialect.rebind(`UPDATE records SET status = ?, consumed_by = ? WHERE link = ?`),
			int(record.Consumed), link.String(), c.Link.String())
		if nil != err {
			return recordstore.QueryFailed(err)
		}
	}

	produced := tx.Produced[0]

	var seq int64
	err = dbTx.QueryRowContext(ctx, s.dialect.rebind(`SELECT COALESCE(MAX(seq) + 1, 0) FROM records WHERE version_id = ?`),
		produced.VersionId.String()).Scan(&seq)
	if nil != err {
		return recordstore.QueryFailed(err)
	}

	_, err = dbTx.ExecContext(ctx, s.dialect.rebind(`INSERT INTO transactions (link, packed) VALUES (?, ?)`),
		link.String(), []byte(packed))
	if nil != err {
		return recordstore.QueryFailed(err)
	}

	_, err = dbTx.ExecContext(ctx, s.dialect.rebind(`INSERT INTO records (link, version_id, fingerprint, seq, status) VALUES (?, ?, ?, ?, ?)`),
		link.String(), produced.VersionId.String(), produced.Fingerprint, seq, int(record.Unconsumed))
	if nil != err {
		return recordstore.QueryFailed(err)
	}

	return recordstore.QueryFailed(dbTx.Commit())
}

// UnconsumedByFingerprint - every unconsumed version for a fingerprint
func (s *Store) UnconsumedByFingerprint(fingerprint string) ([]*record.Version, error) {
	return s.query(`SELECT r.link, r.status, t.packed FROM records r JOIN transactions t ON t.link = r.link
		WHERE r.fingerprint = ? AND r.status = ? ORDER BY r.seq`, fingerprint, int(record.Unconsumed))
}

// ByVersionId - latest version of a record
func (s *Store) ByVersionId(id record.VersionId) (*record.Version, error) {
	versions, err := s.query(`SELECT r.link, r.status, t.packed FROM records r JOIN transactions t ON t.link = r.link
		WHERE r.version_id = ? ORDER BY r.seq DESC LIMIT 1`, id.String())
	if nil != err {
		return nil, err
	}
	if 0 == len(versions) {
		return nil, fault.ErrRecordNotFound
	}
	return versions[0], nil
}

// History - every version of a record, oldest first
func (s *Store) History(id record.VersionId) ([]*record.Version, error) {
	versions, err := s.query(`SELECT r.link, r.status, t.packed FROM records r JOIN transactions t ON t.link = r.link
		WHERE r.version_id = ? ORDER BY r.seq`, id.String())
	if nil != err {
		return nil, err
	}
	if 0 == len(versions) {
		return nil, fault.ErrRecordNotFound
	}
	return versions, nil
}

// Transaction - a stored transaction by its link
func (s *Store) Transaction(link record.Link) (*record.Transaction, error) {
	var packed []byte
	err := s.db.QueryRow(s.dialect.rebind(`SELECT packed FROM transactions WHERE link = ?`), link.String()).Scan(&packed)
	if sql.ErrNoRows == err {
		return nil, fault.ErrTransactionNotFound
	}
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	tx, err := record.UnpackTransaction(packed)
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	return tx, nil
}

// Close - release the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) query(query string, args ...interface{}) ([]*record.Version, error) {
	rows, err := s.db.Query(s.dialect.rebind(query), args...)
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	defer rows.Close()

	result := make([]*record.Version, 0, 1)
	for rows.Next() {
		var linkText string
		var status int
		var packed []byte
		if err := rows.Scan(&linkText, &status, &packed); nil != err {
			return nil, recordstore.QueryFailed(err)
		}

		link, err := record.LinkFromString(linkText)
		if nil != err {
			return nil, recordstore.QueryFailed(err)
		}
		tx, err := record.UnpackTransaction(packed)
		if nil != err {
			return nil, recordstore.QueryFailed(err)
		}
		produced := tx.Output()
		if nil == produced {
			return nil, recordstore.QueryFailed(fault.ErrInvalidCount)
		}

		result = append(result, &record.Version{
			Link:   link,
			Record: produced,
			Status: record.Status(status),
		})
	}
	if err := rows.Err(); nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	return result, nil
}
