// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package recordstore - durable copies of committed transactions
//
// every party keeps its own store; the issuing authority's store sees
// every record, a participant's store only the records it takes part in
package recordstore

import (
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
)

// Store - the narrow interface used by the protocol
type Store interface {
	// produced versions become Unconsumed and consumed links become
	// Consumed, all or nothing
	Insert(tx *record.Transaction) error

	UnconsumedByFingerprint(fingerprint string) ([]*record.Version, error)

	// latest version of a record
	ByVersionId(id record.VersionId) (*record.Version, error)

	// every version of a record, oldest first
	History(id record.VersionId) ([]*record.Version, error)

	Transaction(link record.Link) (*record.Transaction, error)

	Close() error
}

// supported backends
const (
	BackendLevelDB  = "leveldb"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// QueryFailed - wrap a backend error as a query error
func QueryFailed(err error) error {
	if nil == err {
		return nil
	}
	if fault.IsErrQuery(err) {
		return err
	}
	return fault.QueryError("record store query failed: " + err.Error())
}

// CheckInsertable - a transaction must produce exactly one record
func CheckInsertable(tx *record.Transaction) (record.Packed, record.Link, error) {
	if nil == tx || 1 != len(tx.Produced) {
		return nil, record.Link{}, fault.ErrInvalidCount
	}
	packed, err := tx.Pack()
	if nil != err {
		return nil, record.Link{}, err
	}
	return packed, packed.MakeLink(), nil
}
