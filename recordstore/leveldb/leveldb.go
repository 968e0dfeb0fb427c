// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb - record store on the storage pools
package leveldb

import (
	"encoding/binary"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/storage"
)

const (
	countLength = 8
)

// Store - record store over prefixed LevelDB pools
type Store struct {
	deadlock.Mutex

	Transactions storage.Handle
	HistoryIndex storage.Handle
	Latest       storage.Handle
	Unconsumed   storage.Handle
	Status       storage.Handle

	Begin func() (storage.Transaction, error)
}

// New - a store on the global pools, storage must be initialised
func New() *Store {
	return &Store{
		Transactions: storage.Pool.Transactions,
		HistoryIndex: storage.Pool.History,
		Latest:       storage.Pool.Latest,
		Unconsumed:   storage.Pool.Unconsumed,
		Status:       storage.Pool.Status,
		Begin:        storage.NewDBTransaction,
	}
}

func fingerprintDigest(fingerprint string) []byte {
	digest := sha3.Sum256([]byte(fingerprint))
	return digest[:]
}

// Insert - add a committed transaction in a single batch
func (s *Store) Insert(tx *record.Transaction) error {
	packed, link, err := recordstore.CheckInsertable(tx)
	if nil != err {
		return err
	}

	s.Lock()
	defer s.Unlock()

	if s.Transactions.Has(link[:]) {
		return nil
	}

	// consumed versions known to this store
	known := make([]*record.Version, 0, len(tx.Consumed))
	for _, c := range tx.Consumed {
		status := s.Status.Get(c.Link[:])
		if nil == status {
			continue
		}
		if len(status) > 1 && string(status[1:]) != string(link[:]) {
			return fault.ErrConsumedByOther
		}
		v, err := s.version(c.Link)
		if nil != err {
			return err
		}
		known = append(known, v)
	}

	trx, err := s.Begin()
	if nil != err {
		return recordstore.QueryFailed(err)
	}

	trx.Put(s.Transactions, link[:], packed)

	for _, v := range known {
		trx.Put(s.Status, v.Link[:], append([]byte{byte(record.Consumed)}, link[:]...))
		trx.Delete(s.Unconsumed, append(fingerprintDigest(v.Record.Fingerprint), v.Link[:]...))
	}

	produced := tx.Produced[0]
	versionId := produced.VersionId[:]

	count := uint64(0)
	if latest := trx.Get(s.Latest, versionId); len(latest) == record.LinkLength+countLength {
		count = binary.BigEndian.Uint64(latest[record.LinkLength:]) + 1
	}
	countBytes := make([]byte, countLength)
	binary.BigEndian.PutUint64(countBytes, count)

	trx.Put(s.Status, link[:], []byte{byte(record.Unconsumed)})
	trx.Put(s.Unconsumed, append(fingerprintDigest(produced.Fingerprint), link[:]...), versionId)
	trx.Put(s.HistoryIndex, append(append([]byte{}, versionId...), countBytes...), link[:])
	trx.Put(s.Latest, versionId, append(append([]byte{}, link[:]...), countBytes...))

	return recordstore.QueryFailed(trx.Commit())
}

// UnconsumedByFingerprint - every unconsumed version for a fingerprint
func (s *Store) UnconsumedByFingerprint(fingerprint string) ([]*record.Version, error) {
	digest := fingerprintDigest(fingerprint)

	links := make([]record.Link, 0, 1)
	err := s.Unconsumed.NewPrefixCursor(digest).Map(func(key []byte, value []byte) error {
		link, err := record.LinkFromBytes(key[len(digest):])
		if nil != err {
			return err
		}
		links = append(links, link)
		return nil
	})
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}

	return s.versions(links)
}

// ByVersionId - latest version of a record
func (s *Store) ByVersionId(id record.VersionId) (*record.Version, error) {
	latest := s.Latest.Get(id[:])
	if nil == latest {
		return nil, fault.ErrRecordNotFound
	}
	link, err := record.LinkFromBytes(latest[:record.LinkLength])
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	return s.version(link)
}

// History - every version of a record, oldest first
func (s *Store) History(id record.VersionId) ([]*record.Version, error) {
	links := make([]record.Link, 0, 4)
	err := s.HistoryIndex.NewPrefixCursor(id[:]).Map(func(key []byte, value []byte) error {
		link, err := record.LinkFromBytes(value)
		if nil != err {
			return err
		}
		links = append(links, link)
		return nil
	})
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	if 0 == len(links) {
		return nil, fault.ErrRecordNotFound
	}
	return s.versions(links)
}

// Transaction - a stored transaction by its link
func (s *Store) Transaction(link record.Link) (*record.Transaction, error) {
	packed := s.Transactions.Get(link[:])
	if nil == packed {
		return nil, fault.ErrTransactionNotFound
	}
	tx, err := record.UnpackTransaction(packed)
	if nil != err {
		return nil, recordstore.QueryFailed(err)
	}
	return tx, nil
}

// Close - the pools are closed by storage.Finalise
func (s *Store) Close() error {
	return nil
}

func (s *Store) versions(links []record.Link) ([]*record.Version, error) {
	result := make([]*record.Version, 0, len(links))
	for _, link := range links {
		v, err := s.version(link)
		if nil != err {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// an index entry without its transaction is corruption
func (s *Store) version(link record.Link) (*record.Version, error) {
	tx, err := s.Transaction(link)
	if fault.ErrTransactionNotFound == err {
		fault.Criticalf("missing transaction record for: %s", link)
		return nil, recordstore.QueryFailed(err)
	}
	if nil != err {
		return nil, err
	}
	produced := tx.Output()
	if nil == produced {
		return nil, recordstore.QueryFailed(fault.ErrInvalidCount)
	}

	status := record.Unconsumed
	if st := s.Status.Get(link[:]); len(st) > 0 && byte(record.Consumed) == st[0] {
		status = record.Consumed
	}

	v := &record.Version{
		Link:   link,
		Record: produced,
		Status: status,
	}
	return v, nil
}
