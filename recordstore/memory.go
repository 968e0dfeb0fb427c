// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package recordstore

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
)

type memoryVersion struct {
	record     *record.Record
	consumedBy *record.Link
}

// Memory - a store held entirely in memory
type Memory struct {
	deadlock.RWMutex
	transactions map[record.Link]record.Packed
	versions     map[record.Link]*memoryVersion
	history      map[record.VersionId][]record.Link
	unconsumed   map[string]map[record.Link]struct{}
}

// NewMemory - an empty store
func NewMemory() *Memory {
	return &Memory{
		transactions: make(map[record.Link]record.Packed),
		versions:     make(map[record.Link]*memoryVersion),
		history:      make(map[record.VersionId][]record.Link),
		unconsumed:   make(map[string]map[record.Link]struct{}),
	}
}

// Insert - add a committed transaction
func (m *Memory) Insert(tx *record.Transaction) error {
	packed, link, err := CheckInsertable(tx)
	if nil != err {
		return err
	}

	m.Lock()
	defer m.Unlock()

	if _, ok := m.transactions[link]; ok {
		return nil
	}

	// check everything before changing anything
	for _, c := range tx.Consumed {
		v, ok := m.versions[c.Link]
		if ok && nil != v.consumedBy && link != *v.consumedBy {
			return fault.ErrConsumedByOther
		}
	}

	stored, err := record.UnpackTransaction(packed)
	if nil != err {
		return err
	}
	m.transactions[link] = packed

	for _, c := range tx.Consumed {
		v, ok := m.versions[c.Link]
		if !ok {
			continue
		}
		consumer := link
		v.consumedBy = &consumer
		if set, ok := m.unconsumed[v.record.Fingerprint]; ok {
			delete(set, c.Link)
		}
	}

	produced := stored.Produced[0]
	m.versions[link] = &memoryVersion{record: produced}
	m.history[produced.VersionId] = append(m.history[produced.VersionId], link)

	set, ok := m.unconsumed[produced.Fingerprint]
	if !ok {
		set = make(map[record.Link]struct{})
		m.unconsumed[produced.Fingerprint] = set
	}
	set[link] = struct{}{}

	return nil
}

// UnconsumedByFingerprint - every unconsumed version for a fingerprint
func (m *Memory) UnconsumedByFingerprint(fingerprint string) ([]*record.Version, error) {
	m.RLock()
	defer m.RUnlock()

	result := make([]*record.Version, 0, 1)
	for link := range m.unconsumed[fingerprint] {
		result = append(result, m.version(link))
	}
	return result, nil
}

// ByVersionId - latest version of a record
func (m *Memory) ByVersionId(id record.VersionId) (*record.Version, error) {
	m.RLock()
	defer m.RUnlock()

	links := m.history[id]
	if 0 == len(links) {
		return nil, fault.ErrRecordNotFound
	}
	return m.version(links[len(links)-1]), nil
}

// History - every version of a record, oldest first
func (m *Memory) History(id record.VersionId) ([]*record.Version, error) {
	m.RLock()
	defer m.RUnlock()

	links := m.history[id]
	if 0 == len(links) {
		return nil, fault.ErrRecordNotFound
	}
	result := make([]*record.Version, 0, len(links))
	for _, link := range links {
		result = append(result, m.version(link))
	}
	return result, nil
}

// Transaction - a stored transaction by its link
func (m *Memory) Transaction(link record.Link) (*record.Transaction, error) {
	m.RLock()
	defer m.RUnlock()

	packed, ok := m.transactions[link]
	if !ok {
		return nil, fault.ErrTransactionNotFound
	}
	return record.UnpackTransaction(packed)
}

// Close - nothing to release
func (m *Memory) Close() error {
	return nil
}

// must hold lock
func (m *Memory) version(link record.Link) *record.Version {
	v := m.versions[link]
	status := record.Unconsumed
	if nil != v.consumedBy {
		status = record.Consumed
	}
	return &record.Version{
		Link:   link,
		Record: v.record.Copy(),
		Status: status,
	}
}
