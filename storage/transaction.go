// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/registryd/fault"
)

// Transaction - batched writes across every database
type Transaction interface {
	Begin() error
	Put(Handle, []byte, []byte)
	PutN(Handle, []byte, uint64)
	Delete(Handle, []byte)
	Get(Handle, []byte) []byte
	GetN(Handle, []byte) (uint64, bool)
	Has(Handle, []byte) bool
	InUse() bool
	Commit() error
	Abort()
}

// TransactionData - one Access per database
type TransactionData struct {
	sync.Mutex
	inUse      bool
	dataAccess []Access
}

func newTransaction(access []Access) Transaction {
	return &TransactionData{
		inUse:      false,
		dataAccess: access,
	}
}

// Begin - start a batch on every database
func (t *TransactionData) Begin() error {
	t.Lock()
	defer t.Unlock()

	if t.inUse {
		return fault.ErrTransactionInUse
	}

	for i, access := range t.dataAccess {
		err := access.Begin()
		if nil != err {
			for _, a := range t.dataAccess[:i] {
				a.Abort()
			}
			return err
		}
	}
	t.inUse = true
	return nil
}

// Put - batched put
func (t *TransactionData) Put(h Handle, key []byte, value []byte) {
	h.(*PoolHandle).put(key, value)
}

// PutN - batched put of a big endian uint64
func (t *TransactionData) PutN(h Handle, key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	h.(*PoolHandle).put(key, buffer)
}

// Delete - batched delete
func (t *TransactionData) Delete(h Handle, key []byte) {
	h.(*PoolHandle).remove(key)
}

// Get - sees pending writes of this batch
func (t *TransactionData) Get(h Handle, key []byte) []byte {
	return h.Get(key)
}

// GetN - sees pending writes of this batch
func (t *TransactionData) GetN(h Handle, key []byte) (uint64, bool) {
	return h.GetN(key)
}

// Has - sees pending writes of this batch
func (t *TransactionData) Has(h Handle, key []byte) bool {
	return h.Has(key)
}

// InUse - true while a batch is open
func (t *TransactionData) InUse() bool {
	t.Lock()
	defer t.Unlock()
	return t.inUse
}

// Commit - write every batch, stop at the first error
func (t *TransactionData) Commit() error {
	t.Lock()
	defer t.Unlock()

	var err error
	for _, access := range t.dataAccess {
		if nil != err {
			access.Abort()
			continue
		}
		err = access.Commit()
	}
	t.inUse = false
	return err
}

// Abort - discard every batch
func (t *TransactionData) Abort() {
	t.Lock()
	defer t.Unlock()

	for _, access := range t.dataAccess {
		access.Abort()
	}
	t.inUse = false
}
