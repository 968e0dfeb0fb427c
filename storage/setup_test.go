// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/storage"
)

// configure for testing
func setup(t *testing.T) {
	fixtures.SetupTestLogger()
	err := storage.Initialise(filepath.Join(fixtures.Directory(), "test"), storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

// post test cleanup
func teardown() {
	storage.Finalise()
	fixtures.TeardownTestLogger()
}

func TestDoubleInitialise(t *testing.T) {
	setup(t)
	defer teardown()

	err := storage.Initialise(filepath.Join(fixtures.Directory(), "test"), storage.ReadWrite)
	assert.Equal(t, fault.ErrAlreadyInitialised, err, "second initialise")
}

func TestPutGetDelete(t *testing.T) {
	setup(t)
	defer teardown()

	p := storage.Pool.TestData
	key := []byte("key-one")

	assert.False(t, p.Has(key), "before put")
	assert.Nil(t, p.Get(key), "get before put")

	p.Put(key, []byte("data-one"))
	assert.True(t, p.Has(key), "after put")
	assert.Equal(t, []byte("data-one"), p.Get(key), "get after put")

	p.PutN([]byte("count"), 42)
	n, found := p.GetN([]byte("count"))
	assert.True(t, found, "count found")
	assert.Equal(t, uint64(42), n, "count")

	p.Delete(key)
	assert.False(t, p.Has(key), "after delete")
}

func TestTransactionCommit(t *testing.T) {
	setup(t)
	defer teardown()

	trx, err := storage.NewDBTransaction()
	if !assert.Nil(t, err, "begin") {
		return
	}

	_, err = storage.NewDBTransaction()
	assert.Equal(t, fault.ErrTransactionInUse, err, "second begin")

	trx.Put(storage.Pool.TestData, []byte("a"), []byte("1"))
	trx.Put(storage.Pool.Transactions, []byte("b"), []byte("2"))
	assert.Equal(t, []byte("1"), trx.Get(storage.Pool.TestData, []byte("a")), "pending read")
	assert.True(t, trx.Has(storage.Pool.Transactions, []byte("b")), "pending has")

	assert.Nil(t, trx.Commit(), "commit")
	assert.False(t, trx.InUse(), "released")

	assert.Equal(t, []byte("1"), storage.Pool.TestData.Get([]byte("a")), "committed a")
	assert.Equal(t, []byte("2"), storage.Pool.Transactions.Get([]byte("b")), "committed b")
}

func TestTransactionAbort(t *testing.T) {
	setup(t)
	defer teardown()

	storage.Pool.TestData.Put([]byte("keep"), []byte("x"))

	trx, err := storage.NewDBTransaction()
	if !assert.Nil(t, err, "begin") {
		return
	}
	trx.Put(storage.Pool.TestData, []byte("drop"), []byte("y"))
	trx.Delete(storage.Pool.TestData, []byte("keep"))
	assert.False(t, trx.Has(storage.Pool.TestData, []byte("keep")), "pending delete")
	trx.Abort()

	assert.False(t, storage.Pool.TestData.Has([]byte("drop")), "aborted put")
	assert.True(t, storage.Pool.TestData.Has([]byte("keep")), "aborted delete")

	_, err = storage.NewDBTransaction()
	assert.Nil(t, err, "begin after abort")
}
