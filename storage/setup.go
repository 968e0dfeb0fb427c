// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/registryd/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Transactions *PoolHandle `prefix:"T" database:"records"`
	History      *PoolHandle `prefix:"H" database:"index"`
	Latest       *PoolHandle `prefix:"L" database:"index"`
	Unconsumed   *PoolHandle `prefix:"U" database:"index"`
	Status       *PoolHandle `prefix:"S" database:"index"`
	Notary       *PoolHandle `prefix:"N" database:"index"`
	TestData     *PoolHandle `prefix:"Z" database:"index"`
}

// Pool - the set of exported pools
var Pool pools

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentRecordsDBVersion = 0x100
	currentIndexDBVersion   = 0x100
)

// holds the database handle
var poolData struct {
	sync.RWMutex
	dbRecords *leveldb.DB
	dbIndex   *leveldb.DB
	trx       Transaction
}

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Initialise - open up the database connection
//
// this must be called before any pool is accessed
func Initialise(database string, readOnly bool) error {
	poolData.Lock()
	defer poolData.Unlock()

	ok := false

	if nil != poolData.dbRecords {
		return fault.ErrAlreadyInitialised
	}

	defer func() {
		if !ok {
			dbClose()
		}
	}()

	recordsDatabase := database + "-records.leveldb"
	indexDatabase := database + "-index.leveldb"

	db, recordsVersion, err := getDB(recordsDatabase, readOnly)
	if nil != err {
		return err
	}
	poolData.dbRecords = db

	db, indexVersion, err := getDB(indexDatabase, readOnly)
	if nil != err {
		return err
	}
	poolData.dbIndex = db

	// ensure no database downgrade
	if recordsVersion > currentRecordsDBVersion {
		logger.Criticalf("records database version: %d > current version: %d", recordsVersion, currentRecordsDBVersion)
		return fmt.Errorf("records database version: %d > current version: %d", recordsVersion, currentRecordsDBVersion)
	}
	if indexVersion > currentIndexDBVersion {
		logger.Criticalf("index database version: %d > current version: %d", indexVersion, currentIndexDBVersion)
		return fmt.Errorf("index database version: %d > current version: %d", indexVersion, currentIndexDBVersion)
	}

	if !readOnly {
		if 0 == recordsVersion {
			if err := putVersion(poolData.dbRecords, currentRecordsDBVersion); nil != err {
				return err
			}
		}
		if 0 == indexVersion {
			if err := putVersion(poolData.dbIndex, currentIndexDBVersion); nil != err {
				return err
			}
		}
	}

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	recordsAccess := newDA(poolData.dbRecords, new(leveldb.Batch), newCache())
	indexAccess := newDA(poolData.dbIndex, new(leveldb.Batch), newCache())
	poolData.trx = newTransaction([]Access{recordsAccess, indexAccess})

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		var dataAccess Access
		switch dbName := fieldInfo.Tag.Get("database"); dbName {
		case "records":
			dataAccess = recordsAccess
		case "index":
			dataAccess = indexAccess
		default:
			return fmt.Errorf("pool: %v  has invalid database: %q", fieldInfo, dbName)
		}

		p := &PoolHandle{
			prefix:     prefix,
			limit:      limit,
			dataAccess: dataAccess,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	ok = true // prevent db close
	return nil
}

func dbClose() {
	if nil != poolData.dbIndex {
		poolData.dbIndex.Close()
		poolData.dbIndex = nil
	}
	if nil != poolData.dbRecords {
		poolData.dbRecords.Close()
		poolData.dbRecords = nil
	}
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	dbClose()
	poolData.trx = nil
	Pool = pools{}
	poolData.Unlock()
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, nil)
}

// NewDBTransaction - start a batch spanning both databases
//
// only one batch may be open at a time, the caller must Commit or Abort
func NewDBTransaction() (Transaction, error) {
	poolData.RLock()
	trx := poolData.trx
	poolData.RUnlock()

	if nil == trx {
		return nil, fault.ErrNotInitialised
	}
	err := trx.Begin()
	if nil != err {
		return nil, err
	}
	return trx, nil
}
