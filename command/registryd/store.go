// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/recordstore/leveldb"
	"github.com/bitmark-inc/registryd/recordstore/sqlstore"
)

const sqliteExtension = ".sqlite"

// open the configured record store
//
// the LevelDB pools must already be initialised since the notary
// index always lives there
func openStore(log *logger.L, database DatabaseType) (recordstore.Store, error) {

	log.Infof("record store backend: %q", database.Backend)

	switch database.Backend {
	case recordstore.BackendLevelDB:
		return leveldb.New(), nil

	case recordstore.BackendSQLite:
		fileName := database.Name + sqliteExtension
		log.Infof("sqlite file: %q", fileName)
		return sqlstore.OpenSQLite(fileName)

	case recordstore.BackendPostgres:
		return sqlstore.OpenPostgres(database.DSN)

	case recordstore.BackendMemory:
		log.Warn("records will not survive a restart")
		return recordstore.NewMemory(), nil

	default:
		return nil, fault.ErrInvalidStorageBackend
	}
}
