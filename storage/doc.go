// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains two LevelDB databases split into a series of tables.
// Each table is defined by a prefix byte that is obtained from the
// prefix tag in the struct defining the available tables.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. link         = transaction id as 32 byte SHA3-256(packed)
// 4. versionId    = 16 byte record version id
// 5. fpDigest     = fingerprint digest as 32 byte SHA3-256(fingerprint)
// 6. count        = successive index value as big endian uint64 (8 bytes)
//
// Records:
//
//   T ++ link                  - committed transactions
//                                data: packed transaction
//
// Index:
//
//   H ++ versionId ++ count    - history of a record
//                                data: link
//   L ++ versionId             - latest version of a record
//                                data: link
//   U ++ fpDigest ++ link      - unconsumed versions for a fingerprint
//                                data: versionId
//   S ++ link                  - status of the version produced by link
//                                data: status byte [++ consuming link]
//   N ++ link                  - notarised consumption
//                                data: consuming link
//
// Testing:
//   Z ++ key                   - testing data
package storage
