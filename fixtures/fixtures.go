// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fixtures

import (
	"bytes"
	"fmt"
	"os"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/account"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// deterministic party keys
var (
	IssuerKey *account.PrivateKey
	AliceKey  *account.PrivateKey
	BobKey    *account.PrivateKey
	CarolKey  *account.PrivateKey
	DaveKey   *account.PrivateKey
	NotaryKey *account.PrivateKey

	Issuer *account.Account
	Alice  *account.Account
	Bob    *account.Account
	Carol  *account.Account
	Dave   *account.Account
	Notary *account.Account
)

func init() {
	IssuerKey = makeKey(0x11)
	AliceKey = makeKey(0xa1)
	BobKey = makeKey(0xb2)
	CarolKey = makeKey(0xc3)
	DaveKey = makeKey(0xd4)
	NotaryKey = makeKey(0x5e)

	Issuer = IssuerKey.Account()
	Alice = AliceKey.Account()
	Bob = BobKey.Account()
	Carol = CarolKey.Account()
	Dave = DaveKey.Account()
	Notary = NotaryKey.Account()
}

func makeKey(b byte) *account.PrivateKey {
	k, err := account.PrivateKeyFromSeed(bytes.Repeat([]byte{b}, 32), true)
	if nil != err {
		panic(err)
	}
	return k
}

// SetupTestLogger - start logging into the testing directory
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove the testing directory
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

// Directory - the scratch directory used by tests
func Directory() string {
	return dir
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}
