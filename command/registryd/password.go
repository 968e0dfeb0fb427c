// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
)

const (
	passphraseEnvironment = "REGISTRYD_PASSPHRASE"
	minimumPassphrase     = 8
)

// read a passphrase from the environment or the controlling terminal
func readPassphrase(prompt string, confirm bool) (string, error) {

	if p := os.Getenv(passphraseEnvironment); "" != p {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !terminal.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal: set %s", passphraseEnvironment)
	}

	fmt.Fprint(os.Stderr, prompt)
	p, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if nil != err {
		return "", err
	}
	if len(p) < minimumPassphrase {
		return "", fmt.Errorf("passphrase must be at least %d characters", minimumPassphrase)
	}
	if !confirm {
		return string(p), nil
	}

	fmt.Fprint(os.Stderr, "verify passphrase: ")
	v, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if nil != err {
		return "", err
	}
	if string(p) != string(v) {
		return "", fault.ErrWrongPassword
	}
	return string(p), nil
}

// create a new signing key protected by a passphrase
func makeSigningKey(fileName string, passphrase string) (*account.Account, error) {
	if util.EnsureFileExists(fileName) {
		return nil, fault.ErrKeyFileAlreadyExists
	}

	privateKey, err := account.NewPrivateKey(false)
	if nil != err {
		return nil, err
	}

	encrypted, err := account.EncryptPrivateKey(privateKey, passphrase)
	if nil != err {
		return nil, err
	}

	data, err := json.MarshalIndent(encrypted, "", "  ")
	if nil != err {
		return nil, err
	}
	if err = ioutil.WriteFile(fileName, append(data, '\n'), 0600); nil != err {
		return nil, err
	}
	return privateKey.Account(), nil
}

// read the encrypted signing key without decrypting it
func readSigningKey(fileName string) (*account.EncryptedKey, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, err
	}
	encrypted := &account.EncryptedKey{}
	if err = json.Unmarshal(data, encrypted); nil != err {
		return nil, err
	}
	return encrypted, nil
}

// decrypt the signing key named in the configuration
func loadSigningKey(identity IdentityType) (*account.PrivateKey, error) {
	encrypted, err := readSigningKey(identity.SigningKey)
	if nil != err {
		return nil, err
	}

	passphrase := identity.Passphrase
	if "" == passphrase {
		passphrase, err = readPassphrase("signing key passphrase: ", false)
		if nil != err {
			return nil, err
		}
	}
	return encrypted.Decrypt(passphrase)
}
