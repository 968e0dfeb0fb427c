// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
	publicLength  = 32
	privateLength = 32
)

// MakeKeyPair - create a new CURVE keypair and write the halves to
// separate files
func MakeKeyPair(publicKeyFileName string, privateKeyFileName string) error {
	if util.EnsureFileExists(publicKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}
	if util.EnsureFileExists(privateKeyFileName) {
		return fault.ErrKeyFileAlreadyExists
	}

	// Z85 from the library, hex in the files
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return err
	}

	publicKey = taggedPublic + hex.EncodeToString([]byte(zmq.Z85decode(publicKey))) + "\n"
	privateKey = taggedPrivate + hex.EncodeToString([]byte(zmq.Z85decode(privateKey))) + "\n"

	if err = ioutil.WriteFile(publicKeyFileName, []byte(publicKey), 0666); nil != err {
		return err
	}

	if err = ioutil.WriteFile(privateKeyFileName, []byte(privateKey), 0600); nil != err {
		os.Remove(publicKeyFileName)
		return err
	}

	return nil
}

// ReadPublicKey - decode a tagged public key, also accepts plain hex
func ReadPublicKey(key string) ([]byte, error) {
	s := strings.TrimSpace(key)
	if !strings.HasPrefix(s, taggedPublic) && !strings.HasPrefix(s, taggedPrivate) {
		s = taggedPublic + s
	}
	data, private, err := ParseKey(s)
	if nil != err {
		return nil, err
	}
	if private {
		return nil, fault.ErrInvalidPublicKeyFile
	}
	return data, nil
}

// ReadPrivateKey - decode a tagged private key
func ReadPrivateKey(key string) ([]byte, error) {
	data, private, err := ParseKey(key)
	if nil != err {
		return nil, err
	}
	if !private {
		return nil, fault.ErrInvalidPrivateKeyFile
	}
	return data, nil
}

// ReadKeyFile - read the contents of a key file
func ReadKeyFile(fileName string) (string, error) {
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return "", err
	}
	return string(data), nil
}

// PublicFromPrivate - derive the public half of a CURVE key
func PublicFromPrivate(privateKey []byte) ([]byte, error) {
	if privateLength != len(privateKey) {
		return nil, fault.ErrInvalidPrivateKey
	}
	public, err := zmq.AuthCurvePublic(zmq.Z85encode(string(privateKey)))
	if nil != err {
		return nil, err
	}
	return []byte(zmq.Z85decode(public)), nil
}

// ParseKey - decode either kind of tagged key
//
// returns the raw key and true if it was a private key
func ParseKey(data string) ([]byte, bool, error) {
	s := strings.TrimSpace(data)

	if strings.HasPrefix(s, taggedPrivate) {
		h, err := hex.DecodeString(s[len(taggedPrivate):])
		if nil != err {
			return nil, false, err
		}
		if privateLength != len(h) {
			return nil, false, fault.ErrInvalidPrivateKeyFile
		}
		return h, true, nil
	}

	if strings.HasPrefix(s, taggedPublic) {
		h, err := hex.DecodeString(s[len(taggedPublic):])
		if nil != err {
			return nil, false, err
		}
		if publicLength != len(h) {
			return nil, false, fault.ErrInvalidPublicKeyFile
		}
		return h, false, nil
	}

	return nil, false, fault.ErrInvalidPublicKeyFile
}
