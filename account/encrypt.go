// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/bitmark-inc/go-argon2"
	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/registryd/fault"
)

const (
	saltSize = 32
)

// EncryptedKey - a signing key protected by a passphrase
type EncryptedKey struct {
	Account    string `gluamapper:"account" json:"account"`
	Salt       string `gluamapper:"salt" json:"salt"`
	PrivateKey string `gluamapper:"private_key" json:"private_key"`
}

// EncryptPrivateKey - protect a private key with a passphrase
func EncryptPrivateKey(privateKey *PrivateKey, password string) (*EncryptedKey, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); nil != err {
		return nil, err
	}

	key, err := generateKey(password, salt)
	if nil != err {
		return nil, err
	}

	ciphertext, err := encryptPrivateKey(privateKey.PrivateKey, key)
	if nil != err {
		return nil, err
	}

	e := &EncryptedKey{
		Account:    privateKey.Account().String(),
		Salt:       hex.EncodeToString(salt),
		PrivateKey: hex.EncodeToString(ciphertext),
	}
	return e, nil
}

// Decrypt - recover the private key, fails on a wrong passphrase
func (e *EncryptedKey) Decrypt(password string) (*PrivateKey, error) {
	acc, err := AccountFromBase58(e.Account)
	if nil != err {
		return nil, err
	}

	salt, err := hex.DecodeString(e.Salt)
	if nil != err || saltSize != len(salt) {
		return nil, fault.ErrInvalidPrivateKeyFile
	}

	ciphertext, err := hex.DecodeString(e.PrivateKey)
	if nil != err {
		return nil, fault.ErrInvalidPrivateKeyFile
	}

	key, err := generateKey(password, salt)
	if nil != err {
		return nil, err
	}

	plaintext, err := decryptPrivateKey(ciphertext, key)
	if nil != err {
		return nil, err
	}

	privateKey := &PrivateKey{
		Test:       acc.Test,
		PrivateKey: plaintext,
	}
	if !privateKey.Account().Equal(acc) {
		return nil, fault.ErrWrongPassword
	}

	message := append([]byte("registry key check"), salt...)
	if nil != acc.CheckSignature(message, privateKey.Sign(message)) {
		return nil, fault.ErrWrongPassword
	}
	return privateKey, nil
}

func generateKey(password string, salt []byte) ([]byte, error) {
	ctx := &argon2.Context{
		Iterations:  5,
		Memory:      1 << 16,
		Parallelism: 4,
		HashLen:     32,
		Mode:        argon2.ModeArgon2i,
		Version:     argon2.Version13,
	}

	return argon2.Hash(ctx, []byte(password), salt)
}

func encryptPrivateKey(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if nil != err {
		return nil, err
	}

	if ed25519.PrivateKeySize != len(plaintext) {
		return nil, fault.ErrInvalidKeyLength
	}

	ciphertext := make([]byte, aes.BlockSize+ed25519.PrivateKeySize)
	iv := ciphertext[:aes.BlockSize]
	if _, err = io.ReadFull(rand.Reader, iv); nil != err {
		return nil, err
	}
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext[aes.BlockSize:], plaintext)

	return ciphertext, nil
}

func decryptPrivateKey(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if nil != err {
		return nil, err
	}

	if aes.BlockSize+ed25519.PrivateKeySize != len(ciphertext) {
		return nil, fault.ErrInvalidKeyLength
	}

	iv := ciphertext[:aes.BlockSize]
	plaintext := make([]byte, ed25519.PrivateKeySize)
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext[aes.BlockSize:])

	return plaintext, nil
}
