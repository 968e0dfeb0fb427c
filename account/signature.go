// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"encoding/hex"

	"golang.org/x/crypto/ed25519"

	"github.com/bitmark-inc/registryd/fault"
)

// Signature - raw ed25519 signature bytes, hex in text form
type Signature []byte

// IsComplete - true when the length is that of an ed25519 signature
func (signature Signature) IsComplete() bool {
	return ed25519.SignatureSize == len(signature)
}

// String - hex for %s
func (signature Signature) String() string {
	return hex.EncodeToString(signature)
}

// GoString - tagged hex for %#v
func (signature Signature) GoString() string {
	return "<signature:" + hex.EncodeToString(signature) + ">"
}

// MarshalText - hex text
func (signature Signature) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(signature)), nil
}

// UnmarshalText - hex text of a complete signature
func (signature *Signature) UnmarshalText(s []byte) error {
	sig, err := hex.DecodeString(string(s))
	if nil != err {
		return err
	}
	if !Signature(sig).IsComplete() {
		return fault.ErrInvalidSignature
	}
	*signature = sig
	return nil
}
