// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/registryd/fault"
)

// LinkLength - bytes in a link
const LinkLength = 32

// Link - SHA3-256 of a packed transaction, the transaction id
type Link [LinkLength]byte

// MakeLink - create a link for a packed transaction
func (packed Packed) MakeLink() Link {
	return Link(sha3.Sum256(packed))
}

// LinkFromBytes - convert a 32 byte slice
func LinkFromBytes(buffer []byte) (Link, error) {
	var link Link
	if LinkLength != len(buffer) {
		return link, fault.ErrNotLink
	}
	copy(link[:], buffer)
	return link, nil
}

// LinkFromString - convert hex text
func LinkFromString(s string) (Link, error) {
	var link Link
	err := link.UnmarshalText([]byte(s))
	return link, err
}

// Bytes - convert a binary link to byte slice
func (link Link) Bytes() []byte {
	return link[:]
}

// String - hex form for use by the fmt package (for %s)
func (link Link) String() string {
	return hex.EncodeToString(link[:])
}

// GoString - for %#v
func (link Link) GoString() string {
	return "<link:" + hex.EncodeToString(link[:]) + ">"
}

// MarshalText - convert link to hex text
func (link Link) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(LinkLength)
	buffer := make([]byte, size)
	hex.Encode(buffer, link[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a link
func (link *Link) UnmarshalText(s []byte) error {
	if len(s) != hex.EncodedLen(LinkLength) {
		return fault.ErrNotLink
	}
	byteCount, err := hex.Decode(link[:], s)
	if nil != err {
		return err
	}
	if LinkLength != byteCount {
		return fault.ErrNotLink
	}
	return nil
}
