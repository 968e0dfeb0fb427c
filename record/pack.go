// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
)

// Message - the signed part of a transaction
//
// Varint64(command) followed by the consumed versions then the
// produced records, each list preceded by its count
func (tx *Transaction) Message() (Packed, error) {
	message := util.ToVarint64(uint64(tx.Command))

	message = appendUint64(message, uint64(len(tx.Consumed)))
	for _, v := range tx.Consumed {
		if nil == v || nil == v.Record {
			return nil, fault.ErrMissingParameters
		}
		message = appendBytes(message, v.Link[:])
		var err error
		message, err = appendRecord(message, v.Record)
		if nil != err {
			return nil, err
		}
	}

	message = appendUint64(message, uint64(len(tx.Produced)))
	for _, r := range tx.Produced {
		if nil == r {
			return nil, fault.ErrMissingParameters
		}
		var err error
		message, err = appendRecord(message, r)
		if nil != err {
			return nil, err
		}
	}
	return message, nil
}

// Pack - message followed by the signatures
func (tx *Transaction) Pack() (Packed, error) {
	message, err := tx.Message()
	if nil != err {
		return nil, err
	}

	message = appendUint64(message, uint64(len(tx.Signatures)))
	for _, s := range tx.Signatures {
		if nil == s || nil == s.Signer {
			return nil, fault.ErrMissingParameters
		}
		if len(s.Signature) > maxSignatureLength {
			return nil, fault.ErrInvalidSignature
		}
		message = appendAccount(message, s.Signer)
		message = appendBytes(message, s.Signature)
	}
	return message, nil
}

// record fields in order: fingerprint, version id, issuer, participants
func appendRecord(buffer Packed, r *Record) (Packed, error) {
	if len(r.Fingerprint) > MaxFingerprintLength {
		return nil, fault.ErrFingerprintTooLong
	}
	if nil == r.Issuer {
		return nil, fault.ErrMissingParameters
	}

	buffer = appendString(buffer, r.Fingerprint)
	buffer = appendBytes(buffer, r.VersionId[:])
	buffer = appendAccount(buffer, r.Issuer)
	buffer = appendUint64(buffer, uint64(len(r.Participants)))
	for _, p := range r.Participants {
		if nil == p {
			return nil, fault.ErrMissingParameters
		}
		buffer = appendAccount(buffer, p)
	}
	return buffer, nil
}

// append a single field to a buffer
//
// the field is prefixed by Varint64(length)
func appendString(buffer Packed, s string) Packed {
	l := util.ToVarint64(uint64(len(s)))
	buffer = append(buffer, l...)
	return append(buffer, s...)
}

// append an address to a buffer
//
// the field is prefixed by Varint64(length)
func appendAccount(buffer Packed, address *account.Account) Packed {
	data := address.Bytes()
	l := util.ToVarint64(uint64(len(data)))
	buffer = append(buffer, l...)
	buffer = append(buffer, data...)
	return buffer
}

// append a bytes to a buffer
//
// the field is prefixed by Varint64(length)
func appendBytes(buffer Packed, data []byte) Packed {
	l := util.ToVarint64(uint64(len(data)))
	buffer = append(buffer, l...)
	buffer = append(buffer, data...)
	return buffer
}

// append a Varint64 to buffer
func appendUint64(buffer Packed, value uint64) Packed {
	valueBytes := util.ToVarint64(value)
	buffer = append(buffer, valueBytes...)
	return buffer
}
