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

// Unpack - turn a byte slice into a transaction
//
// the second value is the number of bytes consumed; trailing data
// is left for the caller to reject
func (packed Packed) Unpack() (t *Transaction, n int, e error) {

	defer func() {
		if r := recover(); nil != r {
			t = nil
			n = 0
			e = fault.ErrNotTransactionPack
		}
	}()

	command, n := util.FromVarint64(packed)
	if 0 == n {
		return nil, 0, fault.ErrNotTransactionPack
	}
	if !Command(command).IsValid() {
		return nil, 0, fault.ErrUnrecognisedCommand
	}

	tx := &Transaction{
		Command: Command(command),
	}

	// consumed
	count, countLength := util.ClippedVarint64(packed[n:], 0, maxStates)
	if 0 == countLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += countLength
	tx.Consumed = make([]*Version, 0, count)
	for i := 0; i < count; i += 1 {
		linkBytes, linkLength := unpackBytes(packed[n:], LinkLength)
		if 0 == linkLength {
			return nil, 0, fault.ErrNotTransactionPack
		}
		n += linkLength
		link, err := LinkFromBytes(linkBytes)
		if nil != err {
			return nil, 0, fault.ErrNotTransactionPack
		}

		r, recordLength, err := unpackRecord(packed[n:])
		if nil != err {
			return nil, 0, err
		}
		n += recordLength

		tx.Consumed = append(tx.Consumed, &Version{
			Link:   link,
			Record: r,
			Status: Unconsumed,
		})
	}

	// produced
	count, countLength = util.ClippedVarint64(packed[n:], 0, maxStates)
	if 0 == countLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += countLength
	tx.Produced = make([]*Record, 0, count)
	for i := 0; i < count; i += 1 {
		r, recordLength, err := unpackRecord(packed[n:])
		if nil != err {
			return nil, 0, err
		}
		n += recordLength
		tx.Produced = append(tx.Produced, r)
	}

	// signatures
	count, countLength = util.ClippedVarint64(packed[n:], 0, maxStates)
	if 0 == countLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += countLength
	tx.Signatures = make([]*Signature, 0, count)
	for i := 0; i < count; i += 1 {
		signer, signerLength, err := unpackAccount(packed[n:])
		if nil != err {
			return nil, 0, err
		}
		n += signerLength

		signature, signatureLength := unpackBytes(packed[n:], maxSignatureLength)
		if 0 == signatureLength {
			return nil, 0, fault.ErrNotTransactionPack
		}
		n += signatureLength

		tx.Signatures = append(tx.Signatures, &Signature{
			Signer:    signer,
			Signature: signature,
		})
	}

	return tx, n, nil
}

// UnpackTransaction - unpack and require the whole buffer is used
func UnpackTransaction(packed []byte) (*Transaction, error) {
	tx, n, err := Packed(packed).Unpack()
	if nil != err {
		return nil, err
	}
	if n != len(packed) {
		return nil, fault.ErrNotTransactionPack
	}
	return tx, nil
}

func unpackRecord(buffer []byte) (*Record, int, error) {
	n := 0

	fingerprint, fingerprintLength := unpackBytes(buffer[n:], MaxFingerprintLength)
	if 0 == fingerprintLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += fingerprintLength

	versionBytes, versionLength := unpackBytes(buffer[n:], VersionIdLength)
	if 0 == versionLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += versionLength
	versionId, err := VersionIdFromBytes(versionBytes)
	if nil != err {
		return nil, 0, err
	}

	issuer, issuerLength, err := unpackAccount(buffer[n:])
	if nil != err {
		return nil, 0, err
	}
	n += issuerLength

	count, countLength := util.ClippedVarint64(buffer[n:], 0, maxParticipants)
	if 0 == countLength {
		return nil, 0, fault.ErrNotTransactionPack
	}
	n += countLength

	participants := make([]*account.Account, 0, count)
	for i := 0; i < count; i += 1 {
		p, pLength, err := unpackAccount(buffer[n:])
		if nil != err {
			return nil, 0, err
		}
		n += pLength
		participants = append(participants, p)
	}

	// order is preserved so the validator sees exactly what was signed
	r := &Record{
		Fingerprint:  string(fingerprint),
		Participants: participants,
		Issuer:       issuer,
		VersionId:    versionId,
	}
	return r, n, nil
}

func unpackAccount(buffer []byte) (*account.Account, int, error) {
	data, n := unpackBytes(buffer, 64)
	if 0 == n {
		return nil, 0, fault.ErrNotTransactionPack
	}
	acc, err := account.AccountFromBytes(data)
	if nil != err {
		return nil, 0, err
	}
	return acc, n, nil
}

// length prefixed field, returns 0 for the count on failure
func unpackBytes(buffer []byte, maximum int) ([]byte, int) {
	length, lengthLength := util.ClippedVarint64(buffer, 0, maximum)
	if 0 == lengthLength {
		return nil, 0
	}
	end := lengthLength + length
	if end > len(buffer) {
		return nil, 0
	}
	data := make([]byte, length)
	copy(data, buffer[lengthLength:end])
	return data, end
}
