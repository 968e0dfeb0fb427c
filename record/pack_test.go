// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/record"
)

func makeAddParticipant(t *testing.T) *record.Transaction {
	id := record.NewVersionId()
	issue := record.NewIssue(record.NewRecord("fp-1", fixtures.Issuer, id, fixtures.Alice))
	assert.Nil(t, issue.Sign(fixtures.IssuerKey), "sign issue")
	link, err := issue.Link()
	assert.Nil(t, err, "issue link")

	consumed := &record.Version{
		Link:   link,
		Record: issue.Output(),
	}
	tx := record.NewAddParticipant(consumed, consumed.Record.WithParticipant(fixtures.Bob))
	assert.Nil(t, tx.Sign(fixtures.IssuerKey), "sign add")
	return tx
}

func TestPackUnpack(t *testing.T) {
	tx := makeAddParticipant(t)

	packed, err := tx.Pack()
	if !assert.Nil(t, err, "pack") {
		return
	}

	decoded, err := record.UnpackTransaction(packed)
	if !assert.Nil(t, err, "unpack") {
		return
	}

	assert.Equal(t, record.AddParticipant, decoded.Command, "command")
	assert.Equal(t, 1, len(decoded.Consumed), "consumed")
	assert.Equal(t, tx.Consumed[0].Link, decoded.Consumed[0].Link, "consumed link")
	assert.Equal(t, 1, len(decoded.Produced), "produced")
	assert.Equal(t, tx.Output().VersionId, decoded.Output().VersionId, "version id")
	assert.Equal(t, 2, len(decoded.Output().Participants), "participants")
	assert.Equal(t, 1, len(decoded.Signatures), "signatures")

	repacked, err := decoded.Pack()
	assert.Nil(t, err, "repack")
	assert.Equal(t, packed, repacked, "identical bytes")

	link, _ := tx.Link()
	assert.Equal(t, packed.MakeLink(), link, "link")
}

func TestSignatureCoversMessage(t *testing.T) {
	tx := makeAddParticipant(t)
	message, err := tx.Message()
	assert.Nil(t, err, "message")
	assert.Nil(t, fixtures.Issuer.CheckSignature(message, tx.Signatures[0].Signature), "verifies")

	tx.Produced[0].Fingerprint = "tampered"
	message, _ = tx.Message()
	assert.Equal(t, fault.ErrInvalidSignature, fixtures.Issuer.CheckSignature(message, tx.Signatures[0].Signature), "tampered")
}

func TestUnpackErrors(t *testing.T) {
	tx := makeAddParticipant(t)
	packed, _ := tx.Pack()

	_, err := record.UnpackTransaction(packed[:len(packed)-3])
	assert.Equal(t, fault.ErrNotTransactionPack, err, "truncated")

	_, err = record.UnpackTransaction(append(append([]byte{}, packed...), 0x00))
	assert.Equal(t, fault.ErrNotTransactionPack, err, "trailing data")

	bad := append([]byte{}, packed...)
	bad[0] = 0x09
	_, err = record.UnpackTransaction(bad)
	assert.Equal(t, fault.ErrUnrecognisedCommand, err, "command tag")

	_, err = record.UnpackTransaction([]byte{})
	assert.Equal(t, fault.ErrNotTransactionPack, err, "empty")
}

func TestPackErrors(t *testing.T) {
	tx := record.NewIssue(&record.Record{Fingerprint: "fp"})
	_, err := tx.Pack()
	assert.Equal(t, fault.ErrMissingParameters, err, "no issuer")

	long := make([]byte, record.MaxFingerprintLength+1)
	tx = record.NewIssue(record.NewRecord(string(long), fixtures.Issuer, record.NewVersionId()))
	_, err = tx.Pack()
	assert.Equal(t, fault.ErrFingerprintTooLong, err, "long fingerprint")
}
