// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/peer"
)

func TestErrorRoundTrip(t *testing.T) {
	items := []error{
		fault.NewValidationError("issue.issuer-signs", "signer is not the issuer"),
		fault.ErrStoreConsistency,
		fault.ErrConsumedByOther,
		fault.ErrUnknownIssuer,
		fault.ErrCommitTimeout,
		fault.ErrMissingFingerprint,
		fault.ErrRecordNotFound,
		fault.QueryError("record store query failed: disk"),
	}

	for i, item := range items {
		frames := peer.EncodeError(item)
		assert.Equal(t, "E", string(frames[0]), "%d: not an error frame", i)

		actual := peer.DecodeError(frames[1:])
		assert.Equal(t, item, actual, "%d: error changed on the wire", i)
	}
}

func TestErrorClassPredicates(t *testing.T) {
	err := peer.DecodeError(peer.EncodeError(fault.ErrConsumedByOther)[1:])
	assert.True(t, fault.IsErrConflict(err), "conflict lost its class")
	assert.True(t, fault.IsErrCommit(err), "conflict is not a commit error")

	err = peer.DecodeError(peer.EncodeError(fault.NewValidationError("add.version-unchanged", "changed"))[1:])
	assert.True(t, fault.IsErrValidation(err), "validation lost its class")
	assert.Equal(t, "add.version-unchanged", fault.RuleOf(err), "rule lost")

	err = peer.DecodeError(peer.EncodeError(fault.ErrAlreadyInitialised)[1:])
	assert.True(t, fault.IsErrProcess(err), "other errors should become process errors")
	assert.Equal(t, fault.ErrAlreadyInitialised.Error(), err.Error(), "message lost")
}

func TestDecodeReply(t *testing.T) {
	results, err := peer.DecodeReply("Q", [][]byte{[]byte("Q"), []byte("packed")})
	assert.Nil(t, err, "good reply")
	assert.Equal(t, [][]byte{[]byte("packed")}, results, "wrong results")

	_, err = peer.DecodeReply("Q", [][]byte{[]byte("P")})
	assert.Equal(t, fault.ErrUnexpectedReply, err, "mismatched command accepted")

	_, err = peer.DecodeReply("Q", nil)
	assert.Equal(t, fault.ErrUnexpectedReply, err, "empty reply accepted")

	_, err = peer.DecodeReply("Q", [][]byte{[]byte("E"), []byte("N"), []byte("record not found")})
	assert.Equal(t, fault.ErrRecordNotFound, err, "remote error not decoded")

	_, err = peer.DecodeReply("Q", [][]byte{[]byte("E")})
	assert.Equal(t, fault.ErrUnexpectedReply, err, "truncated error accepted")
}
