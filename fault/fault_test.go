// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
)

var (
	errExists      = fault.ExistsError("exists")
	errInvalid     = fault.InvalidError("invalid")
	errNotFound    = fault.NotFoundError("not found")
	errProcess     = fault.ProcessError("process")
	errQuery       = fault.QueryError("query")
	errConsistency = fault.ConsistencyError("consistency")
	errConflict    = fault.ConflictError("conflict")
	errRejected    = fault.RejectedError("rejected")
	errTimeout     = fault.TimeoutError("timeout")
	errTransport   = fault.TransportError("transport")
	errRelay       = fault.RelayError("relay")
)

// test that the error classes do not overlap
func TestClasses(t *testing.T) {
	predicates := []func(error) bool{
		fault.IsErrExists,
		fault.IsErrInvalid,
		fault.IsErrNotFound,
		fault.IsErrProcess,
		fault.IsErrQuery,
		fault.IsErrConsistency,
		fault.IsErrConflict,
		fault.IsErrRejected,
		fault.IsErrTimeout,
		fault.IsErrTransport,
		fault.IsErrRelay,
	}
	errorList := []error{
		errExists,
		errInvalid,
		errNotFound,
		errProcess,
		errQuery,
		errConsistency,
		errConflict,
		errRejected,
		errTimeout,
		errTransport,
		errRelay,
	}

	for i, err := range errorList {
		for j, is := range predicates {
			assert.Equal(t, i == j, is(err), "%d/%d: wrong class for: %v", i, j, err)
		}
		assert.False(t, fault.IsErrValidation(err), "%d: not a validation error: %v", i, err)
	}
}

func TestCommitClass(t *testing.T) {
	assert.True(t, fault.IsErrCommit(errConflict), "conflict")
	assert.True(t, fault.IsErrCommit(errRejected), "rejected")
	assert.True(t, fault.IsErrCommit(errTimeout), "timeout")
	assert.True(t, fault.IsErrCommit(fault.ErrCommitTimeout), "commit timeout")
	assert.False(t, fault.IsErrCommit(errTransport), "transport")
	assert.False(t, fault.IsErrCommit(fault.ErrStoreConsistency), "consistency")
}

func TestValidationError(t *testing.T) {
	err := error(fault.NewValidationError("issue.no-inputs", "no inputs allowed"))

	assert.True(t, fault.IsErrValidation(err), "wrong class")
	assert.Equal(t, "issue.no-inputs", fault.RuleOf(err), "wrong rule")
	assert.Equal(t, "issue.no-inputs: no inputs allowed", err.Error(), "wrong message")
	assert.Equal(t, "", fault.RuleOf(errInvalid), "rule of non validation error")
}

func TestPanicIfError(t *testing.T) {
	assert.NotPanics(t, func() { fault.PanicIfError("no error", nil) }, "panic on nil error")
	assert.Panics(t, func() { fault.PanicIfError("store", errQuery) }, "no panic on error")
}
