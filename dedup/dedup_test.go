// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dedup_test

import (
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/dedup"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore/mocks"
)

func version(fingerprint string) *record.Version {
	return &record.Version{
		Link:   record.Packed(fingerprint).MakeLink(),
		Record: record.NewRecord(fingerprint, fixtures.Issuer, record.NewVersionId(), fixtures.Alice),
	}
}

func TestFindUnconsumed(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	v := version("fp")

	store := mocks.NewMockStore(ctl)
	store.EXPECT().UnconsumedByFingerprint("fp").Return([]*record.Version{v}, nil).Times(1)
	store.EXPECT().UnconsumedByFingerprint("none").Return([]*record.Version{}, nil).Times(1)

	r := dedup.New(logger.New(fixtures.LogCategory), store)

	found, err := r.FindUnconsumed("fp")
	assert.Nil(t, err, "match")
	assert.Equal(t, v, found, "the match")

	found, err = r.FindUnconsumed("none")
	assert.Nil(t, err, "no match is not an error")
	assert.Nil(t, found, "no match")
}

func TestMoreThanOne(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := mocks.NewMockStore(ctl)
	store.EXPECT().UnconsumedByFingerprint("fp").Return([]*record.Version{version("fp"), version("fp")}, nil).Times(1)

	r := dedup.New(logger.New(fixtures.LogCategory), store)

	_, err := r.FindUnconsumed("fp")
	assert.Equal(t, fault.ErrStoreConsistency, err, "consistency")
	assert.True(t, fault.IsErrConsistency(err), "class")
}

func TestStoreFailure(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := mocks.NewMockStore(ctl)
	store.EXPECT().UnconsumedByFingerprint("fp").Return(nil, fault.ErrInvalidCount).Times(1)

	r := dedup.New(logger.New(fixtures.LogCategory), store)

	_, err := r.FindUnconsumed("fp")
	assert.True(t, fault.IsErrQuery(err), "query error")

	_, err = r.FindUnconsumed("")
	assert.Equal(t, fault.ErrMissingFingerprint, err, "empty fingerprint")
}
