// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notary_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/notary"
	"github.com/bitmark-inc/registryd/notary/mocks"
	"github.com/bitmark-inc/registryd/peer"
	peermocks "github.com/bitmark-inc/registryd/peer/mocks"
	"github.com/bitmark-inc/registryd/recordstore/storetest"
	"github.com/bitmark-inc/registryd/storage"
	storagemocks "github.com/bitmark-inc/registryd/storage/mocks"
)

func setup(t *testing.T) {
	fixtures.SetupTestLogger()
	err := storage.Initialise(filepath.Join(fixtures.Directory(), "notary"), storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
}

func teardown() {
	storage.Finalise()
	fixtures.TeardownTestLogger()
}

func TestLocalNotarise(t *testing.T) {
	setup(t)
	defer teardown()

	n := notary.NewLocal(logger.New(fixtures.LogCategory), storage.Pool.Notary)
	ctx := context.Background()

	issue := storetest.Issue(t, "fp-notary", fixtures.Alice)
	assert.Nil(t, n.Notarise(ctx, issue), "issue has nothing to claim")

	extendBob := storetest.Extend(t, issue, fixtures.Bob)
	extendCarol := storetest.Extend(t, issue, fixtures.Carol)

	assert.Nil(t, n.Notarise(ctx, extendBob), "first consumer")
	assert.Nil(t, n.Notarise(ctx, extendBob), "same consumer again")

	err := n.Notarise(ctx, extendCarol)
	assert.Equal(t, fault.ErrConsumedByOther, err, "second consumer")
	assert.True(t, fault.IsErrConflict(err), "not a conflict")

	issueLink, _ := issue.Link()
	bobLink, _ := extendBob.Link()
	consumer, ok := n.ConsumedBy(issueLink)
	assert.True(t, ok, "claim not recorded")
	assert.Equal(t, bobLink, consumer, "wrong consumer recorded")

	_, ok = n.ConsumedBy(bobLink)
	assert.False(t, ok, "unconsumed link reported consumed")
}

func TestLocalNotariseSurvivesReopen(t *testing.T) {
	setup(t)
	defer teardown()

	ctx := context.Background()
	issue := storetest.Issue(t, "fp-reopen", fixtures.Alice)
	extendBob := storetest.Extend(t, issue, fixtures.Bob)
	extendCarol := storetest.Extend(t, issue, fixtures.Carol)

	n := notary.NewLocal(logger.New(fixtures.LogCategory), storage.Pool.Notary)
	assert.Nil(t, n.Notarise(ctx, extendBob), "first consumer")

	storage.Finalise()
	err := storage.Initialise(filepath.Join(fixtures.Directory(), "notary"), storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage reopen error: %s", err)
	}

	n = notary.NewLocal(logger.New(fixtures.LogCategory), storage.Pool.Notary)
	assert.Equal(t, fault.ErrConsumedByOther, n.Notarise(ctx, extendCarol), "claim lost on reopen")
}

func TestLocalNotariseWithMockPool(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	issue := storetest.Issue(t, "fp-mock", fixtures.Alice)
	extend := storetest.Extend(t, issue, fixtures.Bob)
	issueLink, _ := issue.Link()
	extendLink, _ := extend.Link()

	m := storagemocks.NewMockHandle(ctl)
	m.EXPECT().Get(issueLink[:]).Return(nil).Times(1)
	m.EXPECT().Put(issueLink[:], extendLink[:]).Times(1)

	n := notary.NewLocal(logger.New(fixtures.LogCategory), m)
	assert.Nil(t, n.Notarise(context.Background(), extend), "notarise")
}

func TestRemoteNotarise(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	issue := storetest.Issue(t, "fp-remote", fixtures.Alice)
	packed, _ := issue.Pack()

	caller := peermocks.NewMockCaller(ctl)
	caller.EXPECT().Call(gomock.Any(), fixtures.Notary, peer.Notarise, []byte(packed)).Return(nil, nil).Times(1)

	r := notary.NewRemote(caller, func() (*account.Account, error) {
		return fixtures.Notary, nil
	})
	assert.Nil(t, r.Notarise(context.Background(), issue), "remote notarise")
}

func TestRemoteNotariseErrors(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	issue := storetest.Issue(t, "fp-remote-errors", fixtures.Alice)

	caller := peermocks.NewMockCaller(ctl)
	caller.EXPECT().Call(gomock.Any(), fixtures.Notary, peer.Notarise, gomock.Any()).Return(nil, fault.ErrConsumedByOther).Times(1)

	r := notary.NewRemote(caller, func() (*account.Account, error) {
		return fixtures.Notary, nil
	})
	assert.Equal(t, fault.ErrConsumedByOther, r.Notarise(context.Background(), issue), "conflict not passed through")

	missing := notary.NewRemote(caller, func() (*account.Account, error) {
		return nil, fault.ErrMissingNotary
	})
	assert.Equal(t, fault.ErrMissingNotary, missing.Notarise(context.Background(), issue), "resolver error")
}

func TestHandler(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	issue := storetest.Issue(t, "fp-handler", fixtures.Alice)
	packed, _ := issue.Pack()

	n := mocks.NewMockNotary(ctl)
	n.EXPECT().Notarise(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	h := notary.Handler(n)

	results, err := h(context.Background(), [][]byte{packed})
	assert.Nil(t, err, "handler error")
	assert.Equal(t, 0, len(results), "unexpected results")

	_, err = h(context.Background(), nil)
	assert.Equal(t, fault.ErrMissingParameters, err, "missing parameter")

	_, err = h(context.Background(), [][]byte{[]byte("junk")})
	assert.NotNil(t, err, "junk accepted")

	// a participant signing is rejected before any claim
	forged := storetest.Issue(t, "fp-forged", fixtures.Alice)
	forged.Signatures = nil
	_ = forged.Sign(fixtures.AliceKey)
	packed, _ = forged.Pack()
	_, err = h(context.Background(), [][]byte{packed})
	assert.True(t, fault.IsErrValidation(err), "forged transaction reached the notary")
}
