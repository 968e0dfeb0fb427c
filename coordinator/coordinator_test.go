// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinator_test

import (
	"context"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/coordinator"
	"github.com/bitmark-inc/registryd/coordinator/mocks"
	"github.com/bitmark-inc/registryd/dedup"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/validator"
)

// a committer that only persists into the issuer store
func persistOnly(store recordstore.Store) func(context.Context, *record.Transaction, []*account.Account) error {
	return func(ctx context.Context, tx *record.Transaction, recipients []*account.Account) error {
		return store.Insert(tx)
	}
}

func newCoordinator(committer coordinator.Committer, store recordstore.Store, retries int) *coordinator.Coordinator {
	log := logger.New(fixtures.LogCategory)
	return coordinator.New(log, fixtures.IssuerKey, dedup.New(log, store), committer, retries)
}

func TestSubmitIssueThenJoin(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(persistOnly(store)).Times(2)

	c := newCoordinator(committer, store, -1)
	ctx := context.Background()

	idA, err := c.Submit(ctx, "fp-join", fixtures.Alice)
	assert.Nil(t, err, "issue")

	idB, err := c.Submit(ctx, "fp-join", fixtures.Bob)
	assert.Nil(t, err, "join")
	assert.Equal(t, idA, idB, "join produced a new record")

	// already a member, no new transaction only a delivery to alice
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), []*account.Account{fixtures.Alice}).DoAndReturn(persistOnly(store)).Times(1)
	again, err := c.Submit(ctx, "fp-join", fixtures.Alice)
	assert.Nil(t, err, "repeat")
	assert.Equal(t, idA, again, "repeat changed version id")

	v, err := store.ByVersionId(idA)
	assert.Nil(t, err, "stored")
	assert.Equal(t, 2, len(v.Record.Participants), "participants")
}

func TestSubmitMemberRedelivers(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	c := newCoordinator(committer, store, -1)
	ctx := context.Background()

	// the issuer stored the record but alice never acknowledged it
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx *record.Transaction, recipients []*account.Account) error {
			_ = store.Insert(tx)
			return fault.ErrCommitTimeout
		}).Times(1)
	_, err := c.Submit(ctx, "fp-redeliver", fixtures.Alice)
	assert.Equal(t, fault.ErrCommitTimeout, err, "lost commit reported as success")

	versions, _ := store.UnconsumedByFingerprint("fp-redeliver")
	if 1 != len(versions) {
		t.Fatalf("issuer store has %d versions", len(versions))
	}
	current := versions[0]

	// the retry must not succeed until the same transaction is delivered
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), []*account.Account{fixtures.Alice}).Return(fault.ErrCommitTimeout).Times(1)
	_, err = c.Submit(ctx, "fp-redeliver", fixtures.Alice)
	assert.Equal(t, fault.ErrCommitTimeout, err, "undelivered member reported as success")

	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), []*account.Account{fixtures.Alice}).DoAndReturn(
		func(ctx context.Context, tx *record.Transaction, recipients []*account.Account) error {
			packed, err := tx.Pack()
			assert.Nil(t, err, "pack")
			assert.Equal(t, current.Link, packed.MakeLink(), "different transaction delivered")
			return nil
		}).Times(1)
	id, err := c.Submit(ctx, "fp-redeliver", fixtures.Alice)
	assert.Nil(t, err, "redelivery")
	assert.Equal(t, current.Record.VersionId, id, "version changed")

	versions, _ = store.UnconsumedByFingerprint("fp-redeliver")
	assert.Equal(t, 1, len(versions), "redelivery produced a version")
}

func TestSubmitRecipients(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)

	c := newCoordinator(committer, store, -1)

	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), []*account.Account{fixtures.Alice}).DoAndReturn(persistOnly(store)).Times(1)
	_, err := c.Submit(context.Background(), "fp-recipients", fixtures.Alice)
	assert.Nil(t, err, "issue")

	expected := record.NewRecord("fp-recipients", fixtures.Issuer, record.VersionId{}, fixtures.Alice, fixtures.Carol).Participants
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), expected).DoAndReturn(persistOnly(store)).Times(1)
	_, err = c.Submit(context.Background(), "fp-recipients", fixtures.Carol)
	assert.Nil(t, err, "join")
}

func TestSubmitRetriesConflict(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	gomock.InOrder(
		committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(fault.ErrConsumedByOther).Times(2),
		committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(persistOnly(store)).Times(1),
	)

	c := newCoordinator(committer, store, 3)
	id, err := c.Submit(context.Background(), "fp-retry", fixtures.Alice)
	assert.Nil(t, err, "retry did not succeed")
	assert.False(t, id.IsZero(), "zero version id")
}

func TestSubmitConflictExhausted(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(fault.ErrConsumedByOther).Times(3)

	c := newCoordinator(committer, store, 2)
	_, err := c.Submit(context.Background(), "fp-exhausted", fixtures.Alice)
	assert.Equal(t, fault.ErrConsumedByOther, err, "conflict not surfaced")
}

func TestSubmitDoesNotRetryOtherFailures(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).Return(fault.ErrCommitTimeout).Times(1)

	c := newCoordinator(committer, store, 3)
	_, err := c.Submit(context.Background(), "fp-timeout", fixtures.Alice)
	assert.Equal(t, fault.ErrCommitTimeout, err, "timeout not surfaced")

	_, err = store.UnconsumedByFingerprint("fp-timeout")
	assert.Nil(t, err, "store query")
}

func TestSubmitInvalid(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	c := newCoordinator(committer, store, -1)
	ctx := context.Background()

	// the issuer can never be a participant
	_, err := c.Submit(ctx, "fp-self", fixtures.Issuer)
	assert.Equal(t, validator.RuleIssueIssuerNotParticipant, fault.RuleOf(err), "issuer admitted as participant")

	_, err = c.Submit(ctx, "", fixtures.Alice)
	assert.Equal(t, fault.ErrMissingFingerprint, err, "empty fingerprint")

	long := make([]byte, record.MaxFingerprintLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = c.Submit(ctx, string(long), fixtures.Alice)
	assert.Equal(t, fault.ErrFingerprintTooLong, err, "long fingerprint")

	_, err = c.Submit(ctx, "fp", nil)
	assert.Equal(t, fault.ErrMissingParameters, err, "missing requester")
}

func TestSubmitSigned(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(persistOnly(store)).Times(1)

	c := newCoordinator(committer, store, -1)
	ctx := context.Background()

	signature := fixtures.AliceKey.Sign(coordinator.SubmitMessage("fp-signed", fixtures.Alice))
	_, err := c.SubmitSigned(ctx, "fp-signed", fixtures.Alice, signature)
	assert.Nil(t, err, "signed submit")

	// bob cannot ask on alice's behalf
	signature = fixtures.BobKey.Sign(coordinator.SubmitMessage("fp-signed", fixtures.Alice))
	_, err = c.SubmitSigned(ctx, "fp-signed", fixtures.Alice, signature)
	assert.Equal(t, fault.ErrInvalidRequestSignature, err, "forged request accepted")

	// signature covers the fingerprint
	signature = fixtures.AliceKey.Sign(coordinator.SubmitMessage("fp-other", fixtures.Alice))
	_, err = c.SubmitSigned(ctx, "fp-signed", fixtures.Alice, signature)
	assert.Equal(t, fault.ErrInvalidRequestSignature, err, "replayed signature accepted")
}

func TestSubmitHonoursContextWhileWaiting(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	ctl := gomock.NewController(t)
	defer ctl.Finish()

	store := recordstore.NewMemory()
	committer := mocks.NewMockCommitter(ctl)

	started := make(chan struct{})
	release := make(chan struct{})
	committer.EXPECT().Commit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, tx *record.Transaction, recipients []*account.Account) error {
			close(started)
			<-release
			return store.Insert(tx)
		}).Times(1)

	c := newCoordinator(committer, store, -1)

	done := make(chan error)
	go func() {
		_, err := c.Submit(context.Background(), "fp-busy", fixtures.Alice)
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Submit(ctx, "fp-busy", fixtures.Bob)
	assert.Equal(t, fault.ErrCommitTimeout, err, "waiter ignored its deadline")

	close(release)
	assert.Nil(t, <-done, "first submit")
}
