// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/validator"
)

// every holder must see the same latest version
func assertAgreement(t *testing.T, n *network, id record.VersionId, names ...string) *record.Version {
	expected, err := n.issuerStore.ByVersionId(id)
	if nil != err {
		t.Fatalf("issuer has no version: %s", err)
	}
	assert.False(t, expected.Record.HasParticipant(fixtures.Issuer), "issuer is a participant")

	for _, name := range names {
		v, err := n.nodes[name].store.ByVersionId(id)
		if !assert.Nil(t, err, "%s: no version", name) {
			continue
		}
		assert.Equal(t, expected.Link, v.Link, "%s: different link", name)
		assert.Equal(t, expected.Record, v.Record, "%s: different record", name)
	}
	return expected
}

func assertSingleUnconsumed(t *testing.T, store recordstore.Store, fingerprint string) {
	versions, err := store.UnconsumedByFingerprint(fingerprint)
	assert.Nil(t, err, "unconsumed query")
	assert.Equal(t, 1, len(versions), "unconsumed count for %q", fingerprint)
}

// A: first request creates the record
func TestScenarioIssue(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	id, err := n.nodes["alice"].relay.Request(context.Background(), "X")
	assert.Nil(t, err, "request")

	v := assertAgreement(t, n, id, "alice")
	assert.Equal(t, []*account.Account{fixtures.Alice}, v.Record.Participants, "participants")
	assert.True(t, fixtures.Issuer.Equal(v.Record.Issuer), "issuer")
	assertSingleUnconsumed(t, n.issuerStore, "X")
}

// B: second requester joins the same record
func TestScenarioJoin(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	ctx := context.Background()
	idA, err := n.nodes["alice"].relay.Request(ctx, "X")
	assert.Nil(t, err, "alice")
	idB, err := n.nodes["bob"].relay.Request(ctx, "X")
	assert.Nil(t, err, "bob")
	assert.Equal(t, idA, idB, "different version ids")

	v := assertAgreement(t, n, idA, "alice", "bob")
	assert.Equal(t, 2, len(v.Record.Participants), "participants")
	assert.True(t, v.Record.HasParticipant(fixtures.Alice), "alice missing")
	assert.True(t, v.Record.HasParticipant(fixtures.Bob), "bob missing")

	assertSingleUnconsumed(t, n.issuerStore, "X")
	assertSingleUnconsumed(t, n.nodes["alice"].store, "X")
	assertSingleUnconsumed(t, n.nodes["bob"].store, "X")

	history, err := n.issuerStore.History(idA)
	assert.Nil(t, err, "history")
	assert.Equal(t, 2, len(history), "history length")
	assert.Equal(t, record.Consumed, history[0].Status, "first version not consumed")
}

// C: three requesters, one record
func TestScenarioThreeParties(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	ctx := context.Background()
	ids := []record.VersionId{}
	for _, name := range []string{"alice", "bob", "carol"} {
		id, err := n.nodes[name].relay.Request(ctx, "X")
		assert.Nil(t, err, "%s", name)
		ids = append(ids, id)
	}
	assert.Equal(t, ids[0], ids[1], "bob differs")
	assert.Equal(t, ids[0], ids[2], "carol differs")

	v := assertAgreement(t, n, ids[0], "alice", "bob", "carol")
	assert.Equal(t, 3, len(v.Record.Participants), "participants")
	assert.True(t, v.Record.IsCanonical(), "participants not canonical")

	_, err := n.nodes["dave"].store.ByVersionId(ids[0])
	assert.Equal(t, fault.ErrRecordNotFound, err, "non-participant received the record")

	// idempotent join
	again, err := n.nodes["bob"].relay.Request(ctx, "X")
	assert.Nil(t, err, "repeat")
	assert.Equal(t, ids[0], again, "repeat changed version")
	v = assertAgreement(t, n, ids[0], "alice", "bob", "carol")
	assert.Equal(t, 3, len(v.Record.Participants), "repeat changed participants")
}

// D: concurrent first requests produce one record
func TestScenarioConcurrent(t *testing.T) {
	n := setupNetwork(t, 5*time.Second)
	defer teardownNetwork()

	names := []string{"alice", "bob", "carol", "dave"}
	ids := make([]record.VersionId, len(names))
	errs := make([]error, len(names))

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			<-start
			ids[i], errs[i] = n.nodes[name].relay.Request(context.Background(), "Y")
		}(i, name)
	}
	close(start)
	wg.Wait()

	for i := range names {
		assert.Nil(t, errs[i], "%s", names[i])
		assert.Equal(t, ids[0], ids[i], "%s: different version id", names[i])
	}

	assertSingleUnconsumed(t, n.issuerStore, "Y")
	v := assertAgreement(t, n, ids[0], names...)
	assert.Equal(t, len(names), len(v.Record.Participants), "participants")
}

// D, distinct fingerprints proceed independently
func TestScenarioDistinctFingerprints(t *testing.T) {
	n := setupNetwork(t, 5*time.Second)
	defer teardownNetwork()

	fingerprints := []string{"P", "Q", "R", "S"}
	ids := make([]record.VersionId, len(fingerprints))

	var wg sync.WaitGroup
	for i, fp := range fingerprints {
		wg.Add(1)
		go func(i int, fp string) {
			defer wg.Done()
			id, err := n.nodes["alice"].relay.Request(context.Background(), fp)
			assert.Nil(t, err, "%s", fp)
			ids[i] = id
		}(i, fp)
	}
	wg.Wait()

	seen := map[record.VersionId]bool{}
	for i, fp := range fingerprints {
		assertSingleUnconsumed(t, n.issuerStore, fp)
		assert.False(t, seen[ids[i]], "%s: shares a version id", fp)
		seen[ids[i]] = true
	}
}

// E: a transaction not signed by the issuer is refused by every party
func TestScenarioForgedTransaction(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	ctx := context.Background()

	// dave forges an issue naming the real issuer
	forged := record.NewIssue(record.NewRecord("Z", fixtures.Issuer, record.NewVersionId(), fixtures.Alice))
	_ = forged.Sign(fixtures.DaveKey)

	err := validator.Validate(forged)
	assert.True(t, fault.IsErrValidation(err), "validator accepted forgery")

	packed, _ := forged.Pack()
	_, err = n.loop.Call(ctx, fixtures.Alice, peer.Prepare, packed)
	assert.True(t, fault.IsErrValidation(err), "recipient accepted forgery: %v", err)
	assert.Equal(t, validator.RuleIssueIssuerSigns, fault.RuleOf(err), "rule lost over the wire")
	assert.Equal(t, 0, n.nodes["alice"].receiver.Staged(), "forgery staged")

	_, err = n.loop.Call(ctx, fixtures.Notary, peer.Notarise, packed)
	assert.True(t, fault.IsErrValidation(err), "notary accepted forgery: %v", err)

	// a participant signing its own extension
	id, err := n.nodes["alice"].relay.Request(ctx, "Z")
	assert.Nil(t, err, "request")
	current, _ := n.nodes["alice"].store.ByVersionId(id)
	grab := record.NewAddParticipant(current, current.Record.WithParticipant(fixtures.Dave))
	_ = grab.Sign(fixtures.AliceKey)
	packed, _ = grab.Pack()
	_, err = n.loop.Call(ctx, fixtures.Dave, peer.Prepare, packed)
	assert.Equal(t, validator.RuleAddParticipantNotSigner, fault.RuleOf(err), "self signed extension accepted")
}

// a stale issuer store meets the notary
func TestScenarioNotaryConflict(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	ctx := context.Background()
	id, err := n.nodes["alice"].relay.Request(ctx, "W")
	assert.Nil(t, err, "request")

	// another transaction consumed the version behind the issuer's back
	current, _ := n.issuerStore.ByVersionId(id)
	elsewhere := record.NewAddParticipant(current, current.Record.WithParticipant(fixtures.Carol))
	_ = elsewhere.Sign(fixtures.IssuerKey)
	assert.Nil(t, n.notary.Notarise(ctx, elsewhere), "claim")

	_, err = n.nodes["bob"].relay.Request(ctx, "W")
	assert.True(t, fault.IsErrConflict(err), "conflict not surfaced: %v", err)
	assert.Equal(t, 0, n.nodes["bob"].receiver.Staged(), "bob not aborted")
	assert.Equal(t, 0, n.nodes["alice"].receiver.Staged(), "alice not aborted")

	v, _ := n.issuerStore.ByVersionId(id)
	assert.False(t, v.Record.HasParticipant(fixtures.Bob), "bob added despite conflict")
}

// a slow participant fails the request but invalidates nothing
func TestScenarioParticipantTimeout(t *testing.T) {
	n := setupNetwork(t, 50*time.Millisecond)
	defer teardownNetwork()

	ctx := context.Background()
	id, err := n.nodes["alice"].relay.Request(ctx, "T")
	assert.Nil(t, err, "request")

	n.loop.SetDelay(fixtures.Alice, time.Second)
	_, err = n.nodes["bob"].relay.Request(ctx, "T")
	assert.True(t, fault.IsErrTimeout(err), "timeout not surfaced: %v", err)

	v, err := n.issuerStore.ByVersionId(id)
	assert.Nil(t, err, "record lost")
	assert.Equal(t, record.Unconsumed, v.Status, "record invalidated")
	assert.False(t, v.Record.HasParticipant(fixtures.Bob), "bob added despite timeout")

	// retry once alice is back
	n.loop.SetDelay(fixtures.Alice, 0)
	again, err := n.nodes["bob"].relay.Request(ctx, "T")
	assert.Nil(t, err, "retry")
	assert.Equal(t, id, again, "retry changed version id")
	assertAgreement(t, n, id, "alice", "bob")
}

// a commit lost on the way to the requester is not success on retry
func TestScenarioLostCommit(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	ctx := context.Background()
	id, err := n.nodes["alice"].relay.Request(ctx, "L")
	assert.Nil(t, err, "alice")

	n.issuerLinks.lose(fixtures.Bob, peer.Commit)
	_, err = n.nodes["bob"].relay.Request(ctx, "L")
	assert.True(t, fault.IsErrTimeout(err), "lost commit not surfaced: %v", err)

	_, err = n.nodes["bob"].store.ByVersionId(id)
	assert.Equal(t, fault.ErrRecordNotFound, err, "bob stored an uncommitted record")

	// still lost, the retry must fail as well
	_, err = n.nodes["bob"].relay.Request(ctx, "L")
	assert.True(t, fault.IsErrTimeout(err), "undelivered retry reported as success: %v", err)

	n.issuerLinks.lose(fixtures.Bob, "")
	again, err := n.nodes["bob"].relay.Request(ctx, "L")
	assert.Nil(t, err, "retry")
	assert.Equal(t, id, again, "retry changed version id")

	v := assertAgreement(t, n, id, "alice", "bob")
	assert.True(t, v.Record.HasParticipant(fixtures.Bob), "bob missing")
	assertSingleUnconsumed(t, n.issuerStore, "L")
	assertSingleUnconsumed(t, n.nodes["bob"].store, "L")
	assert.Equal(t, 0, n.nodes["bob"].receiver.Staged(), "bob still staging")
}

// the issuer being unreachable is a relay error
func TestScenarioIssuerUnreachable(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	n.loop.SetDown(fixtures.Issuer, true)
	_, err := n.nodes["alice"].relay.Request(context.Background(), "U")
	assert.True(t, fault.IsErrRelay(err), "not a relay error: %v", err)
}

// participants that miss nothing fetch the same bytes
func TestScenarioFetch(t *testing.T) {
	n := setupNetwork(t, time.Second)
	defer teardownNetwork()

	ctx := context.Background()
	id, err := n.nodes["alice"].relay.Request(ctx, "F")
	assert.Nil(t, err, "alice")
	_, err = n.nodes["bob"].relay.Request(ctx, "F")
	assert.Nil(t, err, "bob")

	fromIssuer, err := n.nodes["alice"].relay.Fetch(ctx, fixtures.Issuer, id)
	assert.Nil(t, err, "fetch from issuer")
	fromBob, err := n.nodes["alice"].relay.Fetch(ctx, fixtures.Bob, id)
	assert.Nil(t, err, "fetch from bob")

	a, _ := fromIssuer.Pack()
	b, _ := fromBob.Pack()
	assert.Equal(t, a, b, "parties disagree")

	_, err = n.nodes["alice"].relay.Fetch(ctx, fixtures.Dave, id)
	assert.Equal(t, fault.ErrRecordNotFound, err, "dave holds a record it is not part of")
}
