// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storetest - behaviour every record store backend must share
package storetest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
)

// Opener - create an empty store and a function to dispose of it
type Opener func(t *testing.T) (recordstore.Store, func())

// Issue - a signed issue transaction
func Issue(t *testing.T, fingerprint string, participants ...*account.Account) *record.Transaction {
	tx := record.NewIssue(record.NewRecord(fingerprint, fixtures.Issuer, record.NewVersionId(), participants...))
	if err := tx.Sign(fixtures.IssuerKey); nil != err {
		t.Fatalf("sign issue: %s", err)
	}
	return tx
}

// Extend - a signed add participant transaction consuming the output of previous
func Extend(t *testing.T, previous *record.Transaction, newcomer *account.Account) *record.Transaction {
	link, err := previous.Link()
	if nil != err {
		t.Fatalf("link: %s", err)
	}
	consumed := &record.Version{
		Link:   link,
		Record: previous.Output(),
	}
	tx := record.NewAddParticipant(consumed, consumed.Record.WithParticipant(newcomer))
	if err := tx.Sign(fixtures.IssuerKey); nil != err {
		t.Fatalf("sign extend: %s", err)
	}
	return tx
}

// Run - the conformance suite
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		f    func(*testing.T, recordstore.Store)
	}{
		{"issue", testIssue},
		{"extend", testExtend},
		{"idempotent insert", testIdempotent},
		{"double consumption", testDoubleConsumption},
		{"unknown consumed link", testUnknownConsumed},
		{"not found", testNotFound},
		{"distinct fingerprints", testDistinctFingerprints},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store, done := open(t)
			defer done()
			test.f(t, store)
		})
	}
}

func testIssue(t *testing.T, store recordstore.Store) {
	tx := Issue(t, "fp-issue", fixtures.Alice)
	assert.Nil(t, store.Insert(tx), "insert")

	link, _ := tx.Link()
	versions, err := store.UnconsumedByFingerprint("fp-issue")
	assert.Nil(t, err, "unconsumed")
	if !assert.Equal(t, 1, len(versions), "one unconsumed") {
		return
	}
	assert.Equal(t, link, versions[0].Link, "link")
	assert.Equal(t, record.Unconsumed, versions[0].Status, "status")
	assert.Equal(t, tx.Output().VersionId, versions[0].Record.VersionId, "version id")
	assert.True(t, versions[0].Record.HasParticipant(fixtures.Alice), "participant")

	latest, err := store.ByVersionId(tx.Output().VersionId)
	assert.Nil(t, err, "by version id")
	assert.Equal(t, link, latest.Link, "latest link")

	stored, err := store.Transaction(link)
	assert.Nil(t, err, "transaction")
	storedLink, _ := stored.Link()
	assert.Equal(t, link, storedLink, "same transaction")
}

func testExtend(t *testing.T, store recordstore.Store) {
	issue := Issue(t, "fp-extend", fixtures.Alice)
	extend := Extend(t, issue, fixtures.Bob)

	assert.Nil(t, store.Insert(issue), "insert issue")
	assert.Nil(t, store.Insert(extend), "insert extend")

	issueLink, _ := issue.Link()
	extendLink, _ := extend.Link()

	versions, err := store.UnconsumedByFingerprint("fp-extend")
	assert.Nil(t, err, "unconsumed")
	if !assert.Equal(t, 1, len(versions), "still one unconsumed") {
		return
	}
	assert.Equal(t, extendLink, versions[0].Link, "newest is unconsumed")
	assert.Equal(t, 2, len(versions[0].Record.Participants), "two participants")

	history, err := store.History(issue.Output().VersionId)
	assert.Nil(t, err, "history")
	if !assert.Equal(t, 2, len(history), "two versions") {
		return
	}
	assert.Equal(t, issueLink, history[0].Link, "oldest first")
	assert.Equal(t, record.Consumed, history[0].Status, "issue consumed")
	assert.Equal(t, extendLink, history[1].Link, "newest last")
	assert.Equal(t, record.Unconsumed, history[1].Status, "extend unconsumed")

	latest, err := store.ByVersionId(issue.Output().VersionId)
	assert.Nil(t, err, "latest")
	assert.Equal(t, extendLink, latest.Link, "latest is extend")
}

func testIdempotent(t *testing.T, store recordstore.Store) {
	tx := Issue(t, "fp-twice", fixtures.Alice)
	assert.Nil(t, store.Insert(tx), "first")
	assert.Nil(t, store.Insert(tx), "second")

	history, err := store.History(tx.Output().VersionId)
	assert.Nil(t, err, "history")
	assert.Equal(t, 1, len(history), "stored once")
}

func testDoubleConsumption(t *testing.T, store recordstore.Store) {
	issue := Issue(t, "fp-double", fixtures.Alice)
	first := Extend(t, issue, fixtures.Bob)
	second := Extend(t, issue, fixtures.Carol)

	assert.Nil(t, store.Insert(issue), "issue")
	assert.Nil(t, store.Insert(first), "first")
	assert.Equal(t, fault.ErrConsumedByOther, store.Insert(second), "second")

	versions, err := store.UnconsumedByFingerprint("fp-double")
	assert.Nil(t, err, "unconsumed")
	assert.Equal(t, 1, len(versions), "second left no trace")
}

func testUnknownConsumed(t *testing.T, store recordstore.Store) {
	issue := Issue(t, "fp-join", fixtures.Alice)
	extend := Extend(t, issue, fixtures.Bob)

	// a newcomer never saw the issue
	assert.Nil(t, store.Insert(extend), "insert")

	versions, err := store.UnconsumedByFingerprint("fp-join")
	assert.Nil(t, err, "unconsumed")
	assert.Equal(t, 1, len(versions), "one version")

	history, err := store.History(extend.Output().VersionId)
	assert.Nil(t, err, "history")
	assert.Equal(t, 1, len(history), "only what was seen")
}

func testNotFound(t *testing.T, store recordstore.Store) {
	_, err := store.ByVersionId(record.NewVersionId())
	assert.Equal(t, fault.ErrRecordNotFound, err, "by version id")

	_, err = store.History(record.NewVersionId())
	assert.Equal(t, fault.ErrRecordNotFound, err, "history")

	_, err = store.Transaction(record.Packed("nothing").MakeLink())
	assert.Equal(t, fault.ErrTransactionNotFound, err, "transaction")

	versions, err := store.UnconsumedByFingerprint("fp-none")
	assert.Nil(t, err, "no error for no match")
	assert.Equal(t, 0, len(versions), "no match")
}

func testDistinctFingerprints(t *testing.T, store recordstore.Store) {
	assert.Nil(t, store.Insert(Issue(t, "fp-a", fixtures.Alice)), "a")
	assert.Nil(t, store.Insert(Issue(t, "fp-b", fixtures.Alice)), "b")
	assert.Nil(t, store.Insert(Issue(t, "fp-a-longer", fixtures.Alice)), "a-longer")

	for _, fp := range []string{"fp-a", "fp-b", "fp-a-longer"} {
		versions, err := store.UnconsumedByFingerprint(fp)
		assert.Nil(t, err, "%s: unconsumed", fp)
		assert.Equal(t, 1, len(versions), "%s: exactly one", fp)
	}
}
