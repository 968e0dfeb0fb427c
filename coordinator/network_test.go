// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinator_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/broadcast"
	"github.com/bitmark-inc/registryd/coordinator"
	"github.com/bitmark-inc/registryd/dedup"
	"github.com/bitmark-inc/registryd/directory"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/notary"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/relay"
	"github.com/bitmark-inc/registryd/storage"
)

// one participant node
type node struct {
	key      *account.PrivateKey
	store    *recordstore.Memory
	receiver *broadcast.Receiver
	relay    *relay.Relay
}

// the issuer's outbound calls, with single commands to single
// parties made to fail
type lossyCaller struct {
	sync.Mutex
	peer.Caller
	lost map[string]string
}

func (l *lossyCaller) lose(to *account.Account, command string) {
	l.Lock()
	if "" == command {
		delete(l.lost, to.String())
	} else {
		l.lost[to.String()] = command
	}
	l.Unlock()
}

func (l *lossyCaller) Call(ctx context.Context, to *account.Account, command string, parameters ...[]byte) ([][]byte, error) {
	l.Lock()
	lost := nil != to && command == l.lost[to.String()]
	l.Unlock()
	if lost {
		return nil, fault.ErrRequestTimedOut
	}
	return l.Caller.Call(ctx, to, command, parameters...)
}

// issuer, notary and participants over a loopback network
type network struct {
	loop        *peer.Loopback
	issuerLinks *lossyCaller
	dir         *directory.Directory
	coordinator *coordinator.Coordinator
	issuerStore *recordstore.Memory
	notary      *notary.Local
	nodes       map[string]*node
}

func setupNetwork(t *testing.T, commitTimeout time.Duration) *network {
	fixtures.SetupTestLogger()
	err := storage.Initialise(filepath.Join(fixtures.Directory(), "notary"), storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	log := logger.New(fixtures.LogCategory)

	participants := map[string]*account.PrivateKey{
		"alice": fixtures.AliceKey,
		"bob":   fixtures.BobKey,
		"carol": fixtures.CarolKey,
		"dave":  fixtures.DaveKey,
	}

	parties := []*directory.Party{
		{Name: "registrar", Account: fixtures.Issuer, Role: directory.RoleIssuer},
		{Name: "notary", Account: fixtures.Notary, Role: directory.RoleNotary},
	}
	for name, key := range participants {
		parties = append(parties, &directory.Party{Name: name, Account: key.Account(), Role: directory.RoleParticipant})
	}
	dir, err := directory.New(parties...)
	if nil != err {
		t.Fatalf("directory error: %s", err)
	}

	loop := peer.NewLoopback()

	// notary party
	local := notary.NewLocal(log, storage.Pool.Notary)
	nd := peer.NewDispatcher(log)
	nd.Register(peer.Notarise, notary.Handler(local))
	loop.Attach(fixtures.Notary, nd)

	// issuing authority
	issuerStore := recordstore.NewMemory()
	links := &lossyCaller{
		Caller: loop,
		lost:   make(map[string]string),
	}
	b := broadcast.New(log, links, notary.NewRemote(loop, dir.NotaryAccount), issuerStore, commitTimeout)
	c := coordinator.New(log, fixtures.IssuerKey, dedup.New(log, issuerStore), b, -1)
	id := peer.NewDispatcher(log)
	c.Register(id)
	id.Register(peer.Query, relay.QueryHandler(issuerStore))
	loop.Attach(fixtures.Issuer, id)

	n := &network{
		loop:        loop,
		issuerLinks: links,
		dir:         dir,
		coordinator: c,
		issuerStore: issuerStore,
		notary:      local,
		nodes:       make(map[string]*node),
	}

	for name, key := range participants {
		store := recordstore.NewMemory()
		r := broadcast.NewReceiver(log, key.Account(), dir.IssuerAccount, store, 0)
		d := peer.NewDispatcher(log)
		r.Register(d)
		d.Register(peer.Query, relay.QueryHandler(store))
		loop.Attach(key.Account(), d)

		n.nodes[name] = &node{
			key:      key,
			store:    store,
			receiver: r,
			relay:    relay.New(log, key, loop, dir.IssuerAccount, 0),
		}
	}
	return n
}

func teardownNetwork() {
	storage.Finalise()
	fixtures.TeardownTestLogger()
}
