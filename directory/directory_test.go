// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package directory_test

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/background"
	"github.com/bitmark-inc/registryd/directory"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
)

const curveKey = "PUBLIC:9a8c6d3b7f2e4a1c5d0b8e7f6a5c4d3b2a1f0e9d8c7b6a5f4e3d2c1b0a998877"

type entry struct {
	name string
	acc  *account.Account
	role string
}

func partiesScript(entries ...entry) string {
	b := strings.Builder{}
	b.WriteString("return {\n  parties = {\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "    { name = %q, account = %q, role = %q, connect = \"127.0.0.1:%d\", public_key = %q },\n",
			e.name, e.acc.String(), e.role, 2130+i, curveKey)
	}
	b.WriteString("  }\n}\n")
	return b.String()
}

func writeParties(t *testing.T, fileName string, script string) {
	err := ioutil.WriteFile(fileName, []byte(script), 0600)
	if nil != err {
		t.Fatalf("write parties file: %s", err)
	}
}

func standard() []entry {
	return []entry{
		{"registrar", fixtures.Issuer, "issuer"},
		{"alice", fixtures.Alice, "participant"},
		{"bob", fixtures.Bob, "participant"},
		{"notary", fixtures.Notary, "notary"},
	}
}

func TestLoad(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	fileName := filepath.Join(fixtures.Directory(), "parties.conf")
	writeParties(t, fileName, partiesScript(standard()...))

	d, err := directory.Load(logger.New(fixtures.LogCategory), fileName)
	if nil != err {
		t.Fatalf("load error: %s", err)
	}

	issuer, err := d.Issuer()
	assert.Nil(t, err, "issuer")
	assert.Equal(t, "registrar", issuer.Name, "issuer name")
	assert.True(t, fixtures.Issuer.Equal(issuer.Account), "issuer account")
	assert.Equal(t, 32, len(issuer.PublicKey), "curve key length")

	n, err := d.Notary()
	assert.Nil(t, err, "notary")
	assert.Equal(t, directory.RoleNotary, n.Role, "notary role")

	bob, err := d.Lookup("bob")
	assert.Nil(t, err, "lookup")
	assert.True(t, fixtures.Bob.Equal(bob.Account), "lookup account")

	alice, err := d.ByAccount(fixtures.Alice)
	assert.Nil(t, err, "by account")
	assert.Equal(t, "alice", alice.Name, "by account name")

	_, err = d.Lookup("carol")
	assert.Equal(t, fault.ErrPartyNotFound, err, "unknown name")
	_, err = d.ByAccount(fixtures.Carol)
	assert.Equal(t, fault.ErrPartyNotFound, err, "unknown account")

	address, key, err := d.Locate(fixtures.Alice)
	assert.Nil(t, err, "locate")
	assert.Equal(t, "127.0.0.1:2131", address, "locate address")
	assert.Equal(t, alice.PublicKey, key, "locate key")

	parties := d.Parties()
	assert.Equal(t, 4, len(parties), "party count")
	assert.Equal(t, "registrar", parties[0].Name, "file order")
}

func TestBuildErrors(t *testing.T) {
	p := func(name string, acc *account.Account, role directory.Role) *directory.Party {
		return &directory.Party{Name: name, Account: acc, Role: role}
	}

	items := []struct {
		parties []*directory.Party
		err     error
	}{
		{nil, fault.ErrDirectoryEmpty},
		{[]*directory.Party{p("alice", fixtures.Alice, directory.RoleParticipant)}, fault.ErrMissingIssuer},
		{[]*directory.Party{
			p("one", fixtures.Issuer, directory.RoleIssuer),
			p("two", fixtures.Alice, directory.RoleIssuer),
		}, fault.ErrDuplicateParty},
		{[]*directory.Party{
			p("one", fixtures.Issuer, directory.RoleIssuer),
			p("one", fixtures.Alice, directory.RoleParticipant),
		}, fault.ErrDuplicateParty},
		{[]*directory.Party{
			p("one", fixtures.Issuer, directory.RoleIssuer),
			p("two", fixtures.Issuer, directory.RoleParticipant),
		}, fault.ErrDuplicateParty},
		{[]*directory.Party{
			p("one", fixtures.Issuer, directory.RoleIssuer),
			p("two", fixtures.Alice, "observer"),
		}, fault.ErrInvalidRole},
		{[]*directory.Party{
			p("", fixtures.Issuer, directory.RoleIssuer),
		}, fault.ErrMissingParameters},
	}

	for i, item := range items {
		_, err := directory.New(item.parties...)
		assert.Equal(t, item.err, err, "%d: wrong error", i)
	}
}

func TestNoNotary(t *testing.T) {
	d, err := directory.New(&directory.Party{Name: "registrar", Account: fixtures.Issuer, Role: directory.RoleIssuer})
	assert.Nil(t, err, "new")

	_, err = d.Notary()
	assert.Equal(t, fault.ErrMissingNotary, err, "notary present")

	_, _, err = d.Locate(fixtures.Issuer)
	assert.Equal(t, fault.ErrNotConnected, err, "party without address located")

	acc, err := d.IssuerAccount()
	assert.Nil(t, err, "issuer account")
	assert.True(t, fixtures.Issuer.Equal(acc), "wrong issuer account")
}

func TestReloadKeepsOldOnError(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	fileName := filepath.Join(fixtures.Directory(), "parties.conf")
	writeParties(t, fileName, partiesScript(standard()...))

	d, err := directory.Load(logger.New(fixtures.LogCategory), fileName)
	if nil != err {
		t.Fatalf("load error: %s", err)
	}

	writeParties(t, fileName, "return { parties = {")
	assert.NotNil(t, d.Reload(), "broken file accepted")
	assert.Equal(t, 4, len(d.Parties()), "parties lost after failed reload")

	writeParties(t, fileName, partiesScript(entry{"alice", fixtures.Alice, "participant"}))
	assert.Equal(t, fault.ErrMissingIssuer, d.Reload(), "file without issuer accepted")
	_, err = d.Issuer()
	assert.Nil(t, err, "issuer lost after failed reload")

	writeParties(t, fileName, partiesScript(append(standard(), entry{"carol", fixtures.Carol, "participant"})...))
	assert.Nil(t, d.Reload(), "good reload")
	_, err = d.Lookup("carol")
	assert.Nil(t, err, "new party not visible")
}

func TestWatcherReloads(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	fileName := filepath.Join(fixtures.Directory(), "parties.conf")
	writeParties(t, fileName, partiesScript(standard()...))

	d, err := directory.Load(logger.New(fixtures.LogCategory), fileName)
	if nil != err {
		t.Fatalf("load error: %s", err)
	}

	p := background.Start(background.Processes{d}, nil)
	defer p.Stop()

	// allow the watcher to register
	time.Sleep(50 * time.Millisecond)

	writeParties(t, fileName, partiesScript(append(standard(), entry{"dave", fixtures.Dave, "participant"})...))

	found := false
	for i := 0; i < 100; i += 1 {
		if _, err := d.Lookup("dave"); nil == err {
			found = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.True(t, found, "change not picked up")
}
