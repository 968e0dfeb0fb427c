// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package directory - the static list of parties
//
// the parties file is a Lua script returning:
//
//   return {
//       parties = {
//           {
//               name = "registrar",
//               account = "<base58 account>",
//               role = "issuer",
//               connect = "127.0.0.1:2136",
//               public_key = "PUBLIC:<hex curve key>",
//           },
//           ...
//       }
//   }
//
// exactly one party has the issuer role, at most one the notary role
package directory

import (
	"github.com/bitmark-inc/logger"
	"github.com/sasha-s/go-deadlock"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/configuration"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/zmqutil"
)

// Role - what a party does in the protocol
type Role string

// the roles
const (
	RoleIssuer      Role = "issuer"
	RoleParticipant Role = "participant"
	RoleNotary      Role = "notary"
)

// Party - one entry of the directory
type Party struct {
	Name      string
	Account   *account.Account
	Role      Role
	Connect   string
	PublicKey []byte
}

type partyEntry struct {
	Name      string `gluamapper:"name"`
	Account   string `gluamapper:"account"`
	Role      string `gluamapper:"role"`
	Connect   string `gluamapper:"connect"`
	PublicKey string `gluamapper:"public_key"`
}

type partiesFile struct {
	Parties []partyEntry `gluamapper:"parties"`
}

type content struct {
	parties   []*Party
	byName    map[string]*Party
	byAccount map[string]*Party
	issuer    *Party
	notary    *Party
}

// Directory - parties by name, account and role
type Directory struct {
	deadlock.RWMutex
	log      *logger.L
	fileName string
	c        *content
}

// Load - read a parties file
func Load(log *logger.L, fileName string) (*Directory, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	c, err := readFile(fileName)
	if nil != err {
		return nil, err
	}
	log.Infof("loaded: %q  parties: %d", fileName, len(c.parties))
	return &Directory{
		log:      log,
		fileName: fileName,
		c:        c,
	}, nil
}

// New - a directory from parties already in memory
func New(parties ...*Party) (*Directory, error) {
	c, err := build(parties)
	if nil != err {
		return nil, err
	}
	return &Directory{
		c: c,
	}, nil
}

// Reload - read the file again
//
// on any error the current parties are kept
func (d *Directory) Reload() error {
	if "" == d.fileName {
		return nil
	}
	c, err := readFile(d.fileName)
	if nil != err {
		d.log.Errorf("reload: %q  error: %s  keeping previous parties", d.fileName, err)
		return err
	}

	d.Lock()
	d.c = c
	d.Unlock()

	d.log.Infof("reloaded: %q  parties: %d", d.fileName, len(c.parties))
	return nil
}

// Issuer - the issuing authority
func (d *Directory) Issuer() (*Party, error) {
	d.RLock()
	defer d.RUnlock()

	if nil == d.c.issuer {
		return nil, fault.ErrMissingIssuer
	}
	return d.c.issuer, nil
}

// Notary - the notary party, if one is listed
func (d *Directory) Notary() (*Party, error) {
	d.RLock()
	defer d.RUnlock()

	if nil == d.c.notary {
		return nil, fault.ErrMissingNotary
	}
	return d.c.notary, nil
}

// Lookup - a party by name
func (d *Directory) Lookup(name string) (*Party, error) {
	d.RLock()
	defer d.RUnlock()

	p, ok := d.c.byName[name]
	if !ok {
		return nil, fault.ErrPartyNotFound
	}
	return p, nil
}

// ByAccount - a party by account
func (d *Directory) ByAccount(acc *account.Account) (*Party, error) {
	if nil == acc {
		return nil, fault.ErrPartyNotFound
	}

	d.RLock()
	defer d.RUnlock()

	p, ok := d.c.byAccount[acc.String()]
	if !ok {
		return nil, fault.ErrPartyNotFound
	}
	return p, nil
}

// Parties - every party in file order
func (d *Directory) Parties() []*Party {
	d.RLock()
	defer d.RUnlock()

	parties := make([]*Party, len(d.c.parties))
	copy(parties, d.c.parties)
	return parties
}

// Locate - peer address and curve key of a party
func (d *Directory) Locate(acc *account.Account) (string, []byte, error) {
	p, err := d.ByAccount(acc)
	if nil != err {
		return "", nil, err
	}
	if "" == p.Connect || nil == p.PublicKey {
		return "", nil, fault.ErrNotConnected
	}
	return p.Connect, p.PublicKey, nil
}

// IssuerAccount - account of the issuing authority
func (d *Directory) IssuerAccount() (*account.Account, error) {
	p, err := d.Issuer()
	if nil != err {
		return nil, err
	}
	return p.Account, nil
}

// NotaryAccount - account of the notary
func (d *Directory) NotaryAccount() (*account.Account, error) {
	p, err := d.Notary()
	if nil != err {
		return nil, err
	}
	return p.Account, nil
}

func readFile(fileName string) (*content, error) {
	f := partiesFile{}
	err := configuration.ParseConfigurationFile(fileName, &f)
	if nil != err {
		return nil, err
	}

	parties := make([]*Party, 0, len(f.Parties))
	for _, entry := range f.Parties {
		p, err := entry.party()
		if nil != err {
			return nil, err
		}
		parties = append(parties, p)
	}
	return build(parties)
}

func (entry *partyEntry) party() (*Party, error) {
	acc, err := account.AccountFromBase58(entry.Account)
	if nil != err {
		return nil, err
	}

	p := &Party{
		Name:    entry.Name,
		Account: acc,
		Role:    Role(entry.Role),
		Connect: entry.Connect,
	}

	if "" != entry.PublicKey {
		p.PublicKey, err = zmqutil.ReadPublicKey(entry.PublicKey)
		if nil != err {
			return nil, err
		}
	}
	return p, nil
}

func build(parties []*Party) (*content, error) {
	if 0 == len(parties) {
		return nil, fault.ErrDirectoryEmpty
	}

	c := &content{
		parties:   parties,
		byName:    make(map[string]*Party),
		byAccount: make(map[string]*Party),
	}

	for _, p := range parties {
		if "" == p.Name || nil == p.Account {
			return nil, fault.ErrMissingParameters
		}

		switch p.Role {
		case RoleIssuer:
			if nil != c.issuer {
				return nil, fault.ErrDuplicateParty
			}
			c.issuer = p
		case RoleNotary:
			if nil != c.notary {
				return nil, fault.ErrDuplicateParty
			}
			c.notary = p
		case RoleParticipant:
		default:
			return nil, fault.ErrInvalidRole
		}

		if _, ok := c.byName[p.Name]; ok {
			return nil, fault.ErrDuplicateParty
		}
		c.byName[p.Name] = p

		key := p.Account.String()
		if _, ok := c.byAccount[key]; ok {
			return nil, fault.ErrDuplicateParty
		}
		c.byAccount[key] = p
	}

	if nil == c.issuer {
		return nil, fault.ErrMissingIssuer
	}
	return c, nil
}
