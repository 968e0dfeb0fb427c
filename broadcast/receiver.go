// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package broadcast

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/validator"
)

// DefaultStageTimeout - how long a prepared transaction waits for its commit
const DefaultStageTimeout = 10 * time.Minute

// IssuerResolver - the account currently trusted to author records
type IssuerResolver func() (*account.Account, error)

// Receiver - recipient side of the commit
type Receiver struct {
	log    *logger.L
	self   *account.Account
	issuer IssuerResolver
	store  recordstore.Store
	staged *cache.Cache
}

// NewReceiver - zero ttl selects the default
func NewReceiver(log *logger.L, self *account.Account, issuer IssuerResolver, store recordstore.Store, ttl time.Duration) *Receiver {
	if ttl <= 0 {
		ttl = DefaultStageTimeout
	}
	return &Receiver{
		log:    log,
		self:   self,
		issuer: issuer,
		store:  store,
		staged: cache.New(ttl, 2*ttl),
	}
}

// Prepare - check a transaction and stage it
func (r *Receiver) Prepare(packed []byte) (record.Link, error) {
	tx, err := record.UnpackTransaction(packed)
	if nil != err {
		return record.Link{}, err
	}

	err = validator.Validate(tx)
	if nil != err {
		r.log.Warnf("prepare: validation failed: %s", err)
		return record.Link{}, err
	}

	produced := tx.Output()

	issuer, err := r.issuer()
	if nil != err {
		return record.Link{}, err
	}
	if !issuer.Equal(produced.Issuer) {
		r.log.Warnf("prepare: issuer: %s  is not the issuing authority", produced.Issuer)
		return record.Link{}, fault.ErrUnknownIssuer
	}

	if !produced.HasParticipant(r.self) {
		return record.Link{}, fault.ErrNotParticipant
	}

	link := record.Packed(packed).MakeLink()

	// a repeated delivery of a stored transaction needs no staging,
	// its commit is acknowledged from the store
	if _, err := r.store.Transaction(link); nil == err {
		r.log.Debugf("prepare: %s  already stored", link)
		return link, nil
	}

	r.staged.SetDefault(link.String(), tx)

	r.log.Debugf("prepared: %s  fingerprint: %q", link, produced.Fingerprint)
	return link, nil
}

// Commit - move a staged transaction into the store
//
// a commit for a transaction already stored is acknowledged again
func (r *Receiver) Commit(link record.Link) error {
	key := link.String()

	item, ok := r.staged.Get(key)
	if !ok {
		if _, err := r.store.Transaction(link); nil == err {
			return nil
		}
		r.log.Warnf("commit: %s  not staged", link)
		return fault.ErrStagedNotFound
	}

	err := r.store.Insert(item.(*record.Transaction))
	if nil != err {
		r.log.Errorf("commit: %s  store error: %s", link, err)
		return recordstore.QueryFailed(err)
	}
	r.staged.Delete(key)

	r.log.Infof("committed: %s", link)
	return nil
}

// Abort - discard a staged transaction, unknown links are ignored
func (r *Receiver) Abort(link record.Link) {
	r.staged.Delete(link.String())
	r.log.Infof("aborted: %s", link)
}

// Staged - number of transactions waiting for commit or abort
func (r *Receiver) Staged() int {
	return r.staged.ItemCount()
}

// Register - serve prepare, commit and abort requests
func (r *Receiver) Register(d *peer.Dispatcher) {
	d.Register(peer.Prepare, func(ctx context.Context, parameters [][]byte) ([][]byte, error) {
		if 1 != len(parameters) {
			return nil, fault.ErrMissingParameters
		}
		_, err := r.Prepare(parameters[0])
		return nil, err
	})

	d.Register(peer.Commit, func(ctx context.Context, parameters [][]byte) ([][]byte, error) {
		link, err := linkParameter(parameters)
		if nil != err {
			return nil, err
		}
		return nil, r.Commit(link)
	})

	d.Register(peer.Abort, func(ctx context.Context, parameters [][]byte) ([][]byte, error) {
		link, err := linkParameter(parameters)
		if nil != err {
			return nil, err
		}
		r.Abort(link)
		return nil, nil
	})
}

func linkParameter(parameters [][]byte) (record.Link, error) {
	if 1 != len(parameters) {
		return record.Link{}, fault.ErrMissingParameters
	}
	return record.LinkFromBytes(parameters[0])
}
