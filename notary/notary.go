// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notary - final arbiter against double consumption
//
// a version may be consumed by exactly one transaction; notarising the
// same transaction again succeeds, a different transaction consuming
// an already consumed version is a conflict
package notary

import (
	"bytes"
	"context"

	"github.com/bitmark-inc/logger"
	"github.com/sasha-s/go-deadlock"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/storage"
)

// Notary - order a transaction against all others
type Notary interface {
	Notarise(ctx context.Context, tx *record.Transaction) error
}

// Local - uniqueness service on a storage pool
//
// pool: consumed link → consuming link
type Local struct {
	deadlock.Mutex
	log  *logger.L
	pool storage.Handle
}

// NewLocal - a notary persisting into the given pool
func NewLocal(log *logger.L, pool storage.Handle) *Local {
	return &Local{
		log:  log,
		pool: pool,
	}
}

// Notarise - claim every consumed link for this transaction
func (n *Local) Notarise(ctx context.Context, tx *record.Transaction) error {
	if nil == tx {
		return fault.ErrMissingParameters
	}
	link, err := tx.Link()
	if nil != err {
		return err
	}

	n.Lock()
	defer n.Unlock()

	// all or nothing
	for _, c := range tx.Consumed {
		consumer := n.pool.Get(c.Link[:])
		if nil != consumer && !bytes.Equal(consumer, link[:]) {
			n.log.Warnf("conflict: link: %s  consumed by: %x  requested by: %s", c.Link, consumer, link)
			return fault.ErrConsumedByOther
		}
	}

	for _, c := range tx.Consumed {
		n.pool.Put(c.Link[:], link[:])
	}

	n.log.Debugf("notarised: %s  consumed: %d", link, len(tx.Consumed))
	return nil
}

// ConsumedBy - the transaction that consumed a link, if any
func (n *Local) ConsumedBy(link record.Link) (record.Link, bool) {
	n.Lock()
	defer n.Unlock()

	consumer := n.pool.Get(link[:])
	if nil == consumer {
		return record.Link{}, false
	}
	l, err := record.LinkFromBytes(consumer)
	if nil != err {
		return record.Link{}, false
	}
	return l, true
}
