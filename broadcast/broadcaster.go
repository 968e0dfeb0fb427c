// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package broadcast - atomic delivery of a transaction to every participant
//
// the issuer side runs prepare → notarise → persist → commit, sending
// abort to prepared recipients if prepare or notarise fails; the
// recipient side stages a prepared transaction until the commit or
// abort for its link arrives
package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/metrics"
	"github.com/bitmark-inc/registryd/notary"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
)

// DefaultCommitTimeout - bound on all waits of one commit
const DefaultCommitTimeout = 30 * time.Second

// time allowed for abort messages after the commit context expired
const abortTimeout = 5 * time.Second

// Broadcaster - issuer side of the commit
type Broadcaster struct {
	log     *logger.L
	caller  peer.Caller
	notary  notary.Notary
	store   recordstore.Store
	timeout time.Duration
}

// New - create a broadcaster, zero timeout selects the default
func New(log *logger.L, caller peer.Caller, n notary.Notary, store recordstore.Store, timeout time.Duration) *Broadcaster {
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	return &Broadcaster{
		log:     log,
		caller:  caller,
		notary:  n,
		store:   store,
		timeout: timeout,
	}
}

type ack struct {
	to  *account.Account
	err error
}

// Commit - deliver a signed transaction to the recipients
//
// returns nil only when every recipient acknowledged the commit
func (b *Broadcaster) Commit(ctx context.Context, tx *record.Transaction, recipients []*account.Account) error {
	packed, err := tx.Pack()
	if nil != err {
		return err
	}
	link := packed.MakeLink()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	log := b.log
	log.Infof("commit: %s  recipients: %d", link, len(recipients))
	start := time.Now()

	// prepare
	acks := b.fanOut(ctx, recipients, peer.Prepare, packed)
	prepared := make([]*account.Account, 0, len(acks))
	failure := error(nil)
	for _, a := range acks {
		if nil == a.err {
			prepared = append(prepared, a.to)
			continue
		}
		log.Warnf("prepare: %s  to: %s  error: %s", link, a.to, a.err)
		if nil == failure {
			failure = b.classify(ctx, "prepare", a.to, a.err)
		}
	}
	if nil != failure {
		b.abort(prepared, link)
		return failure
	}

	// notarise
	err = b.notary.Notarise(ctx, tx)
	if nil != err {
		log.Warnf("notarise: %s  error: %s", link, err)
		b.abort(prepared, link)
		return b.classifyNotary(ctx, err)
	}

	// persist locally
	err = b.store.Insert(tx)
	if nil != err {
		log.Errorf("persist: %s  error: %s", link, err)
		b.abort(prepared, link)
		return recordstore.QueryFailed(err)
	}

	// commit
	acks = b.fanOut(ctx, recipients, peer.Commit, link[:])
	failure = nil
	for _, a := range acks {
		if nil == a.err {
			continue
		}
		log.Warnf("commit: %s  to: %s  error: %s", link, a.to, a.err)
		if nil == failure {
			failure = b.classify(ctx, "commit", a.to, a.err)
		}
	}
	if nil != failure {
		return failure
	}

	metrics.CommitSeconds.Observe(time.Since(start).Seconds())
	log.Infof("committed: %s", link)
	return nil
}

// send the same request to all recipients in parallel
func (b *Broadcaster) fanOut(ctx context.Context, recipients []*account.Account, command string, parameter []byte) []ack {
	acks := make([]ack, len(recipients))

	var wg sync.WaitGroup
	for i, to := range recipients {
		wg.Add(1)
		go func(i int, to *account.Account) {
			defer wg.Done()
			_, err := b.caller.Call(ctx, to, command, parameter)
			acks[i] = ack{
				to:  to,
				err: err,
			}
		}(i, to)
	}
	wg.Wait()

	return acks
}

// best effort, failures only logged
func (b *Broadcaster) abort(prepared []*account.Account, link record.Link) {
	if 0 == len(prepared) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()

	for _, a := range b.fanOut(ctx, prepared, peer.Abort, link[:]) {
		if nil != a.err {
			b.log.Warnf("abort: %s  to: %s  error: %s", link, a.to, a.err)
		}
	}
}

// map a recipient failure onto the commit error classes
func (b *Broadcaster) classify(ctx context.Context, phase string, to *account.Account, err error) error {
	if nil != ctx.Err() || fault.IsErrTransport(err) || fault.IsErrTimeout(err) {
		return fault.ErrCommitTimeout
	}
	return fault.RejectedError(fmt.Sprintf("%s rejected by: %s  reason: %s", phase, to, err))
}

func (b *Broadcaster) classifyNotary(ctx context.Context, err error) error {
	if fault.IsErrConflict(err) || fault.IsErrValidation(err) {
		return err
	}
	if nil != ctx.Err() || fault.IsErrTransport(err) || fault.IsErrTimeout(err) {
		return fault.ErrCommitTimeout
	}
	return err
}
