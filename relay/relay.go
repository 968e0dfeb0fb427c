// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package relay - a participant's path to the issuing authority
package relay

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/coordinator"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/metrics"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
)

// IssuerResolver - the account of the issuing authority
type IssuerResolver func() (*account.Account, error)

// Relay - forwards requests signed with the local identity
type Relay struct {
	log     *logger.L
	key     *account.PrivateKey
	caller  peer.Caller
	issuer  IssuerResolver
	timeout time.Duration
}

// New - create a relay for the identity of this node
//
// timeout bounds a whole submit round trip and must cover the issuer's
// commit timeout; zero leaves the bound to the caller's context
func New(log *logger.L, key *account.PrivateKey, caller peer.Caller, issuer IssuerResolver, timeout time.Duration) *Relay {
	return &Relay{
		log:     log,
		key:     key,
		caller:  caller,
		issuer:  issuer,
		timeout: timeout,
	}
}

// Request - ask the issuing authority to record this node against a fingerprint
//
// errors raised by the issuer come back with their own class, failure
// to reach the issuer is a relay error
func (r *Relay) Request(ctx context.Context, fingerprint string) (record.VersionId, error) {
	if "" == fingerprint {
		return record.VersionId{}, fault.ErrMissingFingerprint
	}

	to, err := r.issuer()
	if nil != err {
		return record.VersionId{}, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	self := r.key.Account()
	signature := r.key.Sign(coordinator.SubmitMessage(fingerprint, self))

	results, err := r.caller.Call(ctx, to, peer.Submit, []byte(fingerprint), self.Bytes(), signature)
	if nil != err {
		if fault.IsErrTransport(err) || nil != ctx.Err() {
			r.log.Errorf("request: %q  issuer: %s  transport error: %s", fingerprint, to, err)
			metrics.RelayRequests.WithLabelValues("unreachable").Inc()
			return record.VersionId{}, fault.RelayError("cannot reach issuing authority: " + err.Error())
		}
		r.log.Warnf("request: %q  rejected: %s", fingerprint, err)
		metrics.RelayRequests.WithLabelValues("error").Inc()
		return record.VersionId{}, err
	}

	if 1 != len(results) {
		metrics.RelayRequests.WithLabelValues("error").Inc()
		return record.VersionId{}, fault.RelayError(fault.ErrUnexpectedReply.Error())
	}
	id, err := record.VersionIdFromBytes(results[0])
	if nil != err {
		metrics.RelayRequests.WithLabelValues("error").Inc()
		return record.VersionId{}, fault.RelayError(err.Error())
	}

	metrics.RelayRequests.WithLabelValues("ok").Inc()
	r.log.Infof("request: %q  version: %s", fingerprint, id)
	return id, nil
}

// Fetch - the transaction producing the latest version of a record
// as held by another party
func (r *Relay) Fetch(ctx context.Context, from *account.Account, id record.VersionId) (*record.Transaction, error) {
	results, err := r.caller.Call(ctx, from, peer.Query, id.Bytes())
	if nil != err {
		if fault.IsErrTransport(err) {
			return nil, fault.RelayError(err.Error())
		}
		return nil, err
	}
	if 1 != len(results) {
		return nil, fault.RelayError(fault.ErrUnexpectedReply.Error())
	}
	return record.UnpackTransaction(results[0])
}

// QueryHandler - serve the latest transaction of a record from a store
func QueryHandler(store recordstore.Store) peer.Handler {
	return func(ctx context.Context, parameters [][]byte) ([][]byte, error) {
		if 1 != len(parameters) {
			return nil, fault.ErrMissingParameters
		}
		id, err := record.VersionIdFromBytes(parameters[0])
		if nil != err {
			return nil, err
		}
		v, err := store.ByVersionId(id)
		if nil != err {
			return nil, err
		}
		tx, err := store.Transaction(v.Link)
		if nil != err {
			return nil, err
		}
		packed, err := tx.Pack()
		if nil != err {
			return nil, err
		}
		return [][]byte{packed}, nil
	}
}
