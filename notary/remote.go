// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notary

import (
	"context"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/validator"
)

// Resolver - find the notary party
type Resolver func() (*account.Account, error)

// Remote - a notary reached through the peer network
type Remote struct {
	caller  peer.Caller
	resolve Resolver
}

// NewRemote - notarise by calling the party the resolver names
func NewRemote(caller peer.Caller, resolve Resolver) *Remote {
	return &Remote{
		caller:  caller,
		resolve: resolve,
	}
}

// Notarise - send the packed transaction to the notary party
func (r *Remote) Notarise(ctx context.Context, tx *record.Transaction) error {
	to, err := r.resolve()
	if nil != err {
		return err
	}
	packed, err := tx.Pack()
	if nil != err {
		return err
	}
	_, err = r.caller.Call(ctx, to, peer.Notarise, packed)
	return err
}

// Handler - serve notarise requests from other parties
//
// the transaction must be valid before any link is claimed
func Handler(n Notary) peer.Handler {
	return func(ctx context.Context, parameters [][]byte) ([][]byte, error) {
		if 1 != len(parameters) {
			return nil, fault.ErrMissingParameters
		}
		tx, err := record.UnpackTransaction(parameters[0])
		if nil != err {
			return nil, err
		}
		err = validator.Validate(tx)
		if nil != err {
			return nil, err
		}
		return nil, n.Notarise(ctx, tx)
	}
}
