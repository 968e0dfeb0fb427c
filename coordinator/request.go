// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinator

import (
	"context"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/record"
)

// SubmitMessage - the bytes a requester signs
//
//   fingerprint ++ requester account bytes
func SubmitMessage(fingerprint string, requester *account.Account) []byte {
	message := make([]byte, 0, len(fingerprint)+len(requester.Bytes()))
	message = append(message, fingerprint...)
	return append(message, requester.Bytes()...)
}

// SubmitSigned - Submit for a request signed by the requester
func (c *Coordinator) SubmitSigned(ctx context.Context, fingerprint string, requester *account.Account, signature account.Signature) (record.VersionId, error) {
	if nil == requester {
		return record.VersionId{}, fault.ErrMissingParameters
	}
	err := requester.CheckSignature(SubmitMessage(fingerprint, requester), signature)
	if nil != err {
		c.log.Warnf("fingerprint: %q  requester: %s  bad request signature", fingerprint, requester)
		return record.VersionId{}, fault.ErrInvalidRequestSignature
	}
	return c.Submit(ctx, fingerprint, requester)
}

// Register - serve submit requests
//
//   parameters: fingerprint, requester account bytes, signature
//   result:     version id
func (c *Coordinator) Register(d *peer.Dispatcher) {
	d.Register(peer.Submit, func(ctx context.Context, parameters [][]byte) ([][]byte, error) {
		if 3 != len(parameters) {
			return nil, fault.ErrMissingParameters
		}
		requester, err := account.AccountFromBytes(parameters[1])
		if nil != err {
			return nil, err
		}
		id, err := c.SubmitSigned(ctx, string(parameters[0]), requester, account.Signature(parameters[2]))
		if nil != err {
			return nil, err
		}
		return [][]byte{id.Bytes()}, nil
	})
}
