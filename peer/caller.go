// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"

	"github.com/bitmark-inc/registryd/account"
)

// command letters
const (
	Submit   = "S"
	Prepare  = "P"
	Commit   = "C"
	Abort    = "A"
	Notarise = "N"
	Query    = "Q"
	Info     = "I"
)

// Caller - send a request to another party and wait for its results
//
// a remote failure is returned as the same typed error the remote
// handler produced
type Caller interface {
	Call(ctx context.Context, to *account.Account, command string, parameters ...[]byte) ([][]byte, error)
}
