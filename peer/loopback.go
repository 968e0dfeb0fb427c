// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
)

type loopNode struct {
	dispatcher *Dispatcher
	down       bool
	delay      time.Duration
}

// Loopback - an in-process network of dispatchers
//
// requests and replies pass through the same framing as the ZeroMQ
// transport so remote errors arrive decoded
type Loopback struct {
	sync.RWMutex
	nodes map[string]*loopNode
}

// NewLoopback - an empty network
func NewLoopback() *Loopback {
	return &Loopback{
		nodes: make(map[string]*loopNode),
	}
}

// Attach - make a party reachable
func (l *Loopback) Attach(acc *account.Account, dispatcher *Dispatcher) {
	l.Lock()
	l.nodes[acc.String()] = &loopNode{
		dispatcher: dispatcher,
	}
	l.Unlock()
}

// SetDown - make a party unreachable or reachable again
func (l *Loopback) SetDown(acc *account.Account, down bool) {
	l.Lock()
	if n, ok := l.nodes[acc.String()]; ok {
		n.down = down
	}
	l.Unlock()
}

// SetDelay - hold every request to a party for a while before serving it
func (l *Loopback) SetDelay(acc *account.Account, delay time.Duration) {
	l.Lock()
	if n, ok := l.nodes[acc.String()]; ok {
		n.delay = delay
	}
	l.Unlock()
}

// Call - deliver a request to an attached party
func (l *Loopback) Call(ctx context.Context, to *account.Account, command string, parameters ...[]byte) ([][]byte, error) {
	if nil == to {
		return nil, fault.ErrPartyNotFound
	}

	l.RLock()
	n, ok := l.nodes[to.String()]
	down := ok && n.down
	delay := time.Duration(0)
	if ok {
		delay = n.delay
	}
	l.RUnlock()

	if !ok || down {
		return nil, fault.ErrNotConnected
	}

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, fault.ErrRequestTimedOut
		case <-time.After(delay):
		}
	}
	if nil != ctx.Err() {
		return nil, fault.ErrRequestTimedOut
	}

	request := make([][]byte, 0, len(parameters)+1)
	request = append(request, []byte(command))
	for _, p := range parameters {
		request = append(request, append([]byte{}, p...))
	}

	reply := n.dispatcher.Dispatch(ctx, request)
	return DecodeReply(command, reply)
}
