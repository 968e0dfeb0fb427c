// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
	"github.com/bitmark-inc/registryd/zmqutil"
)

// Locator - find where a party listens
type Locator interface {
	Locate(acc *account.Account) (string, []byte, error)
}

type destination struct {
	sync.Mutex
	client *zmqutil.Client
}

// Network - ZeroMQ client side, one REQ connection per party
type Network struct {
	sync.Mutex
	log          *logger.L
	privateKey   []byte
	publicKey    []byte
	timeout      time.Duration
	locator      Locator
	destinations map[string]*destination
}

// NewNetwork - outbound connections using this node's CURVE keys
func NewNetwork(log *logger.L, privateKey []byte, publicKey []byte, timeout time.Duration, locator Locator) (*Network, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}
	if nil == locator {
		return nil, fault.ErrMissingParameters
	}
	return &Network{
		log:          log,
		privateKey:   privateKey,
		publicKey:    publicKey,
		timeout:      timeout,
		locator:      locator,
		destinations: make(map[string]*destination),
	}, nil
}

func (n *Network) destination(acc *account.Account) (*destination, error) {
	n.Lock()
	defer n.Unlock()

	key := acc.String()
	if d, ok := n.destinations[key]; ok {
		return d, nil
	}
	client, err := zmqutil.NewClient(n.privateKey, n.publicKey)
	if nil != err {
		return nil, err
	}
	d := &destination{
		client: client,
	}
	n.destinations[key] = d
	return d, nil
}

// Call - send a request to a party over ZeroMQ
//
// waits until the context deadline, or for the network timeout when
// the context has none
func (n *Network) Call(ctx context.Context, to *account.Account, command string, parameters ...[]byte) ([][]byte, error) {
	if nil == to {
		return nil, fault.ErrPartyNotFound
	}

	address, serverKey, err := n.locator.Locate(to)
	if nil != err {
		return nil, err
	}

	conn, err := util.NewConnection(address)
	if nil != err {
		return nil, err
	}
	canonical, _ := conn.CanonicalIPandPort("tcp://")

	d, err := n.destination(to)
	if nil != err {
		return nil, err
	}

	d.Lock()
	defer d.Unlock()

	// connect or follow a changed directory entry
	if !d.client.IsConnectedTo(serverKey) || d.client.String() != canonical {
		err = d.client.Connect(conn, serverKey)
		if nil != err {
			n.log.Errorf("connect to: %s  error: %s", address, err)
			return nil, fault.TransportError("connect: " + err.Error())
		}
		n.log.Infof("connected to: %s  account: %s", address, to)
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, fault.ErrRequestTimedOut
	}

	request := make([][]byte, 0, len(parameters)+1)
	request = append(request, []byte(command))
	request = append(request, parameters...)

	reply, err := d.client.Request(timeout, request...)
	if nil != err {
		n.log.Warnf("request: %q  to: %s  error: %s", command, to, err)
		return nil, err
	}
	return DecodeReply(command, reply)
}

// ConnectionCount - number of parties with an open connection
func (n *Network) ConnectionCount() int {
	n.Lock()
	defer n.Unlock()

	count := 0
	for _, d := range n.destinations {
		d.Lock()
		if d.client.IsConnected() {
			count += 1
		}
		d.Unlock()
	}
	return count
}

// Close - close every connection
func (n *Network) Close() {
	n.Lock()
	defer n.Unlock()

	for key, d := range n.destinations {
		d.Lock()
		d.client.Close()
		d.Unlock()
		delete(n.destinations, key)
	}
}
