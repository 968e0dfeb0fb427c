// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/counter"
	"github.com/bitmark-inc/registryd/directory"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/rpc/ratelimit"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Identity - who this node is in the directory
type Identity struct {
	Name    string
	Account *account.Account
	Role    directory.Role
}

// ConnectionCounter - anything reporting open peer connections
type ConnectionCounter interface {
	ConnectionCount() int
}

// Node - type for RPC calls
type Node struct {
	Log      *logger.L
	Limiter  *rate.Limiter
	Start    time.Time
	Version  string
	identity Identity
	rpcCount *counter.Counter
	peers    ConnectionCounter
}

// New - create the Node RPC service
func New(log *logger.L, start time.Time, version string, identity Identity, rpcCount *counter.Counter, peers ConnectionCounter) *Node {
	return &Node{
		Log:      log,
		Limiter:  rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:    start,
		Version:  version,
		identity: identity,
		rpcCount: rpcCount,
		peers:    peers,
	}
}

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Name    string           `json:"name"`
	Account *account.Account `json:"account"`
	Role    directory.Role   `json:"role"`
	RPCs    uint64           `json:"rpcs"`
	Peers   int              `json:"peers"`
	Version string           `json:"version"`
	Uptime  string           `json:"uptime"`
}

// Info - return some information about this node
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {
	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}
	*reply = node.Details()
	return nil
}

// Details - current node state, shared with the HTTPS details page
func (node *Node) Details() InfoReply {
	reply := InfoReply{
		Name:    node.identity.Name,
		Account: node.identity.Account,
		Role:    node.identity.Role,
		Version: node.Version,
		Uptime:  time.Since(node.Start).String(),
	}
	if nil != node.rpcCount {
		reply.RPCs = node.rpcCount.Uint64()
	}
	if nil != node.peers {
		reply.Peers = node.peers.ConnectionCount()
	}
	return reply
}

// Register - answer peer info requests with the JSON details
func (node *Node) Register(d *peer.Dispatcher) {
	d.Register(peer.Info, func(_ context.Context, parameters [][]byte) ([][]byte, error) {
		if 0 != len(parameters) {
			return nil, fault.ErrMissingParameters
		}
		data, err := json.Marshal(node.Details())
		if nil != err {
			return nil, err
		}
		return [][]byte{data}, nil
	})
}
