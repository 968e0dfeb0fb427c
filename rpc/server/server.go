// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/rpc/node"
	"github.com/bitmark-inc/registryd/rpc/registry"
)

// Create - an RPC server offering the Registry and Node services
func Create(log *logger.L, r *registry.Registry, n *node.Node) (*rpc.Server, error) {
	server := rpc.NewServer()

	if err := server.Register(r); nil != err {
		log.Errorf("register Registry error: %s", err)
		return nil, err
	}
	if err := server.Register(n); nil != err {
		log.Errorf("register Node error: %s", err)
		return nil, err
	}

	return server, nil
}
