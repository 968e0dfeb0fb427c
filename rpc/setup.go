// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitmark-inc/registryd/counter"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/rpc/certificate"
	"github.com/bitmark-inc/registryd/rpc/handler"
	"github.com/bitmark-inc/registryd/rpc/listeners"
	"github.com/bitmark-inc/registryd/rpc/node"
	"github.com/bitmark-inc/registryd/rpc/registry"
	"github.com/bitmark-inc/registryd/rpc/server"
)

// Services - what the RPC servers expose
type Services struct {
	Version  string
	Identity node.Identity
	Store    recordstore.Store

	// nil for a node that cannot request records
	Requester registry.Requester
	Timeout   time.Duration

	Peers    node.ConnectionCounter
	Gatherer prometheus.Gatherer

	// optional, also serve node info to peers
	Dispatcher *peer.Dispatcher
}

// globals
type rpcData struct {
	sync.RWMutex // to allow locking

	log *logger.L // logger

	count     counter.Counter
	listeners []listeners.Listener

	// set once during initialise
	initialised bool
}

// global data
var globalData rpcData

// Initialise - start the JSON-RPC and HTTPS servers
func Initialise(rpcConfiguration *listeners.RPCConfiguration, httpsConfiguration *listeners.HTTPSConfiguration, services *Services) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.ErrAlreadyInitialised
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	start := time.Now().UTC()
	reg := registry.New(log, services.Store, services.Requester, services.Timeout)
	n := node.New(log, start, services.Version, services.Identity, &globalData.count, services.Peers)

	if nil != services.Dispatcher {
		n.Register(services.Dispatcher)
	}

	s, err := server.Create(log, reg, n)
	if nil != err {
		return err
	}

	if 0 == len(rpcConfiguration.Listen) {
		log.Infof("disable: client_rpc")
	} else {
		tlsConfig, fingerprint, err := certificate.Load(log, "client_rpc", rpcConfiguration.Certificate, rpcConfiguration.PrivateKey)
		if nil != err {
			return err
		}
		l, err := listeners.NewRPC(rpcConfiguration, log, &globalData.count, s, tlsConfig, fingerprint)
		if nil != err {
			return err
		}
		if err := l.Serve(); nil != err {
			return err
		}
		globalData.listeners = append(globalData.listeners, l)
	}

	if 0 != len(httpsConfiguration.Listen) {
		tlsConfig, fingerprint, err := certificate.Load(log, "https_rpc", httpsConfiguration.Certificate, httpsConfiguration.PrivateKey)
		if nil != err {
			stopListeners()
			return err
		}
		log.Infof("https_rpc: SHA3-256 fingerprint: %x", fingerprint)

		gatherer := services.Gatherer
		if nil == gatherer {
			gatherer = prometheus.DefaultGatherer
		}
		h := handler.New(
			log,
			s,
			func() interface{} { return n.Details() },
			promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
			httpsConfiguration.MaximumConnections,
		)
		l, err := listeners.NewHTTPS(httpsConfiguration, log, tlsConfig, h)
		if nil != err {
			stopListeners()
			return err
		}
		if err := l.Serve(); nil != err {
			stopListeners()
			return err
		}
		globalData.listeners = append(globalData.listeners, l)
	}

	// all data initialised
	globalData.initialised = true

	return nil
}

// Finalise - stop all servers
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.ErrNotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	stopListeners()

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// ConnectionCount - open client RPC connections
func ConnectionCount() uint64 {
	return globalData.count.Uint64()
}

// must hold the lock
func stopListeners() {
	for _, l := range globalData.listeners {
		_ = l.Close()
	}
	globalData.listeners = nil
}
