// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/counter"
	"github.com/bitmark-inc/registryd/fault"
)

// Handler - serve one command
type Handler func(ctx context.Context, parameters [][]byte) ([][]byte, error)

// Dispatcher - routes requests to the registered handlers
type Dispatcher struct {
	sync.RWMutex
	log      *logger.L
	handlers map[string]Handler
	served   counter.Counter
}

// NewDispatcher - an empty dispatcher
func NewDispatcher(log *logger.L) *Dispatcher {
	return &Dispatcher{
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// Register - set the handler for a command letter, replacing any
// previous one
func (d *Dispatcher) Register(command string, handler Handler) {
	d.Lock()
	d.handlers[command] = handler
	d.Unlock()
}

// Dispatch - run the handler for a request and build the reply frames
func (d *Dispatcher) Dispatch(ctx context.Context, request [][]byte) [][]byte {
	if 0 == len(request) {
		return EncodeError(fault.ErrMissingParameters)
	}

	command := string(request[0])
	parameters := request[1:]

	d.RLock()
	handler, ok := d.handlers[command]
	d.RUnlock()

	if !ok {
		d.log.Warnf("unknown command: %q", command)
		return EncodeError(fault.ErrUnknownCommand)
	}

	d.served.Increment()

	results, err := handler(ctx, parameters)
	if nil != err {
		d.log.Debugf("command: %q  error: %s", command, err)
	}
	return EncodeReply(command, results, err)
}

// Served - number of requests passed to a handler
func (d *Dispatcher) Served() uint64 {
	return d.served.Uint64()
}
