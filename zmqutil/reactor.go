// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	zmq "github.com/pebbe/zmq4"
)

// Handler - called from Run each time its socket is readable
type Handler func(socket *zmq.Socket)

// Reactor - poll a fixed set of sockets and pass readable ones to
// their handlers until the stop socket receives a message
type Reactor struct {
	poller   *zmq.Poller
	stop     *zmq.Socket
	handlers map[*zmq.Socket]Handler
}

// NewReactor - the stop socket is polled as well
func NewReactor(stop *zmq.Socket) *Reactor {
	r := &Reactor{
		poller:   zmq.NewPoller(),
		stop:     stop,
		handlers: make(map[*zmq.Socket]Handler),
	}
	r.poller.Add(stop, zmq.POLLIN)
	return r
}

// Add - register a handler, nil sockets and duplicates are ignored
//
// must not be called once Run has started
func (r *Reactor) Add(socket *zmq.Socket, handler Handler) {
	if nil == socket || socket == r.stop {
		return
	}
	if _, ok := r.handlers[socket]; ok {
		return
	}
	r.handlers[socket] = handler
	r.poller.Add(socket, zmq.POLLIN)
}

// Run - serve until stopped
//
// poll errors go to the errorf callback and polling continues;
// sockets readable together with the stop signal are still served
func (r *Reactor) Run(errorf func(err error)) {
loop:
	for {
		polled, err := r.poller.Poll(-1)
		if nil != err {
			if nil != errorf {
				errorf(err)
			}
			continue loop
		}

		stopping := false
		for _, p := range polled {
			if p.Socket == r.stop {
				_, _ = p.Socket.RecvMessageBytes(0)
				stopping = true
				continue
			}
			if h, ok := r.handlers[p.Socket]; ok {
				h(p.Socket)
			}
		}
		if stopping {
			break loop
		}
	}
}
