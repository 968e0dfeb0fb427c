// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/registryd/counter"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
	"github.com/bitmark-inc/registryd/zmqutil"
)

const (
	listenerZapDomain = "listen"
	listenerSignal    = "inproc://registry-listener-signal"
	listenerReplies   = "inproc://registry-listener-replies"

	// requests being handled at once, any more are refused
	maximumInFlight = 64

	// first frame of a routed reply selects the socket
	tagIPv4 = "4"
	tagIPv6 = "6"
)

var listenerSequence uint64

// Listener - ROUTER sockets serving the dispatcher
//
// each request runs in its own goroutine; replies are passed back to
// the polling goroutine, which alone touches the ROUTER sockets
type Listener struct {
	log        *logger.L
	dispatcher *Dispatcher
	push       *zmq.Socket // signal send
	pull       *zmq.Socket // signal receive
	replyPush  *zmq.Socket // replies from handlers
	replyPull  *zmq.Socket // replies to route
	socket4    *zmq.Socket // IPv4 traffic
	socket6    *zmq.Socket // IPv6 traffic
	replies    chan [][]byte
	inFlight   counter.Counter
	handlers   sync.WaitGroup
}

// NewListener - bind the listen addresses
//
// requires zmqutil.StartAuthentication
func NewListener(log *logger.L, dispatcher *Dispatcher, privateKey []byte, publicKey []byte, listen []string) (*Listener, error) {
	if nil == log {
		return nil, fault.ErrInvalidLoggerChannel
	}

	log.Info("initialising…")

	c, err := util.NewConnections(listen)
	if nil != err {
		log.Errorf("ip and port error: %s", err)
		return nil, err
	}

	lstn := &Listener{
		log:        log,
		dispatcher: dispatcher,
		replies:    make(chan [][]byte, maximumInFlight),
	}

	// unique per listener so tests can run several
	sequence := strconv.FormatUint(atomic.AddUint64(&listenerSequence, 1), 10)

	lstn.push, lstn.pull, err = zmqutil.NewSignalPair(listenerSignal + "-" + sequence)
	if nil != err {
		return nil, err
	}

	lstn.replyPush, lstn.replyPull, err = zmqutil.NewSignalPair(listenerReplies + "-" + sequence)
	if nil != err {
		lstn.push.Close()
		lstn.pull.Close()
		return nil, err
	}

	lstn.socket4, lstn.socket6, err = zmqutil.NewBind(log, zmq.ROUTER, listenerZapDomain, privateKey, publicKey, c)
	if nil != err {
		log.Errorf("bind error: %s", err)
		lstn.push.Close()
		lstn.pull.Close()
		lstn.replyPush.Close()
		lstn.replyPull.Close()
		return nil, err
	}

	return lstn, nil
}

// Run - wait for incoming requests, process them and reply
func (lstn *Listener) Run(args interface{}, shutdown <-chan struct{}) {

	log := lstn.log

	log.Info("starting…")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replierDone := make(chan struct{})
	go func() {
		defer close(replierDone)
		for frames := range lstn.replies {
			err := sendFrames(lstn.replyPush, frames)
			if nil != err {
				log.Errorf("reply queue error: %s", err)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)

		reactor := zmqutil.NewReactor(lstn.pull)
		reactor.Add(lstn.socket4, func(socket *zmq.Socket) {
			lstn.process(ctx, socket, tagIPv4)
		})
		reactor.Add(lstn.socket6, func(socket *zmq.Socket) {
			lstn.process(ctx, socket, tagIPv6)
		})
		reactor.Add(lstn.replyPull, lstn.route)
		reactor.Run(func(err error) {
			log.Errorf("poll error: %s", err)
		})

		log.Info("shutting down")

		// handlers see the cancel and finish before their queue closes
		cancel()
		lstn.handlers.Wait()
		close(lstn.replies)
		<-replierDone

		lstn.pull.Close()
		lstn.replyPush.Close()
		lstn.replyPull.Close()
		if nil != lstn.socket4 {
			lstn.socket4.Close()
		}
		if nil != lstn.socket6 {
			lstn.socket6.Close()
		}
		log.Info("stopped")
	}()

	log.Info("waiting…")
	<-shutdown
	log.Info("initiate shutdown")
	cancel()
	lstn.push.SendMessage("stop")
	<-done
	lstn.push.Close()
}

// accept one request and start its handler
//
// ROUTER frames: client identity, empty delimiter, request
func (lstn *Listener) process(ctx context.Context, socket *zmq.Socket, tag string) {

	log := lstn.log

	message, err := socket.RecvMessageBytes(0)
	if nil != err {
		log.Errorf("receive error: %s", err)
		return
	}

	if len(message) < 2 || 0 != len(message[1]) {
		log.Warnf("malformed envelope  frames: %d", len(message))
		return
	}
	envelope := [][]byte{[]byte(tag), message[0], message[1]}
	request := message[2:]

	if len(request) > 0 {
		log.Debugf("received: %q  frames: %d", request[0], len(request))
	}

	if !lstn.inFlight.Acquire(maximumInFlight) {
		log.Warnf("busy: %d requests in flight", lstn.inFlight.Uint64())
		err := sendFrames(socket, append(envelope[1:], EncodeError(fault.ErrRateLimiting)...))
		if nil != err {
			log.Errorf("send error: %s", err)
		}
		return
	}

	lstn.handlers.Add(1)
	go func() {
		defer lstn.handlers.Done()
		defer lstn.inFlight.Release()

		reply := lstn.dispatcher.Dispatch(ctx, request)
		lstn.replies <- append(envelope, reply...)
	}()
}

// send a finished reply back through the socket its request came from
func (lstn *Listener) route(replies *zmq.Socket) {

	log := lstn.log

	frames, err := replies.RecvMessageBytes(0)
	if nil != err {
		log.Errorf("reply receive error: %s", err)
		return
	}
	if len(frames) < 3 {
		log.Errorf("reply frames: %d", len(frames))
		return
	}

	socket := lstn.socket4
	if tagIPv6 == string(frames[0]) {
		socket = lstn.socket6
	}
	if nil == socket {
		return
	}

	// a client that went away is dropped by the ROUTER socket
	err = sendFrames(socket, frames[1:])
	if nil != err {
		log.Errorf("send error: %s", err)
	}
}

func sendFrames(socket *zmq.Socket, frames [][]byte) error {
	items := make([]interface{}, len(frames))
	for i, f := range frames {
		items[i] = f
	}
	_, err := socket.SendMessage(items...)
	return err
}
