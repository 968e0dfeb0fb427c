// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"sync"

	zmq "github.com/pebbe/zmq4"
)

var auth struct {
	sync.Mutex
	running bool
}

// StartAuthentication - initialise the ZMQ security subsystem
//
// safe to call more than once
func StartAuthentication() error {
	auth.Lock()
	defer auth.Unlock()

	if auth.running {
		return nil
	}

	zmq.AuthSetVerbose(false)
	err := zmq.AuthStart()
	if nil != err {
		return err
	}
	auth.running = true
	return nil
}

// StopAuthentication - shut down the ZAP handler
func StopAuthentication() {
	auth.Lock()
	defer auth.Unlock()

	if !auth.running {
		return
	}
	zmq.AuthStop()
	auth.running = false
}
