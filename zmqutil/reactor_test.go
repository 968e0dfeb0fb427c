// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil_test

import (
	"testing"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/zmqutil"
)

func TestReactor(t *testing.T) {
	stopPush, stopPull, err := zmqutil.NewSignalPair("inproc://reactor-test-stop")
	if nil != err {
		t.Fatalf("stop pair error: %s", err)
	}
	defer stopPush.Close()
	defer stopPull.Close()

	dataPush, dataPull, err := zmqutil.NewSignalPair("inproc://reactor-test-data")
	if nil != err {
		t.Fatalf("data pair error: %s", err)
	}
	defer dataPush.Close()
	defer dataPull.Close()

	received := make(chan string, 10)

	r := zmqutil.NewReactor(stopPull)
	r.Add(dataPull, func(s *zmq.Socket) {
		m, err := s.RecvMessageBytes(0)
		if nil == err {
			received <- string(m[0])
		}
	})
	r.Add(nil, nil)
	r.Add(stopPull, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(nil)
	}()

	for _, s := range []string{"one", "two"} {
		_, err = dataPush.SendMessage(s)
		assert.Nil(t, err, "send error")

		select {
		case m := <-received:
			assert.Equal(t, s, m, "wrong message")
		case <-time.After(5 * time.Second):
			t.Fatalf("handler not called for: %q", s)
		}
	}

	_, err = stopPush.SendMessage("stop")
	assert.Nil(t, err, "stop send error")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reactor did not stop")
	}
}
