// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
)

func TestCanonical(t *testing.T) {
	testData := []struct {
		in  string
		out string
		v6  bool
	}{
		{"127.0.0.1:1234", "tcp://127.0.0.1:1234", false},
		{" 127.0.0.1:1 ", "tcp://127.0.0.1:1", false},
		{"0.0.0.0:65535", "tcp://0.0.0.0:65535", false},
		{"[::1]:1234", "tcp://[::1]:1234", true},
		{"[0:0::0:0]:1234", "tcp://[::]:1234", true},
		{"*:2136", "tcp://[::]:2136", true},
	}

	for i, d := range testData {
		c, err := util.NewConnection(d.in)
		if !assert.Nil(t, err, "%d: %q", i, d.in) {
			continue
		}
		s, v6 := c.CanonicalIPandPort("tcp://")
		assert.Equal(t, d.out, s, "%d: canonical", i)
		assert.Equal(t, d.v6, v6, "%d: v6", i)
	}
}

func TestCanonicalErrors(t *testing.T) {
	testData := []struct {
		in  string
		err error
	}{
		{"", fault.ErrInvalidIPAddress},
		{"localhost:1234", fault.ErrInvalidIPAddress},
		{"127.0.0.1", fault.ErrInvalidIPAddress},
		{"127.0.0.1:0", fault.ErrInvalidPortNumber},
		{"127.0.0.1:65536", fault.ErrInvalidPortNumber},
		{"[::1]:x", fault.ErrInvalidPortNumber},
	}

	for i, d := range testData {
		_, err := util.NewConnection(d.in)
		assert.Equal(t, d.err, err, "%d: %q", i, d.in)
	}
}

func TestNewConnections(t *testing.T) {
	_, err := util.NewConnections(nil)
	assert.Equal(t, fault.ErrMissingParameters, err, "empty list")

	c, err := util.NewConnections([]string{"127.0.0.1:1", "[::1]:2"})
	assert.Nil(t, err, "list")
	assert.Equal(t, 2, len(c), "count")
	assert.Equal(t, "[::1]:2", c[1].String(), "string")
}
