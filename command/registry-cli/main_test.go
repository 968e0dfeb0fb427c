// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func run(args ...string) (string, string, error) {
	app := newApp()
	w := &bytes.Buffer{}
	e := &bytes.Buffer{}
	app.Writer = w
	app.ErrWriter = e
	err := app.Run(append([]string{"registry-cli"}, args...))
	return w.String(), e.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run("version")
	assert.Nil(t, err, "wrong version")
	assert.Equal(t, version+"\n", out, "wrong output")
}

func TestMissingFlags(t *testing.T) {
	_, _, err := run("request")
	assert.EqualError(t, err, "fingerprint is required", "wrong request error")

	_, _, err = run("get")
	assert.EqualError(t, err, "version-id is required", "wrong get error")

	_, _, err = run("history", "--version-id", "00", "--count", "-1")
	assert.EqualError(t, err, "count: -1 must not be negative", "wrong history error")

	_, _, err = run("--connect", "", "info")
	assert.NotNil(t, err, "blank connect accepted")
}

func TestUnreachable(t *testing.T) {
	_, _, err := run("--connect", "127.0.0.1:1", "find", "--fingerprint", "X")
	assert.NotNil(t, err, "connected to closed port")
}
