// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners_test

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/rpc"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/fixtures"
	"github.com/bitmark-inc/registryd/rpc/handler"
	"github.com/bitmark-inc/registryd/rpc/listeners"
)

func TestNewHTTPSDisabled(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	log := logger.New(fixtures.LogCategory)
	l, err := listeners.NewHTTPS(&listeners.HTTPSConfiguration{}, log, &tls.Config{}, handler.New(log, rpc.NewServer(), nil, nil, 1))
	assert.Nil(t, err, "wrong error")
	assert.Nil(t, l, "listener created")
}

func TestNewHTTPSInvalidConfiguration(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	log := logger.New(fixtures.LogCategory)
	h := handler.New(log, rpc.NewServer(), nil, nil, 1)

	_, err := listeners.NewHTTPS(&listeners.HTTPSConfiguration{
		MaximumConnections: 0,
		Listen:             []string{"127.0.0.1:2131"},
	}, log, &tls.Config{}, h)
	assert.Equal(t, fault.ErrMissingParameters, err, "wrong connection limit error")

	_, err = listeners.NewHTTPS(&listeners.HTTPSConfiguration{
		MaximumConnections: 1,
		Listen:             []string{"127.0.0.1:2131"},
		Allow:              map[string][]string{"details": {"not a cidr"}},
	}, log, &tls.Config{}, h)
	assert.NotNil(t, err, "bad cidr accepted")
}

func TestHTTPSListenerServe(t *testing.T) {
	fixtures.SetupTestLogger()
	defer fixtures.TeardownTestLogger()

	log := logger.New(fixtures.LogCategory)
	listen, _ := randomListen()
	tlsConfig, _ := makeTLS(t)

	details := func() interface{} {
		return map[string]string{"name": "registrar"}
	}
	l, err := listeners.NewHTTPS(&listeners.HTTPSConfiguration{
		MaximumConnections: 5,
		Listen:             []string{listen},
		Allow:              map[string][]string{"details": {"127.0.0.0/8"}},
	}, log, tlsConfig, handler.New(log, rpc.NewServer(), details, nil, 5))
	assert.Nil(t, err, "wrong NewHTTPS")

	err = l.Serve()
	assert.Nil(t, err, "wrong Serve")
	defer l.Close()

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	var resp *http.Response
	for i := 0; i < 20; i += 1 {
		resp, err = client.Get("https://" + listen + "/registryd/details")
		if nil == err {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if nil != err {
		t.Fatalf("get error: %s", err)
	}
	defer resp.Body.Close()

	var reply map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&reply)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "wrong status")
	assert.Equal(t, "registrar", reply["name"], "wrong details")
}
