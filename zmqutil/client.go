// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"bytes"
	"crypto/rand"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/util"
)

const (
	publicKeySize  = 32
	privateKeySize = 32
	identifierSize = 32
)

// Client - a REQ connection to one server
//
// not safe for concurrent use, callers serialise requests
type Client struct {
	publicKey       []byte
	privateKey      []byte
	serverPublicKey []byte
	address         string
	v6              bool
	socket          *zmq.Socket
	timestamp       time.Time
}

// NewClient - create an unconnected client with this node's CURVE keys
func NewClient(privateKey []byte, publicKey []byte) (*Client, error) {

	if publicKeySize != len(publicKey) {
		return nil, fault.ErrInvalidPublicKey
	}
	if privateKeySize != len(privateKey) {
		return nil, fault.ErrInvalidPrivateKey
	}

	client := &Client{
		publicKey:       make([]byte, publicKeySize),
		privateKey:      make([]byte, privateKeySize),
		serverPublicKey: make([]byte, publicKeySize),
		timestamp:       time.Now(),
	}
	copy(client.privateKey, privateKey)
	copy(client.publicKey, publicKey)
	return client, nil
}

func (client *Client) openSocket() error {

	socket, err := zmq.NewSocket(zmq.REQ)
	if nil != err {
		return err
	}

	// local identity is random
	randomIdBytes := make([]byte, identifierSize)
	_, err = rand.Read(randomIdBytes)
	if nil != err {
		socket.Close()
		return err
	}

	err = socket.SetCurveServer(0)
	if nil != err {
		goto failure
	}
	err = socket.SetCurvePublickey(string(client.publicKey))
	if nil != err {
		goto failure
	}
	err = socket.SetCurveSecretkey(string(client.privateKey))
	if nil != err {
		goto failure
	}
	err = socket.SetIdentity(string(randomIdBytes))
	if nil != err {
		goto failure
	}
	err = socket.SetCurveServerkey(string(client.serverPublicKey))
	if nil != err {
		goto failure
	}
	err = socket.SetLinger(0)
	if nil != err {
		goto failure
	}
	err = socket.SetReqCorrelate(1)
	if nil != err {
		goto failure
	}
	err = socket.SetReqRelaxed(1)
	if nil != err {
		goto failure
	}

	// needs zmq 4.2
	err = socket.SetHeartbeatIvl(heartbeatInterval)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}
	err = socket.SetHeartbeatTimeout(heartbeatTimeout)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}
	err = socket.SetHeartbeatTtl(heartbeatTTL)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}

	// IPv6 state must be set before connect
	err = socket.SetIpv6(client.v6)
	if nil != err {
		goto failure
	}

	err = socket.Connect(client.address)
	if nil != err {
		goto failure
	}

	client.socket = socket
	return nil

failure:
	socket.Close()
	return err
}

func (client *Client) closeSocket() error {
	if nil == client.socket {
		return nil
	}
	if "" != client.address {
		client.socket.Disconnect(client.address)
	}
	err := client.socket.Close()
	client.socket = nil
	return err
}

// Connect - disconnect any old address and connect to a new server
func (client *Client) Connect(conn *util.Connection, serverPublicKey []byte) error {

	if publicKeySize != len(serverPublicKey) {
		return fault.ErrInvalidPublicKey
	}

	err := client.closeSocket()
	if nil != err {
		return err
	}
	client.address = ""

	// restrict rate of reconnection
	time.Sleep(5 * time.Millisecond)

	copy(client.serverPublicKey, serverPublicKey)
	client.address, client.v6 = conn.CanonicalIPandPort("tcp://")
	client.timestamp = time.Now()

	return client.openSocket()
}

// IsConnected - true if an address is set
func (client *Client) IsConnected() bool {
	return "" != client.address && nil != client.socket
}

// IsConnectedTo - true if connected to the server with this key
func (client *Client) IsConnectedTo(serverPublicKey []byte) bool {
	return client.IsConnected() && bytes.Equal(client.serverPublicKey, serverPublicKey)
}

// Reconnect - close and reopen the socket to the same server
func (client *Client) Reconnect() error {
	err := client.closeSocket()
	if nil != err {
		return err
	}
	return client.openSocket()
}

// Close - disconnect and close
func (client *Client) Close() error {
	err := client.closeSocket()
	client.address = ""
	return err
}

// Request - send one multipart message and wait for the reply
//
// on timeout the socket is reopened so the next request starts clean
func (client *Client) Request(timeout time.Duration, items ...[]byte) ([][]byte, error) {
	if !client.IsConnected() {
		return nil, fault.ErrNotConnected
	}

	last := len(items) - 1
	for i, item := range items {
		flag := zmq.SNDMORE
		if i == last {
			flag = 0
		}
		_, err := client.socket.SendBytes(item, flag)
		if nil != err {
			client.Reconnect()
			return nil, fault.TransportError("send: " + err.Error())
		}
	}

	poller := zmq.NewPoller()
	poller.Add(client.socket, zmq.POLLIN)
	polled, err := poller.Poll(timeout)
	if nil != err {
		client.Reconnect()
		return nil, fault.TransportError("poll: " + err.Error())
	}
	if 0 == len(polled) {
		client.Reconnect()
		return nil, fault.ErrRequestTimedOut
	}

	data, err := client.socket.RecvMessageBytes(0)
	if nil != err {
		client.Reconnect()
		return nil, fault.TransportError("receive: " + err.Error())
	}
	return data, nil
}

// Age - time since the last connect
func (client *Client) Age() time.Duration {
	return time.Since(client.timestamp)
}

func (client *Client) String() string {
	return client.address
}
