// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/bitmark-inc/registryd/rpc/certificate"
)

// Client - to hold RPC connections streams
type Client struct {
	conn    net.Conn
	client  *rpc.Client
	verbose bool
	handle  io.Writer // if verbose is set output items here
}

// NewClient - create a RPC connection to a registryd
//
// a non-blank pin is the hex SHA3-256 of the server certificate
func NewClient(connect string, pin string, verbose bool, handle io.Writer) (*Client, error) {

	var expected []byte
	if "" != pin {
		b, err := hex.DecodeString(pin)
		if nil != err || 32 != len(b) {
			return nil, fmt.Errorf("invalid certificate fingerprint: %q", pin)
		}
		expected = b
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if nil == expected {
				return nil
			}
			if 0 == len(rawCerts) {
				return fmt.Errorf("no server certificate")
			}
			f := certificate.Fingerprint(rawCerts[0])
			if !bytes.Equal(expected, f[:]) {
				return fmt.Errorf("certificate fingerprint mismatch: %x", f)
			}
			return nil
		},
	}

	conn, err := tls.Dial("tcp", connect, tlsConfig)
	if err != nil {
		return nil, err
	}

	r := &Client{
		conn:    conn,
		client:  jsonrpc.NewClient(conn),
		verbose: verbose,
		handle:  handle,
	}
	return r, nil
}

// Close - shutdown the registryd connection
func (c *Client) Close() {
	c.client.Close()
	c.conn.Close()
}

// write a request or reply to the verbose handle
func (client *Client) trace(title string, message interface{}) {
	if !client.verbose || nil == client.handle {
		return
	}
	b, err := json.Marshal(message)
	if nil != err {
		fmt.Fprintf(client.handle, "%s: %s\n", title, err)
		return
	}
	fmt.Fprintf(client.handle, "%s: %s\n", title, b)
}
