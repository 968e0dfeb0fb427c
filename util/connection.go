// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/bitmark-inc/registryd/fault"
)

// Connection - a canonical IP and port
type Connection struct {
	ip   net.IP
	port int
}

// NewConnection - parse "IP:port", "[IPv6]:port" or "*:port"
//
// "*" becomes the IPv6 any address
func NewConnection(hostPort string) (*Connection, error) {
	hostPort = strings.TrimSpace(hostPort)
	if strings.HasPrefix(hostPort, "*:") {
		hostPort = "[::]" + hostPort[1:]
	}

	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return nil, fault.ErrInvalidIPAddress
	}

	ip := net.ParseIP(strings.TrimSpace(host))
	if nil == ip {
		return nil, fault.ErrInvalidIPAddress
	}

	numericPort, err := strconv.Atoi(strings.TrimSpace(port))
	if nil != err {
		return nil, fault.ErrInvalidPortNumber
	}
	if numericPort < 1 || numericPort > 65535 {
		return nil, fault.ErrInvalidPortNumber
	}

	c := &Connection{
		ip:   ip,
		port: numericPort,
	}
	return c, nil
}

// NewConnections - convert a list of addresses
func NewConnections(hostPort []string) ([]*Connection, error) {
	if 0 == len(hostPort) {
		return nil, fault.ErrMissingParameters
	}
	c := make([]*Connection, len(hostPort))
	for i, hp := range hostPort {
		conn, err := NewConnection(hp)
		if nil != err {
			return nil, err
		}
		c[i] = conn
	}
	return c, nil
}

// CanonicalIPandPort - address with a prefix e.g. "tcp://"
//
// the second value is true for IPv6
func (conn *Connection) CanonicalIPandPort(prefix string) (string, bool) {
	port := strconv.Itoa(conn.port)
	if nil != conn.ip.To4() {
		return prefix + conn.ip.String() + ":" + port, false
	}
	return prefix + "[" + conn.ip.String() + "]:" + port, true
}

// String - canonical form without a prefix
func (conn *Connection) String() string {
	s, _ := conn.CanonicalIPandPort("")
	return s
}
