// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpccalls

import (
	"github.com/bitmark-inc/registryd/rpc/node"
	"github.com/bitmark-inc/registryd/rpc/registry"
)

// Request - ask the daemon to record a fingerprint
func (client *Client) Request(fingerprint string) (*registry.RequestReply, error) {
	args := registry.RequestArguments{
		Fingerprint: fingerprint,
	}
	client.trace("Request", args)

	var reply registry.RequestReply
	if err := client.client.Call("Registry.Request", &args, &reply); err != nil {
		return nil, err
	}

	client.trace("Reply", reply)
	return &reply, nil
}

// Get - latest version of a record
func (client *Client) Get(versionId string) (*registry.GetReply, error) {
	args := registry.GetArguments{
		VersionId: versionId,
	}
	client.trace("Get", args)

	var reply registry.GetReply
	if err := client.client.Call("Registry.Get", &args, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Find - unconsumed version for a fingerprint
func (client *Client) Find(fingerprint string) (*registry.FindReply, error) {
	args := registry.FindArguments{
		Fingerprint: fingerprint,
	}
	client.trace("Find", args)

	var reply registry.FindReply
	if err := client.client.Call("Registry.Find", &args, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// History - versions of a record, oldest first
func (client *Client) History(versionId string, count int) (*registry.HistoryReply, error) {
	args := registry.HistoryArguments{
		VersionId: versionId,
		Count:     count,
	}
	client.trace("History", args)

	var reply registry.HistoryReply
	if err := client.client.Call("Registry.History", &args, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// GetInfo - request status from registryd
func (client *Client) GetInfo() (*node.InfoReply, error) {
	var reply node.InfoReply
	if err := client.client.Call("Node.Info", node.InfoArguments{}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
