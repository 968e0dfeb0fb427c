// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/registryd/command/registry-cli/rpccalls"
)

func connect(m *metadata) (*rpccalls.Client, error) {
	return rpccalls.NewClient(m.connect, m.fingerprint, m.verbose, m.e)
}

// a required string flag
func checkString(c *cli.Context, name string) (string, error) {
	s := c.String(name)
	if "" == s {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

func runRequest(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	fingerprint, err := checkString(c, "fingerprint")
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	response, err := client.Request(fingerprint)
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runGet(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	id, err := checkString(c, "version-id")
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	response, err := client.Get(id)
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runHistory(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	id, err := checkString(c, "version-id")
	if nil != err {
		return err
	}
	count := c.Int("count")
	if count < 0 {
		return fmt.Errorf("count: %d must not be negative", count)
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	response, err := client.History(id, count)
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runFind(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	fingerprint, err := checkString(c, "fingerprint")
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	response, err := client.Find(fingerprint)
	if nil != err {
		return err
	}
	return printJson(m.w, response)
}

func runInfo(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	response, err := client.GetInfo()
	if nil != err {
		return err
	}

	result := struct {
		Connection string      `json:"_connection"`
		Info       interface{} `json:"info"`
	}{
		Connection: m.connect,
		Info:       response,
	}
	return printJson(m.w, result)
}

func printJson(handle io.Writer, message interface{}) error {
	b, err := json.MarshalIndent(message, "", "  ")
	if nil != err {
		return err
	}
	fmt.Fprintf(handle, "%s\n", b)
	return nil
}
