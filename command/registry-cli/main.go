// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

const defaultConnect = "127.0.0.1:2130"

type metadata struct {
	connect     string
	fingerprint string
	verbose     bool
	e           io.Writer
	w           io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp()
	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {

	app := cli.NewApp()
	app.Name = "registry-cli"
	app.Usage = "query and extend shared records held by a registryd"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "connect, c",
			Value:  defaultConnect,
			Usage:  " registryd client_rpc `HOST:PORT`",
			EnvVar: "REGISTRY_CONNECT",
		},
		cli.StringFlag{
			Name:   "fingerprint, f",
			Value:  "",
			Usage:  " expected SHA3-256 of the server certificate `HEX`",
			EnvVar: "REGISTRY_FINGERPRINT",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "request",
			Usage:     "record a fingerprint shared with this node",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "fingerprint, f",
					Value: "",
					Usage: "*record fingerprint `STRING`",
				},
			},
			Action: runRequest,
		},
		{
			Name:      "get",
			Usage:     "display the latest version of a record",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "version-id, i",
					Value: "",
					Usage: "*record version `ID`",
				},
			},
			Action: runGet,
		},
		{
			Name:      "history",
			Usage:     "display every version of a record",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "version-id, i",
					Value: "",
					Usage: "*record version `ID`",
				},
				cli.IntFlag{
					Name:  "count, n",
					Value: 0,
					Usage: " most recent `COUNT` versions (0 = all)",
				},
			},
			Action: runHistory,
		},
		{
			Name:      "find",
			Usage:     "display the unconsumed version for a fingerprint",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "fingerprint, f",
					Value: "",
					Usage: "*record fingerprint `STRING`",
				},
			},
			Action: runFind,
		},
		{
			Name:   "info",
			Usage:  "display registryd status",
			Action: runInfo,
		},
		{
			Name:  "version",
			Usage: "display registry-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		connect := c.GlobalString("connect")
		if "" == connect {
			return fmt.Errorf("connect: a HOST:PORT is required")
		}

		c.App.Metadata = map[string]interface{}{
			"config": &metadata{
				connect:     connect,
				fingerprint: c.GlobalString("fingerprint"),
				verbose:     c.GlobalBool("verbose"),
				e:           c.App.ErrWriter,
				w:           c.App.Writer,
			},
		}
		return nil
	}

	return app
}
