// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/rpc/certificate"
	"github.com/bitmark-inc/registryd/zmqutil"
)

const (
	rpcOrganisation = "registryd"
)

// setup command handler
//
// commands that run to create key and certificate files these
// commands cannot access any internal database or states or the
// configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-peer-identity", "peer":
		publicKeyFilename := getFilenameWithDirectory(arguments, defaultPeerPublicKeyFile)
		privateKeyFilename := getFilenameWithDirectory(arguments, defaultPeerPrivateKeyFile)
		err := zmqutil.MakeKeyPair(publicKeyFilename, privateKeyFilename)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateKeyFilename, publicKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateKeyFilename, publicKeyFilename)

	case "gen-rpc-cert", "rpc":
		certificateFilename := getFilenameWithDirectory(arguments, defaultCertificateFile)
		privateKeyFilename := getFilenameWithDirectory(arguments, defaultKeyFile)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := certificate.MakeSelfSigned(rpcOrganisation, certificateFilename, privateKeyFilename, addresses)
		if nil != err {
			fmt.Printf("generate RPC key: %q and certificate: %q error: %s\n", privateKeyFilename, certificateFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated RPC key: %q and certificate: %q\n", privateKeyFilename, certificateFilename)

	case "gen-signing-key", "signing":
		signingKeyFilename := getFilenameWithDirectory(arguments, defaultSigningKeyFile)

		passphrase, err := readPassphrase("set signing key passphrase: ", true)
		if nil != err {
			fmt.Printf("generate signing key: %q error: %s\n", signingKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		acc, err := makeSigningKey(signingKeyFilename, passphrase)
		if nil != err {
			fmt.Printf("generate signing key: %q error: %s\n", signingKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated signing key: %q\n", signingKeyFilename)
		fmt.Printf("account: %s\n", acc)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg", "account", "acct":
		return false // defer processing until configuration is read

	case "find", "f", "history", "hist":
		return false // defer processing until database is loaded

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-peer-identity [DIR]    (peer)   - create private key in: %q\n", "DIR/"+defaultPeerPrivateKeyFile)
		fmt.Printf("                                        and the public key in: %q\n", "DIR/"+defaultPeerPublicKeyFile)
		fmt.Printf("\n")

		fmt.Printf("  gen-rpc-cert [DIR]         (rpc)    - create private key in:  %q\n", "DIR/"+defaultKeyFile)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+defaultCertificateFile)
		fmt.Printf("\n")

		fmt.Printf("  gen-rpc-cert [DIR] [IPs...]         - create private key in:  %q\n", "DIR/"+defaultKeyFile)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+defaultCertificateFile)
		fmt.Printf("\n")

		fmt.Printf("  gen-signing-key [DIR]      (signing) - create passphrase protected key in: %q\n", "DIR/"+defaultSigningKeyFile)
		fmt.Printf("                                        passphrase from $%s or the terminal\n", passphraseEnvironment)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  account                    (acct)   - display the account of the signing key\n")
		fmt.Printf("\n")

		fmt.Printf("  find FINGERPRINT           (f)      - display the unconsumed record for a fingerprint\n")
		fmt.Printf("\n")

		fmt.Printf("  history VERSION-ID         (hist)   - display all versions of a record\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	case "account", "acct":
		encrypted, err := readSigningKey(options.Identity.SigningKey)
		if nil != err {
			exitwithstatus.Message("error: signing key: %q  error: %s", options.Identity.SigningKey, err)
		}
		fmt.Printf("name:    %s\n", options.Identity.Name)
		fmt.Printf("account: %s\n", encrypted.Account)

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the record store is open so these commands can read it
func processDataCommand(log *logger.L, arguments []string, store recordstore.Store) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "find", "f":
		if len(arguments) < 1 || "" == arguments[0] {
			exitwithstatus.Message("missing fingerprint argument")
		}
		versions, err := store.UnconsumedByFingerprint(arguments[0])
		if nil != err {
			exitwithstatus.Message("find error: %s", err)
		}
		log.Infof("find: %q  versions: %d", arguments[0], len(versions))
		printJSON(versions)

	case "history", "hist":
		if len(arguments) < 1 {
			exitwithstatus.Message("missing version id argument")
		}
		id, err := record.VersionIdFromString(arguments[0])
		if nil != err {
			exitwithstatus.Message("error in version id: %s", err)
		}
		versions, err := store.History(id)
		if nil != err {
			exitwithstatus.Message("history error: %s", err)
		}
		printJSON(versions)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

func printJSON(item interface{}) {
	s, err := json.MarshalIndent(item, "", "  ")
	if nil != err {
		exitwithstatus.Message("JSON error: %s", err)
	}
	fmt.Printf("%s\n", s)
}

// get the working directory; if not set in the arguments
// it's set to the current directory
func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
