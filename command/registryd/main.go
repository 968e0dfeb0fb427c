// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bitmark-inc/registryd/background"
	"github.com/bitmark-inc/registryd/broadcast"
	"github.com/bitmark-inc/registryd/coordinator"
	"github.com/bitmark-inc/registryd/dedup"
	"github.com/bitmark-inc/registryd/directory"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/metrics"
	"github.com/bitmark-inc/registryd/notary"
	"github.com/bitmark-inc/registryd/peer"
	"github.com/bitmark-inc/registryd/relay"
	"github.com/bitmark-inc/registryd/rpc"
	"github.com/bitmark-inc/registryd/rpc/node"
	"github.com/bitmark-inc/registryd/rpc/registry"
	"github.com/bitmark-inc/registryd/storage"
	"github.com/bitmark-inc/registryd/zmqutil"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := getConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)

	// set up the fault panic log (now that logging is available
	fault.Initialise()
	defer fault.Finalise()
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// general info
	log.Infof("identity: %q", theConfiguration.Identity.Name)
	log.Infof("database: %q", theConfiguration.Database.Name)

	// connection info
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)
	log.Debugf("%s = %#v", "Peering", theConfiguration.Peering)

	// start the data storage
	log.Info("initialise storage")
	err = storage.Initialise(theConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	store, err := openStore(log, theConfiguration.Database)
	if nil != err {
		log.Criticalf("record store error: %s", err)
		exitwithstatus.Message("record store error: %s", err)
	}
	defer store.Close()

	// these commands are allowed to access the record store
	if len(arguments) > 0 && processDataCommand(log, arguments, store) {
		return
	}

	// the party directory
	dir, err := directory.Load(logger.New("directory"), theConfiguration.PartiesFile)
	if nil != err {
		log.Criticalf("directory load error: %s", err)
		exitwithstatus.Message("directory load error: %s", err)
	}

	signingKey, err := loadSigningKey(theConfiguration.Identity)
	if nil != err {
		log.Criticalf("signing key: %q  error: %s", theConfiguration.Identity.SigningKey, err)
		exitwithstatus.Message("signing key: %q  error: %s", theConfiguration.Identity.SigningKey, err)
	}

	self, err := dir.ByAccount(signingKey.Account())
	if nil != err {
		log.Criticalf("account: %s  error: %s", signingKey.Account(), err)
		exitwithstatus.Message("account: %s  error: %s", signingKey.Account(), err)
	}
	if self.Name != theConfiguration.Identity.Name {
		log.Criticalf("identity: %q  directory name: %q", theConfiguration.Identity.Name, self.Name)
		exitwithstatus.Message("identity: %q does not match directory name: %q", theConfiguration.Identity.Name, self.Name)
	}
	log.Infof("account: %s  role: %s", self.Account, self.Role)

	// peer keys
	peerPrivateKey, peerPublicKey, err := readPeerKeys(theConfiguration.Peering)
	if nil != err {
		log.Criticalf("peer keys error: %s", err)
		exitwithstatus.Message("peer keys error: %s", err)
	}

	// initialise encryption
	err = zmqutil.StartAuthentication()
	if nil != err {
		log.Criticalf("zmq.AuthStart: error: %s", err)
		exitwithstatus.Message("zmq.AuthStart: error: %s", err)
	}
	defer zmqutil.StopAuthentication()

	peerTimeout := time.Duration(theConfiguration.Peering.Timeout) * time.Second

	// a submit round trip outlasts the issuer's whole commit
	submitTimeout := time.Duration(theConfiguration.Issuance.CommitTimeout+theConfiguration.Peering.Timeout) * time.Second
	network, err := peer.NewNetwork(logger.New("network"), peerPrivateKey, peerPublicKey, peerTimeout, dir)
	if nil != err {
		log.Criticalf("network initialise error: %s", err)
		exitwithstatus.Message("network initialise error: %s", err)
	}
	defer network.Close()

	dispatcher := peer.NewDispatcher(logger.New("dispatch"))

	var requester registry.Requester
	switch self.Role {
	case directory.RoleIssuer:
		// without a notary party the issuer orders its own transactions
		var n notary.Notary = notary.NewRemote(network, dir.NotaryAccount)
		if _, err := dir.Notary(); nil != err {
			log.Warnf("notary: %s  using local notary", err)
			n = notary.NewLocal(logger.New("notary"), storage.Pool.Notary)
		}
		commitTimeout := time.Duration(theConfiguration.Issuance.CommitTimeout) * time.Second
		committer := broadcast.New(logger.New("broadcast"), network, n, store, commitTimeout)
		c := coordinator.New(
			logger.New("coordinator"),
			signingKey,
			dedup.New(logger.New("dedup"), store),
			committer,
			theConfiguration.Issuance.NotaryRetries,
		)
		c.Register(dispatcher)
		dispatcher.Register(peer.Query, relay.QueryHandler(store))

	case directory.RoleParticipant:
		stageTimeout := time.Duration(theConfiguration.Issuance.StageTimeout) * time.Second
		receiver := broadcast.NewReceiver(logger.New("receiver"), self.Account, dir.IssuerAccount, store, stageTimeout)
		receiver.Register(dispatcher)
		dispatcher.Register(peer.Query, relay.QueryHandler(store))
		requester = relay.New(logger.New("relay"), signingKey, network, dir.IssuerAccount, submitTimeout)

	case directory.RoleNotary:
		dispatcher.Register(peer.Notarise, notary.Handler(notary.NewLocal(logger.New("notary"), storage.Pool.Notary)))

	default:
		log.Criticalf("unsupported role: %q", self.Role)
		exitwithstatus.Message("unsupported role: %q", self.Role)
	}

	listener, err := peer.NewListener(logger.New("listener"), dispatcher, peerPrivateKey, peerPublicKey, theConfiguration.Peering.Listen)
	if nil != err {
		log.Criticalf("peer listener error: %s", err)
		exitwithstatus.Message("peer listener error: %s", err)
	}

	// collectors for the https_rpc metrics page
	if err = metrics.Register(prometheus.DefaultRegisterer); nil != err {
		log.Criticalf("metrics register error: %s", err)
		exitwithstatus.Message("metrics register error: %s", err)
	}

	// start up the rpc background processes
	services := &rpc.Services{
		Version: version,
		Identity: node.Identity{
			Name:    self.Name,
			Account: self.Account,
			Role:    self.Role,
		},
		Store:      store,
		Requester:  requester,
		Timeout:    submitTimeout,
		Peers:      network,
		Gatherer:   prometheus.DefaultGatherer,
		Dispatcher: dispatcher,
	}
	err = rpc.Initialise(&theConfiguration.ClientRPC, &theConfiguration.HttpsRPC, services)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	defer rpc.Finalise()

	processes := background.Processes{
		listener,
		dir,
	}
	bg := background.Start(processes, nil)
	defer bg.Stop()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
}

// read both halves of the CURVE peering key
func readPeerKeys(peering PeeringType) ([]byte, []byte, error) {
	data, err := zmqutil.ReadKeyFile(peering.PrivateKey)
	if nil != err {
		return nil, nil, err
	}
	privateKey, err := zmqutil.ReadPrivateKey(data)
	if nil != err {
		return nil, nil, err
	}

	data, err = zmqutil.ReadKeyFile(peering.PublicKey)
	if nil != err {
		return nil, nil, err
	}
	publicKey, err := zmqutil.ReadPublicKey(data)
	if nil != err {
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}
