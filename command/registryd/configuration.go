// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/configuration"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/rpc/listeners"
	"github.com/bitmark-inc/registryd/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultPeerPublicKeyFile  = "peer.public"
	defaultPeerPrivateKeyFile = "peer.private"
	defaultSigningKeyFile     = "signing.key"
	defaultKeyFile            = "rpc.key"
	defaultCertificateFile    = "rpc.crt"
	defaultPartiesFile        = "parties.conf"

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "registry"

	defaultLogDirectory = "log"
	defaultLogFile      = "registryd.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients   = 10
	defaultRPCBandwidth = 25000000

	defaultPeerTimeout   = 10 // seconds
	defaultCommitTimeout = 30 // seconds
	defaultStageTimeout  = 600
	defaultNotaryRetries = 3
)

// to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// IdentityType - who this node is
type IdentityType struct {
	Name       string `gluamapper:"name" json:"name"`
	SigningKey string `gluamapper:"signing_key" json:"signing_key"`
	Passphrase string `gluamapper:"passphrase" json:"-"`
}

// DatabaseType - where records are kept
type DatabaseType struct {
	Backend   string `gluamapper:"backend" json:"backend"`
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
	DSN       string `gluamapper:"dsn" json:"-"`
}

// PeeringType - the ZeroMQ peer transport
type PeeringType struct {
	Listen     []string `gluamapper:"listen" json:"listen"`
	PublicKey  string   `gluamapper:"public_key" json:"public_key"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	Timeout    int      `gluamapper:"timeout" json:"timeout"`
}

// IssuanceType - protocol timing
type IssuanceType struct {
	NotaryRetries int `gluamapper:"notary_retries" json:"notary_retries"`
	CommitTimeout int `gluamapper:"commit_timeout" json:"commit_timeout"`
	StageTimeout  int `gluamapper:"stage_timeout" json:"stage_timeout"`
}

// Configuration - the whole daemon configuration
type Configuration struct {
	DataDirectory string       `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string       `gluamapper:"pidfile" json:"pidfile"`
	Identity      IdentityType `gluamapper:"identity" json:"identity"`
	PartiesFile   string       `gluamapper:"parties_file" json:"parties_file"`
	Database      DatabaseType `gluamapper:"database" json:"database"`
	Peering       PeeringType  `gluamapper:"peering" json:"peering"`
	Issuance      IssuanceType `gluamapper:"issuance" json:"issuance"`

	ClientRPC listeners.RPCConfiguration   `gluamapper:"client_rpc" json:"client_rpc"`
	HttpsRPC  listeners.HTTPSConfiguration `gluamapper:"https_rpc" json:"https_rpc"`
	Logging   logger.Configuration         `gluamapper:"logging" json:"logging"`
}

// will read decode and verify the configuration
func getConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		PartiesFile:   defaultPartiesFile,

		Identity: IdentityType{
			SigningKey: defaultSigningKeyFile,
		},

		Database: DatabaseType{
			Backend:   recordstore.BackendLevelDB,
			Directory: defaultDatabaseDirectory,
			Name:      defaultDatabaseName,
		},

		Peering: PeeringType{
			PublicKey:  defaultPeerPublicKeyFile,
			PrivateKey: defaultPeerPrivateKeyFile,
			Timeout:    defaultPeerTimeout,
		},

		Issuance: IssuanceType{
			NotaryRetries: defaultNotaryRetries,
			CommitTimeout: defaultCommitTimeout,
			StageTimeout:  defaultStageTimeout,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
			Bandwidth:          defaultRPCBandwidth,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		// default: share config with normal RPC
		HttpsRPC: listeners.HTTPSConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := configuration.ParseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	options.Database.Backend = strings.ToLower(options.Database.Backend)
	switch options.Database.Backend {
	case recordstore.BackendLevelDB, recordstore.BackendSQLite, recordstore.BackendMemory:
	case recordstore.BackendPostgres:
		if "" == options.Database.DSN {
			return nil, fmt.Errorf("database: %q requires a dsn", options.Database.Backend)
		}
	default:
		return nil, fmt.Errorf("database: %q is not supported", options.Database.Backend)
	}

	if "" == options.Identity.Name {
		return nil, fmt.Errorf("identity: a name is required")
	}
	if options.Peering.Timeout <= 0 || options.Issuance.CommitTimeout <= 0 || options.Issuance.StageTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}
	if options.Issuance.NotaryRetries < 0 {
		return nil, fmt.Errorf("notary_retries: %d must not be negative", options.Issuance.NotaryRetries)
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.PartiesFile,
		&options.Identity.SigningKey,
		&options.Database.Directory,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.HttpsRPC.Certificate,
		&options.HttpsRPC.PrivateKey,
		&options.Peering.PublicKey,
		&options.Peering.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f[0])
		}
	}

	// create directories if they do not already exist
	err = util.EnsureDirectories(
		options.Database.Directory,
		options.Logging.Directory,
	)
	if nil != err {
		return nil, err
	}

	// done
	return options, nil
}
