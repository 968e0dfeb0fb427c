// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/registryd/dedup"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/rpc/ratelimit"
)

const (
	rateLimitRegistry = 100
	rateBurstRegistry = 100

	// each request runs a full multi-party commit
	rateLimitRequest = 10
	rateBurstRequest = 10

	maximumHistory = 100
)

// Requester - submits a fingerprint to the issuing authority
type Requester interface {
	Request(ctx context.Context, fingerprint string) (record.VersionId, error)
}

// Registry - type for RPC calls
type Registry struct {
	Log            *logger.L
	Limiter        *rate.Limiter
	RequestLimiter *rate.Limiter
	store          recordstore.Store
	resolver       *dedup.Resolver
	requester      Requester
	timeout        time.Duration
}

// New - create the Registry RPC service
//
// requester is nil on a node that cannot take part in records
func New(log *logger.L, store recordstore.Store, requester Requester, timeout time.Duration) *Registry {
	return &Registry{
		Log:            log,
		Limiter:        rate.NewLimiter(rateLimitRegistry, rateBurstRegistry),
		RequestLimiter: rate.NewLimiter(rateLimitRequest, rateBurstRequest),
		store:          store,
		resolver:       dedup.New(log, store),
		requester:      requester,
		timeout:        timeout,
	}
}

// ---

// RequestArguments - fingerprint to be recorded against this node
type RequestArguments struct {
	Fingerprint string `json:"fingerprint"`
}

// RequestReply - the shared record's id
type RequestReply struct {
	VersionId record.VersionId `json:"versionId"`
}

// Request - relay a request to the issuing authority and wait for the commit
func (r *Registry) Request(arguments *RequestArguments, reply *RequestReply) error {
	if err := ratelimit.Limit(r.RequestLimiter); nil != err {
		return err
	}
	if nil == arguments || "" == arguments.Fingerprint {
		return fault.ErrMissingFingerprint
	}
	if len(arguments.Fingerprint) > record.MaxFingerprintLength {
		return fault.ErrFingerprintTooLong
	}
	if nil == r.requester {
		return fault.ErrCannotRequest
	}

	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.Log.Infof("request: %q", arguments.Fingerprint)
	id, err := r.requester.Request(ctx, arguments.Fingerprint)
	if nil != err {
		return err
	}
	reply.VersionId = id
	return nil
}

// ---

// GetArguments - which record
type GetArguments struct {
	VersionId string `json:"versionId"`
}

// GetReply - latest version of a record held locally
type GetReply struct {
	Version *record.Version `json:"version"`
}

// Get - latest local version of a record
func (r *Registry) Get(arguments *GetArguments, reply *GetReply) error {
	if err := ratelimit.Limit(r.Limiter); nil != err {
		return err
	}
	if nil == arguments {
		return fault.ErrMissingParameters
	}
	id, err := record.VersionIdFromString(arguments.VersionId)
	if nil != err {
		return err
	}
	v, err := r.store.ByVersionId(id)
	if nil != err {
		return err
	}
	reply.Version = v
	return nil
}

// ---

// FindArguments - fingerprint to look up
type FindArguments struct {
	Fingerprint string `json:"fingerprint"`
}

// FindReply - the unconsumed version if there is one
type FindReply struct {
	Found   bool            `json:"found"`
	Version *record.Version `json:"version,omitempty"`
}

// Find - local dedup lookup, no network traffic
func (r *Registry) Find(arguments *FindArguments, reply *FindReply) error {
	if err := ratelimit.Limit(r.Limiter); nil != err {
		return err
	}
	if nil == arguments {
		return fault.ErrMissingParameters
	}
	v, err := r.resolver.FindUnconsumed(arguments.Fingerprint)
	if nil != err {
		return err
	}
	reply.Found = nil != v
	reply.Version = v
	return nil
}

// ---

// HistoryArguments - which record and how many versions
type HistoryArguments struct {
	VersionId string `json:"versionId"`
	Count     int    `json:"count"`
}

// HistoryReply - versions oldest first
type HistoryReply struct {
	Versions []*record.Version `json:"versions"`
}

// History - every locally held version of a record
//
// a count of zero returns up to the maximum
func (r *Registry) History(arguments *HistoryArguments, reply *HistoryReply) error {
	if nil == arguments {
		return fault.ErrMissingParameters
	}
	count := arguments.Count
	if 0 == count {
		count = maximumHistory
	}
	if err := ratelimit.LimitN(r.Limiter, count, maximumHistory); nil != err {
		return err
	}

	id, err := record.VersionIdFromString(arguments.VersionId)
	if nil != err {
		return err
	}
	versions, err := r.store.History(id)
	if nil != err {
		return err
	}
	if len(versions) > count {
		versions = versions[len(versions)-count:]
	}
	reply.Versions = versions
	return nil
}
