// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dedup - find the one canonical record for a fingerprint
package dedup

import (
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
)

// Resolver - queries only unconsumed versions
type Resolver struct {
	Log   *logger.L
	Store recordstore.Store
}

// New - create a resolver
func New(log *logger.L, store recordstore.Store) *Resolver {
	return &Resolver{
		Log:   log,
		Store: store,
	}
}

// FindUnconsumed - the single unconsumed version for a fingerprint
//
// nil, nil when none exists; more than one is a broken store and
// there is no recovery from that
func (r *Resolver) FindUnconsumed(fingerprint string) (*record.Version, error) {
	if "" == fingerprint {
		return nil, fault.ErrMissingFingerprint
	}

	versions, err := r.Store.UnconsumedByFingerprint(fingerprint)
	if nil != err {
		r.Log.Errorf("query fingerprint: %q  error: %s", fingerprint, err)
		return nil, recordstore.QueryFailed(err)
	}

	switch len(versions) {
	case 0:
		r.Log.Debugf("fingerprint: %q  no match", fingerprint)
		return nil, nil
	case 1:
		r.Log.Debugf("fingerprint: %q  match: %s", fingerprint, versions[0].Record.VersionId)
		return versions[0], nil
	default:
		r.Log.Criticalf("fingerprint: %q  has %d unconsumed versions", fingerprint, len(versions))
		for i, v := range versions {
			r.Log.Criticalf("%d: link: %s  version: %s", i, v.Link, v.Record.VersionId)
		}
		return nil, fault.ErrStoreConsistency
	}
}
