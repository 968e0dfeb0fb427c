// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coordinator

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"github.com/bitmark-inc/registryd/fault"
)

// a key is held for a whole commit, longer than the deadlock detector
// allows, so each key is a one slot channel and only the table uses a
// detected mutex
type keyedLock struct {
	deadlock.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	slot chan struct{}
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{
		entries: make(map[string]*lockEntry),
	}
}

// acquire - wait for exclusive use of a key
//
// returns the release function
func (k *keyedLock) acquire(ctx context.Context, key string) (func(), error) {
	k.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{
			slot: make(chan struct{}, 1),
		}
		k.entries[key] = e
	}
	e.refs += 1
	k.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		k.unref(key, e)
		return nil, fault.ErrCommitTimeout
	}

	return func() {
		<-e.slot
		k.unref(key, e)
	}, nil
}

func (k *keyedLock) unref(key string, e *lockEntry) {
	k.Lock()
	e.refs -= 1
	if 0 == e.refs {
		delete(k.entries, key)
	}
	k.Unlock()
}

// number of keys in use
func (k *keyedLock) size() int {
	k.Lock()
	defer k.Unlock()
	return len(k.entries)
}
