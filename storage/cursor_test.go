// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/storage"
)

func TestFetchCursor(t *testing.T) {
	setup(t)
	defer teardown()

	p := storage.Pool.TestData
	for _, k := range []string{"key-one", "key-two", "key-three", "other-one"} {
		p.Put([]byte(k), []byte("data-"+k))
	}

	cursor := p.NewFetchCursor()
	first, err := cursor.Fetch(2)
	assert.Nil(t, err, "fetch 1")
	assert.Equal(t, 2, len(first), "first batch")
	assert.Equal(t, []byte("key-one"), first[0].Key, "first key")
	assert.Equal(t, []byte("key-three"), first[1].Key, "second key")

	rest, err := cursor.Fetch(10)
	assert.Nil(t, err, "fetch 2")
	assert.Equal(t, 2, len(rest), "second batch")
	assert.Equal(t, []byte("key-two"), rest[0].Key, "third key")
	assert.Equal(t, []byte("other-one"), rest[1].Key, "fourth key")

	_, err = cursor.Fetch(0)
	assert.Equal(t, fault.ErrInvalidCount, err, "zero count")
}

func TestPrefixCursor(t *testing.T) {
	setup(t)
	defer teardown()

	p := storage.Pool.TestData
	for _, k := range []string{"key-one", "key-two", "other-one"} {
		p.Put([]byte(k), []byte("data"))
	}

	keys := []string{}
	err := p.NewPrefixCursor([]byte("key-")).Map(func(key []byte, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	assert.Nil(t, err, "map")
	assert.Equal(t, []string{"key-one", "key-two"}, keys, "prefix keys")

	err = p.NewPrefixCursor([]byte("key-")).Map(func(key []byte, value []byte) error {
		return fault.ErrInvalidCount
	})
	assert.Equal(t, fault.ErrInvalidCount, err, "map error stops")
}
