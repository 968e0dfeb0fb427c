// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"github.com/google/uuid"

	"github.com/bitmark-inc/registryd/fault"
)

// VersionIdLength - bytes in a version id
const VersionIdLength = 16

// VersionId - identifier of a record, stable across participant additions
type VersionId [VersionIdLength]byte

// NewVersionId - a fresh random id
func NewVersionId() VersionId {
	return VersionId(uuid.New())
}

// VersionIdFromBytes - convert a 16 byte slice
func VersionIdFromBytes(buffer []byte) (VersionId, error) {
	var v VersionId
	if VersionIdLength != len(buffer) {
		return v, fault.ErrInvalidVersionId
	}
	copy(v[:], buffer)
	return v, nil
}

// VersionIdFromString - parse the canonical uuid text form
func VersionIdFromString(s string) (VersionId, error) {
	u, err := uuid.Parse(s)
	if nil != err {
		return VersionId{}, fault.ErrInvalidVersionId
	}
	return VersionId(u), nil
}

// IsZero - true if the id was never set
func (v VersionId) IsZero() bool {
	return VersionId{} == v
}

// Bytes - the id as a byte slice
func (v VersionId) Bytes() []byte {
	return v[:]
}

// String - canonical uuid text form
func (v VersionId) String() string {
	return uuid.UUID(v).String()
}

// GoString - for %#v
func (v VersionId) GoString() string {
	return "<version:" + v.String() + ">"
}

// MarshalText - uuid text form for JSON
func (v VersionId) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText - uuid text form from JSON
func (v *VersionId) UnmarshalText(s []byte) error {
	id, err := VersionIdFromString(string(s))
	if nil != err {
		return err
	}
	*v = id
	return nil
}
