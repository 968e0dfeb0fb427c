// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"sort"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
)

// byte sizes for various fields
const (
	MaxFingerprintLength = 1024
	maxParticipants      = 8192
	maxSignatureLength   = 1024
	maxStates            = 16
)

// Status - lifecycle of a stored version
type Status int

// only Unconsumed versions take part in dedup
const (
	Unconsumed Status = iota
	Consumed
)

// String - status name
func (s Status) String() string {
	switch s {
	case Unconsumed:
		return "unconsumed"
	case Consumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// MarshalText - status name as JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText - status from its JSON name
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unconsumed":
		*s = Unconsumed
	case "consumed":
		*s = Consumed
	default:
		return fault.ErrInvalidStatus
	}
	return nil
}

// Record - the shared state for one fingerprint
type Record struct {
	Fingerprint  string             `json:"fingerprint"`
	Participants []*account.Account `json:"participants"`
	Issuer       *account.Account   `json:"issuer"`
	VersionId    VersionId          `json:"versionId"`
}

// Version - a record as produced by a specific transaction
type Version struct {
	Link   Link    `json:"link"`
	Record *Record `json:"record"`
	Status Status  `json:"status"`
}

// NewRecord - a record whose participants are sorted and unique
func NewRecord(fingerprint string, issuer *account.Account, versionId VersionId, participants ...*account.Account) *Record {
	return &Record{
		Fingerprint:  fingerprint,
		Participants: canonicalParticipants(participants),
		Issuer:       issuer,
		VersionId:    versionId,
	}
}

// HasParticipant - true if the account is in the participant set
func (r *Record) HasParticipant(acc *account.Account) bool {
	for _, p := range r.Participants {
		if p.Equal(acc) {
			return true
		}
	}
	return false
}

// WithParticipant - a copy with one more participant
// every other field is carried over unchanged
func (r *Record) WithParticipant(acc *account.Account) *Record {
	participants := make([]*account.Account, 0, len(r.Participants)+1)
	participants = append(participants, r.Participants...)
	participants = append(participants, acc)
	return NewRecord(r.Fingerprint, r.Issuer, r.VersionId, participants...)
}

// IsCanonical - participants strictly ascending so no duplicates
func (r *Record) IsCanonical() bool {
	for i := 1; i < len(r.Participants); i += 1 {
		if r.Participants[i-1].Compare(r.Participants[i]) >= 0 {
			return false
		}
	}
	return true
}

// Copy - deep enough copy that participant slices are not shared
func (r *Record) Copy() *Record {
	participants := make([]*account.Account, len(r.Participants))
	copy(participants, r.Participants)
	return &Record{
		Fingerprint:  r.Fingerprint,
		Participants: participants,
		Issuer:       r.Issuer,
		VersionId:    r.VersionId,
	}
}

func canonicalParticipants(participants []*account.Account) []*account.Account {
	sorted := make([]*account.Account, 0, len(participants))
	for _, p := range participants {
		if nil != p {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})

	result := make([]*account.Account, 0, len(sorted))
	for _, p := range sorted {
		if 0 != len(result) && p.Equal(result[len(result)-1]) {
			continue
		}
		result = append(result, p)
	}
	return result
}
