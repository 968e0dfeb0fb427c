// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

// Command - type code for transactions
// this is encoded a Varint64 at start of "Packed"
type Command uint64

// enumerate the possible transaction commands
const (
	// null marks beginning of list - not used as a command
	NullCommand = Command(iota)

	Issue          = Command(iota) // create a record for a new fingerprint
	AddParticipant = Command(iota) // extend the participants of an existing record

	// this item must be last
	InvalidCommand = Command(iota)
)

// IsValid - true for a member of the closed set of commands
func (c Command) IsValid() bool {
	return c > NullCommand && c < InvalidCommand
}

// String - command name for logs and JSON
func (c Command) String() string {
	switch c {
	case Issue:
		return "Issue"
	case AddParticipant:
		return "AddParticipant"
	default:
		return "Unrecognised"
	}
}

// MarshalText - command name as JSON
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
