// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/bitmark-inc/registryd/fault"
)

const errorFrame = "E"

// error classes
const (
	classValidation  = "V"
	classQuery       = "Q"
	classConsistency = "K"
	classConflict    = "C"
	classRejected    = "R"
	classTimeout     = "T"
	classInvalid     = "I"
	classNotFound    = "N"
	classOther       = "X"
)

// EncodeError - error frame for a failure
//
// only the class, message and rule leave the node
func EncodeError(err error) [][]byte {
	if v, ok := err.(*fault.ValidationError); ok {
		return [][]byte{[]byte(errorFrame), []byte(classValidation), []byte(v.Message), []byte(v.Rule)}
	}

	class := classOther
	switch err.(type) {
	case fault.QueryError:
		class = classQuery
	case fault.ConsistencyError:
		class = classConsistency
	case fault.ConflictError:
		class = classConflict
	case fault.RejectedError:
		class = classRejected
	case fault.TimeoutError:
		class = classTimeout
	case fault.InvalidError:
		class = classInvalid
	case fault.NotFoundError:
		class = classNotFound
	}
	return [][]byte{[]byte(errorFrame), []byte(class), []byte(err.Error())}
}

// DecodeError - rebuild a typed error from the frames after "E"
func DecodeError(frames [][]byte) error {
	if len(frames) < 2 {
		return fault.ErrUnexpectedReply
	}
	message := string(frames[1])

	switch string(frames[0]) {
	case classValidation:
		rule := ""
		if len(frames) > 2 {
			rule = string(frames[2])
		}
		return fault.NewValidationError(rule, message)
	case classQuery:
		return fault.QueryError(message)
	case classConsistency:
		return fault.ConsistencyError(message)
	case classConflict:
		return fault.ConflictError(message)
	case classRejected:
		return fault.RejectedError(message)
	case classTimeout:
		return fault.TimeoutError(message)
	case classInvalid:
		return fault.InvalidError(message)
	case classNotFound:
		return fault.NotFoundError(message)
	default:
		return fault.ProcessError(message)
	}
}

// EncodeReply - frames for a handler outcome
func EncodeReply(command string, results [][]byte, err error) [][]byte {
	if nil != err {
		return EncodeError(err)
	}
	reply := make([][]byte, 0, len(results)+1)
	reply = append(reply, []byte(command))
	return append(reply, results...)
}

// DecodeReply - results of a reply, or the remote error
func DecodeReply(command string, reply [][]byte) ([][]byte, error) {
	if 0 == len(reply) {
		return nil, fault.ErrUnexpectedReply
	}
	switch string(reply[0]) {
	case errorFrame:
		return nil, DecodeError(reply[1:])
	case command:
		return reply[1:], nil
	default:
		return nil, fault.ErrUnexpectedReply
	}
}
