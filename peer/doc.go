// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer - party to party requests
//
// every request is a multipart message whose first frame is a single
// command letter; a successful reply echoes the letter followed by
// the results, a failure is an error frame:
//
//   "E", class, message[, rule]
//
// the same framing is used by the ZeroMQ listener and by the
// in-process loopback network
package peer
