// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics - prometheus collectors for the protocol
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "registryd"

// submission results
const (
	ResultIssued   = "issued"
	ResultJoined   = "joined"
	ResultMember   = "member"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultFailed   = "failed"
)

// collectors
var (
	Submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "coordinator",
		Name:      "submissions_total",
		Help:      "Submit requests handled by the issuing authority.",
	}, []string{"result"})

	NotaryConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "coordinator",
		Name:      "notary_conflicts_total",
		Help:      "Transactions refused by the notary as double consumption.",
	})

	Retries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "coordinator",
		Name:      "retries_total",
		Help:      "Submissions restarted from dedup after a conflict.",
	})

	ValidationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "validator",
		Name:      "failures_total",
		Help:      "Transactions failing a contract rule.",
	}, []string{"rule"})

	CommitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "broadcast",
		Name:      "commit_seconds",
		Help:      "Time from prepare to the last commit acknowledgement.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
	})

	RelayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "requests_total",
		Help:      "Requests forwarded to the issuing authority.",
	}, []string{"result"})
)

// Register - add every collector to a registry
func Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		Submissions,
		NotaryConflicts,
		Retries,
		ValidationFailures,
		CommitSeconds,
		RelayRequests,
	}
	for _, c := range collectors {
		if err := r.Register(c); nil != err {
			return err
		}
	}
	return nil
}
