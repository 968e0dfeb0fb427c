// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coordinator - the issuing authority's handling of a request
//
// a request to be recorded against a fingerprint either issues a new
// record or adds the requester to the single unconsumed record for
// that fingerprint; requests for one fingerprint are serialised
package coordinator

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/dedup"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/metrics"
	"github.com/bitmark-inc/registryd/record"
	"github.com/bitmark-inc/registryd/recordstore"
	"github.com/bitmark-inc/registryd/validator"
)

// DefaultNotaryRetries - restarts after a notary conflict
const DefaultNotaryRetries = 3

// Committer - delivers a signed transaction to its participants
type Committer interface {
	Commit(ctx context.Context, tx *record.Transaction, recipients []*account.Account) error
}

// Coordinator - runs on the issuing authority
type Coordinator struct {
	log       *logger.L
	key       *account.PrivateKey
	resolver  *dedup.Resolver
	committer Committer
	retries   int
	locks     *keyedLock
}

// New - create a coordinator signing with the issuer key
//
// a negative retries selects the default
func New(log *logger.L, key *account.PrivateKey, resolver *dedup.Resolver, committer Committer, retries int) *Coordinator {
	if retries < 0 {
		retries = DefaultNotaryRetries
	}
	return &Coordinator{
		log:       log,
		key:       key,
		resolver:  resolver,
		committer: committer,
		retries:   retries,
		locks:     newKeyedLock(),
	}
}

// Issuer - the account records are issued under
func (c *Coordinator) Issuer() *account.Account {
	return c.key.Account()
}

// Submit - record the requester against a fingerprint
//
// returns the version id of the record now including the requester
func (c *Coordinator) Submit(ctx context.Context, fingerprint string, requester *account.Account) (record.VersionId, error) {
	if "" == fingerprint {
		return record.VersionId{}, fault.ErrMissingFingerprint
	}
	if len(fingerprint) > record.MaxFingerprintLength {
		return record.VersionId{}, fault.ErrFingerprintTooLong
	}
	if nil == requester {
		return record.VersionId{}, fault.ErrMissingParameters
	}

	release, err := c.locks.acquire(ctx, fingerprint)
	if nil != err {
		metrics.Submissions.WithLabelValues(metrics.ResultFailed).Inc()
		return record.VersionId{}, err
	}
	defer release()

	attempt := 0
retry:
	for {
		tx, member, err := c.build(fingerprint, requester)
		if nil != err {
			c.count(err)
			return record.VersionId{}, err
		}
		if nil != member {
			c.log.Debugf("fingerprint: %q  requester: %s  already a participant", fingerprint, requester)
			err = c.redeliver(ctx, member, requester)
			if nil != err {
				c.log.Errorf("fingerprint: %q  redeliver: %s  error: %s", fingerprint, member.Link, err)
				c.count(err)
				return record.VersionId{}, err
			}
			metrics.Submissions.WithLabelValues(metrics.ResultMember).Inc()
			return member.Record.VersionId, nil
		}

		produced := tx.Output()
		err = c.committer.Commit(ctx, tx, produced.Participants)
		if nil == err {
			result := metrics.ResultIssued
			if record.AddParticipant == tx.Command {
				result = metrics.ResultJoined
			}
			metrics.Submissions.WithLabelValues(result).Inc()
			c.log.Infof("%s: fingerprint: %q  version: %s  participants: %d", tx.Command, fingerprint, produced.VersionId, len(produced.Participants))
			return produced.VersionId, nil
		}

		if fault.IsErrConflict(err) {
			metrics.NotaryConflicts.Inc()
			if attempt < c.retries {
				attempt += 1
				metrics.Retries.Inc()
				c.log.Warnf("fingerprint: %q  conflict: %s  retry: %d", fingerprint, err, attempt)
				continue retry
			}
		}

		c.log.Errorf("fingerprint: %q  commit error: %s", fingerprint, err)
		c.count(err)
		return record.VersionId{}, err
	}
}

// build the signed and validated transaction for one attempt
//
// if the requester is already a participant the current version is
// returned instead
func (c *Coordinator) build(fingerprint string, requester *account.Account) (*record.Transaction, *record.Version, error) {
	match, err := c.resolver.FindUnconsumed(fingerprint)
	if nil != err {
		return nil, nil, err
	}

	var tx *record.Transaction
	if nil == match {
		tx = record.NewIssue(record.NewRecord(fingerprint, c.key.Account(), record.NewVersionId(), requester))
	} else {
		if match.Record.HasParticipant(requester) {
			return nil, match, nil
		}
		tx = record.NewAddParticipant(match, match.Record.WithParticipant(requester))
	}

	err = tx.Sign(c.key)
	if nil != err {
		return nil, nil, err
	}

	err = validator.Validate(tx)
	if nil != err {
		metrics.ValidationFailures.WithLabelValues(fault.RuleOf(err)).Inc()
		c.log.Warnf("fingerprint: %q  validation: %s", fingerprint, err)
		return nil, nil, err
	}
	return tx, nil, nil
}

// send the transaction producing the current version to a requester
// that is already a participant
//
// the earlier commit may have failed after the issuer stored it, so
// success is only reported once the requester acknowledged holding it;
// every step of a repeated commit accepts the same transaction again
func (c *Coordinator) redeliver(ctx context.Context, current *record.Version, requester *account.Account) error {
	tx, err := c.resolver.Store.Transaction(current.Link)
	if nil != err {
		return recordstore.QueryFailed(err)
	}
	return c.committer.Commit(ctx, tx, []*account.Account{requester})
}

func (c *Coordinator) count(err error) {
	switch {
	case fault.IsErrValidation(err):
		metrics.Submissions.WithLabelValues(metrics.ResultInvalid).Inc()
	case fault.IsErrConflict(err):
		metrics.Submissions.WithLabelValues(metrics.ResultConflict).Inc()
	default:
		metrics.Submissions.WithLabelValues(metrics.ResultFailed).Inc()
	}
}
