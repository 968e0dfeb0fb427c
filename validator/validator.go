// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validator

import (
	"github.com/bitmark-inc/registryd/account"
	"github.com/bitmark-inc/registryd/fault"
	"github.com/bitmark-inc/registryd/record"
)

// per command rule identifiers that differ only by prefix
type commandRules struct {
	singleSignature      string
	issuerSigns          string
	issuerNotParticipant string
	participantNotSigner string
}

var issueRules = commandRules{
	singleSignature:      RuleIssueSingleSignature,
	issuerSigns:          RuleIssueIssuerSigns,
	issuerNotParticipant: RuleIssueIssuerNotParticipant,
	participantNotSigner: RuleIssueParticipantNotSigner,
}

var addRules = commandRules{
	singleSignature:      RuleAddSingleSignature,
	issuerSigns:          RuleAddIssuerSigns,
	issuerNotParticipant: RuleAddIssuerNotParticipant,
	participantNotSigner: RuleAddParticipantNotSigner,
}

// Validate - check a transaction against the rules of its command
//
// pure: the result depends only on the transaction
func Validate(tx *record.Transaction) error {
	if nil == tx {
		return fault.NewValidationError(RuleRecordShape, "missing transaction")
	}

	switch tx.Command {
	case record.Issue:
		return validateIssue(tx)
	case record.AddParticipant:
		return validateAddParticipant(tx)
	default:
		return fault.NewValidationError(RuleUnrecognised, "unrecognised command: "+tx.Command.String())
	}
}

func validateIssue(tx *record.Transaction) error {
	if 0 != len(tx.Consumed) {
		return fault.NewValidationError(RuleIssueNoInputs, "issue must not consume any record")
	}
	if 1 != len(tx.Produced) {
		return fault.NewValidationError(RuleIssueSingleOutput, "issue must produce exactly one record")
	}
	produced := tx.Produced[0]
	if err := checkShape(produced); nil != err {
		return err
	}
	return checkSigning(tx, produced, issueRules)
}

func validateAddParticipant(tx *record.Transaction) error {
	if 1 != len(tx.Consumed) || 1 != len(tx.Produced) {
		return fault.NewValidationError(RuleAddSingleInput, "add participant must consume one record and produce one record")
	}
	consumed := tx.Consumed[0]
	if nil == consumed {
		return fault.NewValidationError(RuleRecordShape, "missing consumed version")
	}
	if err := checkShape(consumed.Record); nil != err {
		return err
	}
	produced := tx.Produced[0]
	if err := checkShape(produced); nil != err {
		return err
	}

	if err := checkSigning(tx, produced, addRules); nil != err {
		return err
	}

	before := consumed.Record
	for _, p := range before.Participants {
		if !produced.HasParticipant(p) {
			return fault.NewValidationError(RuleAddParticipantsSuperset, "participant removed: "+p.String())
		}
	}
	if before.Fingerprint != produced.Fingerprint {
		return fault.NewValidationError(RuleAddFingerprintUnchanged, "fingerprint changed")
	}
	if before.VersionId != produced.VersionId {
		return fault.NewValidationError(RuleAddVersionUnchanged, "version id changed")
	}
	if !before.Issuer.Equal(produced.Issuer) {
		return fault.NewValidationError(RuleAddIssuerUnchanged, "issuer changed")
	}
	return nil
}

func checkShape(r *record.Record) error {
	if nil == r {
		return fault.NewValidationError(RuleRecordShape, "missing record")
	}
	if "" == r.Fingerprint {
		return fault.NewValidationError(RuleRecordShape, "missing fingerprint")
	}
	if len(r.Fingerprint) > record.MaxFingerprintLength {
		return fault.NewValidationError(RuleRecordShape, "fingerprint too long")
	}
	if nil == r.Issuer {
		return fault.NewValidationError(RuleRecordShape, "missing issuer")
	}
	if r.VersionId.IsZero() {
		return fault.NewValidationError(RuleRecordShape, "missing version id")
	}
	for _, p := range r.Participants {
		if nil == p {
			return fault.NewValidationError(RuleRecordShape, "missing participant")
		}
	}
	if !r.IsCanonical() {
		return fault.NewValidationError(RuleRecordShape, "participants not a sorted set")
	}
	return nil
}

// the issuer is never a participant, no participant signs, and
// there is one good signature, the issuer's
func checkSigning(tx *record.Transaction, produced *record.Record, rules commandRules) error {
	if produced.HasParticipant(produced.Issuer) {
		return fault.NewValidationError(rules.issuerNotParticipant, "issuer is a participant")
	}

	// checked over every signature so a co-signing holder is named
	if signer := participantSigner(produced, tx.Signatures); nil != signer {
		return fault.NewValidationError(rules.participantNotSigner, "participant signed: "+signer.String())
	}

	if 1 != len(tx.Signatures) || nil == tx.Signatures[0] || nil == tx.Signatures[0].Signer {
		return fault.NewValidationError(rules.singleSignature, "exactly one signature is required")
	}
	signer := tx.Signatures[0].Signer

	if !signer.Equal(produced.Issuer) {
		return fault.NewValidationError(rules.issuerSigns, "signer is not the issuer: "+signer.String())
	}

	message, err := tx.Message()
	if nil != err {
		return fault.NewValidationError(RuleRecordShape, err.Error())
	}
	if err := signer.CheckSignature(message, tx.Signatures[0].Signature); nil != err {
		return fault.NewValidationError(RuleSignatureInvalid, "signature does not verify")
	}
	return nil
}

func participantSigner(r *record.Record, signatures []*record.Signature) *account.Account {
	for _, s := range signatures {
		if nil == s || nil == s.Signer {
			continue
		}
		if r.HasParticipant(s.Signer) {
			return s.Signer
		}
	}
	return nil
}
