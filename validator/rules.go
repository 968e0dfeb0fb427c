// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validator

// rule identifiers, these are the only detail that leaves a node
const (
	RuleRecordShape      = "record.shape"
	RuleSignatureInvalid = "signature.invalid"
	RuleUnrecognised     = "command.unrecognised"

	RuleIssueNoInputs             = "issue.no-inputs"
	RuleIssueSingleOutput         = "issue.single-output"
	RuleIssueSingleSignature      = "issue.single-signature"
	RuleIssueIssuerSigns          = "issue.issuer-signs"
	RuleIssueIssuerNotParticipant = "issue.issuer-not-participant"
	RuleIssueParticipantNotSigner = "issue.participant-not-signer"

	RuleAddSingleInput          = "add.single-input"
	RuleAddSingleSignature      = "add.single-signature"
	RuleAddIssuerSigns          = "add.issuer-signs"
	RuleAddIssuerNotParticipant = "add.issuer-not-participant"
	RuleAddParticipantNotSigner = "add.participant-not-signer"
	RuleAddParticipantsSuperset = "add.participants-superset"
	RuleAddFingerprintUnchanged = "add.fingerprint-unchanged"
	RuleAddVersionUnchanged     = "add.version-unchanged"
	RuleAddIssuerUnchanged      = "add.issuer-unchanged"
)
