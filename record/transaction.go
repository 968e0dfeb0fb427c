// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package record

import (
	"github.com/bitmark-inc/registryd/account"
)

// Packed - packed transactions are just a byte slice
type Packed []byte

// Signature - one signer and its signature over the message
type Signature struct {
	Signer    *account.Account  `json:"signer"`
	Signature account.Signature `json:"signature"`
}

// Transaction - consumes zero or one version and produces records
type Transaction struct {
	Command    Command      `json:"command"`
	Consumed   []*Version   `json:"consumed"`
	Produced   []*Record    `json:"produced"`
	Signatures []*Signature `json:"signatures"`
}

// NewIssue - unsigned transaction creating a record
func NewIssue(produced *Record) *Transaction {
	return &Transaction{
		Command:  Issue,
		Consumed: []*Version{},
		Produced: []*Record{produced},
	}
}

// NewAddParticipant - unsigned transaction extending a record
func NewAddParticipant(consumed *Version, produced *Record) *Transaction {
	return &Transaction{
		Command:  AddParticipant,
		Consumed: []*Version{consumed},
		Produced: []*Record{produced},
	}
}

// Sign - append a signature by the private key over the message
func (tx *Transaction) Sign(privateKey *account.PrivateKey) error {
	message, err := tx.Message()
	if nil != err {
		return err
	}
	tx.Signatures = append(tx.Signatures, &Signature{
		Signer:    privateKey.Account(),
		Signature: privateKey.Sign(message),
	})
	return nil
}

// Link - the transaction id
func (tx *Transaction) Link() (Link, error) {
	packed, err := tx.Pack()
	if nil != err {
		return Link{}, err
	}
	return packed.MakeLink(), nil
}

// Output - the single produced record or nil
func (tx *Transaction) Output() *Record {
	if 1 != len(tx.Produced) {
		return nil
	}
	return tx.Produced[0]
}
