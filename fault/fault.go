// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// store and protocol classes
type QueryError GenericError
type ConsistencyError GenericError
type ConflictError GenericError
type RejectedError GenericError
type TimeoutError GenericError
type TransportError GenericError
type RelayError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised      = ExistsError("already initialised")
	ErrCannotDecodeAccount     = InvalidError("cannot decode account")
	ErrCannotDecodePrivateKey  = InvalidError("cannot decode private key")
	ErrCannotRequest           = InvalidError("this node cannot request records")
	ErrChecksumMismatch        = InvalidError("checksum mismatch")
	ErrCommitTimeout           = TimeoutError("commit acknowledgement timed out")
	ErrConsumedByOther         = ConflictError("record version already consumed by another transaction")
	ErrDirectoryEmpty          = NotFoundError("directory has no parties")
	ErrDuplicateParty          = ExistsError("duplicate party in directory")
	ErrFingerprintTooLong      = InvalidError("fingerprint too long")
	ErrInvalidCount            = InvalidError("invalid count")
	ErrInvalidCursor           = InvalidError("invalid cursor")
	ErrInvalidIPAddress        = InvalidError("invalid IP address")
	ErrInvalidKeyLength        = InvalidError("invalid key length")
	ErrInvalidKeyType          = InvalidError("invalid key type")
	ErrInvalidLoggerChannel    = InvalidError("invalid logger channel")
	ErrInvalidPortNumber       = InvalidError("invalid port number")
	ErrInvalidPrivateKey       = InvalidError("invalid private key")
	ErrInvalidPrivateKeyFile   = InvalidError("invalid private key file")
	ErrInvalidPublicKey        = InvalidError("invalid public key")
	ErrInvalidPublicKeyFile    = InvalidError("invalid public key file")
	ErrInvalidRequestSignature = InvalidError("invalid request signature")
	ErrInvalidRole             = InvalidError("invalid role")
	ErrInvalidSignature        = InvalidError("invalid signature")
	ErrInvalidStatus           = InvalidError("invalid status")
	ErrInvalidStorageBackend   = InvalidError("invalid storage backend")
	ErrInvalidVersionId        = InvalidError("invalid version id")
	ErrKeyFileAlreadyExists    = ExistsError("key file already exists")
	ErrCertificateFileExists   = ExistsError("certificate file already exists")
	ErrMissingFingerprint      = InvalidError("missing fingerprint")
	ErrMissingIssuer           = NotFoundError("no issuing authority in directory")
	ErrMissingNotary           = NotFoundError("no notary in directory")
	ErrMissingParameters       = InvalidError("missing parameters")
	ErrNotConfigurationTable   = InvalidError("configuration did not return a table")
	ErrNotConnected            = TransportError("not connected")
	ErrNotLink                 = InvalidError("not a link")
	ErrNotInitialised          = NotFoundError("not initialised")
	ErrNotParticipant          = RejectedError("recipient is not a participant")
	ErrNotPrivateKey           = InvalidError("not a private key")
	ErrNotPublicKey            = InvalidError("not a public key")
	ErrNotTransactionPack      = InvalidError("not a transaction pack")
	ErrPartyNotFound           = NotFoundError("party not found")
	ErrRateLimiting            = ProcessError("rate limiting")
	ErrRecordNotFound          = NotFoundError("record not found")
	ErrRequestTimedOut         = TransportError("request timed out")
	ErrStagedNotFound          = NotFoundError("staged transaction not found")
	ErrStoreConsistency        = ConsistencyError("more than one unconsumed record for fingerprint")
	ErrTransactionInUse        = ProcessError("database transaction already in use")
	ErrTransactionNotFound     = NotFoundError("transaction not found")
	ErrUnexpectedReply         = TransportError("unexpected reply")
	ErrUnknownCommand          = InvalidError("unknown command")
	ErrUnknownIssuer           = RejectedError("record issuer is not the issuing authority")
	ErrUnrecognisedCommand     = InvalidError("unrecognised command")
	ErrWrongPassword           = InvalidError("wrong password")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string      { return string(e) }
func (e InvalidError) Error() string     { return string(e) }
func (e NotFoundError) Error() string    { return string(e) }
func (e ProcessError) Error() string     { return string(e) }
func (e QueryError) Error() string       { return string(e) }
func (e ConsistencyError) Error() string { return string(e) }
func (e ConflictError) Error() string    { return string(e) }
func (e RejectedError) Error() string    { return string(e) }
func (e TimeoutError) Error() string     { return string(e) }
func (e TransportError) Error() string   { return string(e) }
func (e RelayError) Error() string       { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool      { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool     { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool    { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool     { _, ok := e.(ProcessError); return ok }
func IsErrQuery(e error) bool       { _, ok := e.(QueryError); return ok }
func IsErrConsistency(e error) bool { _, ok := e.(ConsistencyError); return ok }
func IsErrConflict(e error) bool    { _, ok := e.(ConflictError); return ok }
func IsErrRejected(e error) bool    { _, ok := e.(RejectedError); return ok }
func IsErrTimeout(e error) bool     { _, ok := e.(TimeoutError); return ok }
func IsErrTransport(e error) bool   { _, ok := e.(TransportError); return ok }
func IsErrRelay(e error) bool       { _, ok := e.(RelayError); return ok }

// IsErrCommit - any failure of a multi-party commit
func IsErrCommit(e error) bool {
	return IsErrConflict(e) || IsErrRejected(e) || IsErrTimeout(e)
}
