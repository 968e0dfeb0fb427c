// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// ValidationError - a transaction broke a contract rule
//
// only the rule identifier and message ever leave the node
type ValidationError struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// NewValidationError - create a validation error for a rule
func NewValidationError(rule string, message string) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	return e.Rule + ": " + e.Message
}

// IsErrValidation - true if the error is a contract rule failure
func IsErrValidation(e error) bool {
	_, ok := e.(*ValidationError)
	return ok
}

// RuleOf - return the rule id of a validation error or blank
func RuleOf(e error) string {
	if v, ok := e.(*ValidationError); ok {
		return v.Rule
	}
	return ""
}
