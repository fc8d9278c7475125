// Copyright 2018 The go-n3ro Authors
// This file is part of the go-n3ro library.
//
// The go-n3ro library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-n3ro library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-n3ro library. If not, see <http://www.gnu.org/licenses/>.
package core

import (
	"errors"
)

// Protocol errors. Every failed action returns exactly one of these (possibly
// wrapped) and leaves no state behind. The order of the list fixes the
// numeric code reported by ErrorCode.
var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInvalidAddress           = errors.New("invalid address")
	ErrInvalidRole              = errors.New("invalid role")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInvalidBps               = errors.New("invalid basis points")
	ErrInvalidHash              = errors.New("invalid hash")
	ErrInvalidConfidence        = errors.New("invalid confidence")
	ErrInvalidScore             = errors.New("invalid score")
	ErrInvalidStatus            = errors.New("invalid verification status")
	ErrURITooLong               = errors.New("uri too long")
	ErrProtocolPaused           = errors.New("protocol paused")
	ErrMathOverflow             = errors.New("math overflow")
	ErrVerificationRequired     = errors.New("verification required")
	ErrScoreAlreadySubmitted    = errors.New("score already submitted")
	ErrSignalTooOld             = errors.New("signal too old")
	ErrSettlementTokenMismatch  = errors.New("settlement token mismatch")
	ErrInvalidSettlementVault   = errors.New("invalid settlement vault")
	ErrInvalidTreasuryAccount   = errors.New("invalid treasury account")
	ErrInvalidTokenAccountOwner = errors.New("invalid token account owner")
	ErrInvalidTokenMint         = errors.New("invalid token mint")
)

// Record store errors.
var (
	ErrNotInitialized     = errors.New("protocol not initialized")
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrSignalNotFound     = errors.New("trade signal not found")
	ErrSignalExists       = errors.New("trade signal already exists")
	ErrSplitNotFound      = errors.New("revenue split not configured")
	ErrReceiptExists      = errors.New("distribution receipt already exists")
	ErrCorruptRecord      = errors.New("stored record unreadable")
)

const (
	protocolErrorBase = 6000
	storeErrorBase    = 7000
)

var (
	protocolErrors = []error{
		ErrUnauthorized, ErrInvalidAddress, ErrInvalidRole, ErrInvalidAmount, ErrInvalidBps,
		ErrInvalidHash, ErrInvalidConfidence, ErrInvalidScore, ErrInvalidStatus, ErrURITooLong,
		ErrProtocolPaused, ErrMathOverflow, ErrVerificationRequired, ErrScoreAlreadySubmitted,
		ErrSignalTooOld, ErrSettlementTokenMismatch, ErrInvalidSettlementVault,
		ErrInvalidTreasuryAccount, ErrInvalidTokenAccountOwner, ErrInvalidTokenMint,
	}
	storeErrors = []error{
		ErrNotInitialized, ErrAlreadyInitialized, ErrAgentNotFound, ErrSignalNotFound,
		ErrSignalExists, ErrSplitNotFound, ErrReceiptExists, ErrCorruptRecord,
	}
)

// ErrorCode returns the stable numeric code of a protocol or record store
// error, or 0 if err is neither.
func ErrorCode(err error) int {
	if err == nil {
		return 0
	}
	for i, e := range protocolErrors {
		if errors.Is(err, e) {
			return protocolErrorBase + i
		}
	}
	for i, e := range storeErrors {
		if errors.Is(err, e) {
			return storeErrorBase + i
		}
	}
	return 0
}
