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
package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// VerificationStatus is the position of an agent in the verification workflow.
type VerificationStatus uint8

const (
	StatusNone      VerificationStatus = 0
	StatusPending   VerificationStatus = 1
	StatusVerified  VerificationStatus = 2
	StatusRejected  VerificationStatus = 3
	StatusSuspended VerificationStatus = 4
)

var statusNames = [...]string{"none", "pending", "verified", "rejected", "suspended"}

func (s VerificationStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// IsDecision reports whether s may be set by a verification operator.
func (s VerificationStatus) IsDecision() bool {
	return s == StatusVerified || s == StatusRejected || s == StatusSuspended
}

// ParseVerificationStatus accepts either the status name or its numeric code.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range statusNames {
		if s == name || s == fmt.Sprint(i) {
			return VerificationStatus(i), nil
		}
	}
	return StatusNone, fmt.Errorf("unknown verification status %q", s)
}

// VerificationRecord is the single, overwritten verification state of an agent.
type VerificationRecord struct {
	Agent        uint64             `json:"agent"`
	Status       VerificationStatus `json:"status"`
	Operator     common.Address     `json:"operator"`
	UpdatedAt    uint64             `json:"updatedAt"`
	ExpiresAt    uint64             `json:"expiresAt"` // 0 = never
	EvidenceHash common.Hash        `json:"evidenceHash"`
	PolicyHash   common.Hash        `json:"policyHash"`
}

// IsVerified is the authoritative trust check: the record must be Verified and
// not past its expiry at time now.
func (r *VerificationRecord) IsVerified(now uint64) bool {
	if r == nil || r.Status != StatusVerified {
		return false
	}
	return r.ExpiresAt == 0 || r.ExpiresAt >= now
}
