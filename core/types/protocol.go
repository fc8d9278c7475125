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

	"github.com/n3roai/go-n3ro/params"
)

// RoleKind is an authorization capability tag held by a role assignment.
type RoleKind uint8

const (
	RoleNone                 RoleKind = 0
	RoleVerificationOperator RoleKind = 1
	RoleOracle               RoleKind = 2
	RoleSignaler             RoleKind = 3
	RoleRevenueOperator      RoleKind = 4
)

// IsValid reports whether k is one of the four grantable role kinds.
func (k RoleKind) IsValid() bool {
	switch k {
	case RoleVerificationOperator, RoleOracle, RoleSignaler, RoleRevenueOperator:
		return true
	default:
		return false
	}
}

func (k RoleKind) String() string {
	switch k {
	case RoleVerificationOperator:
		return "verification-operator"
	case RoleOracle:
		return "oracle"
	case RoleSignaler:
		return "signaler"
	case RoleRevenueOperator:
		return "revenue-operator"
	default:
		return fmt.Sprintf("role(%d)", uint8(k))
	}
}

// ParseRoleKind accepts either the role name or its numeric code.
func ParseRoleKind(s string) (RoleKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k := RoleVerificationOperator; k <= RoleRevenueOperator; k++ {
		if s == k.String() || s == fmt.Sprint(uint8(k)) {
			return k, nil
		}
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// RoleAssignment is the (kind, member) slot granted by the admin. Revocation
// flips Active and never removes the record.
type RoleAssignment struct {
	Member    common.Address `json:"member"`
	Role      RoleKind       `json:"role"`
	Active    bool           `json:"active"`
	UpdatedAt uint64         `json:"updatedAt"`
}

// ProtocolConfig is the process-wide configuration record. It is created once
// by the admin and afterwards only changed through admin setters.
type ProtocolConfig struct {
	Admin                   common.Address `json:"admin"`
	SettlementMint          common.Address `json:"settlementMint"`
	SettlementVault         common.Address `json:"settlementVault"`
	ProtocolTreasury        common.Address `json:"protocolTreasury"`
	VaultAuthority          common.Address `json:"vaultAuthority"`
	ProtocolFeeBps          uint16         `json:"protocolFeeBps"`
	MinConfidenceBps        uint16         `json:"minConfidenceBps"`
	ScoreAlphaBps           uint16         `json:"scoreAlphaBps"`
	MaxSignalAge            uint64         `json:"maxSignalAge"` // seconds, 0 = unbounded
	RequireVerifiedForScore bool           `json:"requireVerifiedForScore"`
	EnforceSettlementToken  bool           `json:"enforceSettlementToken"`
	Paused                  bool           `json:"paused"`
}

// NewProtocolConfig builds an unpaused configuration owned by admin.
func NewProtocolConfig(admin, vaultAuthority common.Address, s params.ProtocolSettings) *ProtocolConfig {
	return &ProtocolConfig{
		Admin:                   admin,
		SettlementMint:          s.SettlementMint,
		SettlementVault:         s.SettlementVault,
		ProtocolTreasury:        s.ProtocolTreasury,
		VaultAuthority:          vaultAuthority,
		ProtocolFeeBps:          s.ProtocolFeeBps,
		MinConfidenceBps:        s.MinConfidenceBps,
		ScoreAlphaBps:           s.ScoreAlphaBps,
		MaxSignalAge:            s.MaxSignalAge,
		RequireVerifiedForScore: s.RequireVerifiedForScore,
		EnforceSettlementToken:  s.EnforceSettlementToken,
	}
}
