// Copyright 2024 The go-n3ro Authors
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

package params

import "github.com/ethereum/go-ethereum/common"

const (
	MaxBps    = 10_000 // 100% expressed in basis points
	MaxURILen = 256    // Maximum agent URI length in bytes

	MaxScore = MaxBps // Trade scores share the basis-point range
)

// Seeds used to derive program-owned addresses.
var (
	VaultAuthoritySeed = []byte("vault-authority")
	TokenAccountSeed   = []byte("token-account")
)

// ProtocolSettings is the initial configuration handed to initializeProtocol.
// It is also the [Protocol] section of the node configuration file.
type ProtocolSettings struct {
	SettlementMint          common.Address
	SettlementVault         common.Address
	ProtocolTreasury        common.Address
	ProtocolFeeBps          uint16
	MinConfidenceBps        uint16
	ScoreAlphaBps           uint16
	MaxSignalAge            uint64 // seconds, 0 disables the age check
	RequireVerifiedForScore bool
	EnforceSettlementToken  bool
}

// DefaultProtocolSettings mirrors the values used by the reference deployment.
// Settlement token enforcement stays off until a SettlementMint is configured,
// so the defaults initialize as is.
var DefaultProtocolSettings = ProtocolSettings{
	ProtocolFeeBps:          500,  // 5%
	MinConfidenceBps:        5000, // 50%
	ScoreAlphaBps:           2000, // 20% weight on the newest score
	MaxSignalAge:            7 * 24 * 3600,
	RequireVerifiedForScore: true,
	EnforceSettlementToken:  false,
}
