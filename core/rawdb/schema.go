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
// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/n3roai/go-n3ro/core/types"
)

// The fields below define the low level database schema prefixing.
var (
	// registryKey tracks the identity registry singleton.
	registryKey = []byte("IdentityRegistry")

	// protocolKey tracks the protocol configuration singleton.
	protocolKey = []byte("ProtocolConfig")

	agentPrefix        = []byte("a") // agentPrefix + id (uint64 big endian) -> AgentIdentity
	rolePrefix         = []byte("r") // rolePrefix + kind + member -> RoleAssignment
	verificationPrefix = []byte("v") // verificationPrefix + id -> VerificationRecord
	signalPrefix       = []byte("s") // signalPrefix + id + trade id hash -> TradeSignal
	reputationPrefix   = []byte("q") // reputationPrefix + id -> ReputationState
	splitPrefix        = []byte("x") // splitPrefix + id -> RevenueSplitConfig
	receiptPrefix      = []byte("d") // receiptPrefix + id + reference -> DistributionReceipt
	tokenAccountPrefix = []byte("t") // tokenAccountPrefix + address -> TokenAccount
)

// encodeAgentID encodes an agent id as big endian uint64
func encodeAgentID(id uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, id)
	return enc
}

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	key := make([]byte, 0, n)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// agentKey = agentPrefix + id
func agentKey(id uint64) []byte {
	return concat(agentPrefix, encodeAgentID(id))
}

// roleKey = rolePrefix + kind + member
func roleKey(kind types.RoleKind, member common.Address) []byte {
	return concat(rolePrefix, []byte{byte(kind)}, member.Bytes())
}

// verificationKey = verificationPrefix + id
func verificationKey(id uint64) []byte {
	return concat(verificationPrefix, encodeAgentID(id))
}

// signalKey = signalPrefix + id + tradeIDHash
func signalKey(id uint64, tradeIDHash common.Hash) []byte {
	return concat(signalPrefix, encodeAgentID(id), tradeIDHash.Bytes())
}

// reputationKey = reputationPrefix + id
func reputationKey(id uint64) []byte {
	return concat(reputationPrefix, encodeAgentID(id))
}

// splitKey = splitPrefix + id
func splitKey(id uint64) []byte {
	return concat(splitPrefix, encodeAgentID(id))
}

// receiptKey = receiptPrefix + id + reference
func receiptKey(id uint64, reference common.Hash) []byte {
	return concat(receiptPrefix, encodeAgentID(id), reference.Bytes())
}

// tokenAccountKey = tokenAccountPrefix + address
func tokenAccountKey(addr common.Address) []byte {
	return concat(tokenAccountPrefix, addr.Bytes())
}
