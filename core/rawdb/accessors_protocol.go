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
package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/n3roai/go-n3ro/core/types"
)

// readRLP decodes the value stored under key into val. It returns false if the
// key is missing or the stored blob is unreadable. Create-only guards must use
// the Has* accessors, which surface store errors.
func readRLP(db ethdb.KeyValueReader, key []byte, val interface{}, what string) bool {
	if ok, err := db.Has(key); err != nil {
		log.Error("Failed to check record", "kind", what, "key", common.Bytes2Hex(key), "err", err)
		return false
	} else if !ok {
		return false
	}
	data, err := db.Get(key)
	if err != nil {
		log.Error("Failed to read record", "kind", what, "key", common.Bytes2Hex(key), "err", err)
		return false
	}
	if err := rlp.DecodeBytes(data, val); err != nil {
		log.Error("Invalid record RLP", "kind", what, "key", common.Bytes2Hex(key), "err", err)
		return false
	}
	return true
}

func writeRLP(db ethdb.KeyValueWriter, key []byte, val interface{}, what string) {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		log.Crit("Failed to RLP encode record", "kind", what, "err", err)
	}
	if err := db.Put(key, data); err != nil {
		log.Crit("Failed to store record", "kind", what, "err", err)
	}
}

// ReadIdentityRegistry retrieves the identity registry singleton.
func ReadIdentityRegistry(db ethdb.KeyValueReader) *types.IdentityRegistry {
	var reg types.IdentityRegistry
	if !readRLP(db, registryKey, &reg, "registry") {
		return nil
	}
	return &reg
}

// WriteIdentityRegistry stores the identity registry singleton.
func WriteIdentityRegistry(db ethdb.KeyValueWriter, reg *types.IdentityRegistry) {
	writeRLP(db, registryKey, reg, "registry")
}

// HasIdentityRegistry reports whether the identity registry was created. A
// stored but unreadable record still counts as present.
func HasIdentityRegistry(db ethdb.KeyValueReader) (bool, error) {
	return db.Has(registryKey)
}

// HasProtocolConfig reports whether the protocol was initialized. A stored but
// unreadable record still counts as present.
func HasProtocolConfig(db ethdb.KeyValueReader) (bool, error) {
	return db.Has(protocolKey)
}

// ReadProtocolConfig retrieves the protocol configuration, nil if the protocol
// was never initialized.
func ReadProtocolConfig(db ethdb.KeyValueReader) *types.ProtocolConfig {
	var cfg types.ProtocolConfig
	if !readRLP(db, protocolKey, &cfg, "protocol") {
		return nil
	}
	return &cfg
}

// WriteProtocolConfig stores the protocol configuration.
func WriteProtocolConfig(db ethdb.KeyValueWriter, cfg *types.ProtocolConfig) {
	writeRLP(db, protocolKey, cfg, "protocol")
}

// ReadAgent retrieves an agent identity by id.
func ReadAgent(db ethdb.KeyValueReader, id uint64) *types.AgentIdentity {
	var agent types.AgentIdentity
	if !readRLP(db, agentKey(id), &agent, "agent") {
		return nil
	}
	return &agent
}

// WriteAgent stores an agent identity.
func WriteAgent(db ethdb.KeyValueWriter, agent *types.AgentIdentity) {
	writeRLP(db, agentKey(agent.ID), agent, "agent")
}

// ReadRoleAssignment retrieves the role slot of member for the given kind.
func ReadRoleAssignment(db ethdb.KeyValueReader, kind types.RoleKind, member common.Address) *types.RoleAssignment {
	var role types.RoleAssignment
	if !readRLP(db, roleKey(kind, member), &role, "role") {
		return nil
	}
	return &role
}

// WriteRoleAssignment stores a role slot.
func WriteRoleAssignment(db ethdb.KeyValueWriter, role *types.RoleAssignment) {
	writeRLP(db, roleKey(role.Role, role.Member), role, "role")
}

// ReadTokenAccount retrieves a token account by address.
func ReadTokenAccount(db ethdb.KeyValueReader, addr common.Address) *types.TokenAccount {
	var acct types.TokenAccount
	if !readRLP(db, tokenAccountKey(addr), &acct, "token account") {
		return nil
	}
	return &acct
}

// HasTokenAccount reports whether a token account exists at addr.
func HasTokenAccount(db ethdb.KeyValueReader, addr common.Address) (bool, error) {
	return db.Has(tokenAccountKey(addr))
}

// WriteTokenAccount stores a token account.
func WriteTokenAccount(db ethdb.KeyValueWriter, acct *types.TokenAccount) {
	writeRLP(db, tokenAccountKey(acct.Address), acct, "token account")
}
