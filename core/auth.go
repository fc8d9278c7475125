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
	"github.com/ethereum/go-ethereum/common"

	"github.com/n3roai/go-n3ro/core/rawdb"
	"github.com/n3roai/go-n3ro/core/types"
)

// AssertRole succeeds iff the assignment is active, of the required kind and
// held by caller. A missing assignment is unauthorized.
func AssertRole(assignment *types.RoleAssignment, caller common.Address, required types.RoleKind) error {
	if assignment == nil || !assignment.Active {
		return ErrUnauthorized
	}
	if assignment.Role != required {
		return ErrUnauthorized
	}
	if assignment.Member != caller {
		return ErrUnauthorized
	}
	return nil
}

func requireNotPaused(cfg *types.ProtocolConfig) error {
	if cfg.Paused {
		return ErrProtocolPaused
	}
	return nil
}

func requireAdmin(cfg *types.ProtocolConfig, caller common.Address) error {
	if cfg.Admin != caller {
		return ErrUnauthorized
	}
	return nil
}

// assertRole checks caller against its own slot for the required kind.
func (tx *txn) assertRole(caller common.Address, required types.RoleKind) error {
	return AssertRole(rawdb.ReadRoleAssignment(tx.db, required, caller), caller, required)
}

func isZeroHash(h common.Hash) bool {
	return h == (common.Hash{})
}

func isZeroAddress(a common.Address) bool {
	return a == (common.Address{})
}
