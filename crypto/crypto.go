// Copyright 2014 The go-n3ro Authors
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

package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/n3roai/go-n3ro/params"
)

// CreateProgramAddress derives a deterministic address from the given seeds.
// Nobody holds a key for such an address; only the protocol can act for it.
func CreateProgramAddress(seeds ...[]byte) common.Address {
	return common.BytesToAddress(crypto.Keccak256(seeds...)[12:])
}

// VaultAuthority is the custodian of the settlement vault.
func VaultAuthority() common.Address {
	return CreateProgramAddress(params.VaultAuthoritySeed)
}

// AssociatedTokenAccount returns the canonical token account address of owner
// for the given mint.
func AssociatedTokenAccount(owner, mint common.Address) common.Address {
	return CreateProgramAddress(params.TokenAccountSeed, owner.Bytes(), mint.Bytes())
}
