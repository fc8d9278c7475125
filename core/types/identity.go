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
	"github.com/ethereum/go-ethereum/common"
)

// IdentityRegistry allocates agent ids.
type IdentityRegistry struct {
	Admin       common.Address `json:"admin"`
	NextAgentID uint64         `json:"nextAgentId"`
}

// AgentIdentity is the registered record of a trading agent.
type AgentIdentity struct {
	ID           uint64         `json:"id"`
	Owner        common.Address `json:"owner"`
	Wallet       common.Address `json:"wallet"`
	URI          string         `json:"uri"`
	MetadataHash common.Hash    `json:"metadataHash"`
	CreatedAt    uint64         `json:"createdAt"`
	UpdatedAt    uint64         `json:"updatedAt"`
}

// TokenAccount holds a balance of one mint on behalf of an owner.
type TokenAccount struct {
	Address common.Address `json:"address"`
	Owner   common.Address `json:"owner"`
	Mint    common.Address `json:"mint"`
	Balance uint64         `json:"balance"`
}
