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

	"github.com/n3roai/go-n3ro/common/math"
	"github.com/n3roai/go-n3ro/core/rawdb"
	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/params"
)

// InitializeRegistry creates the identity registry owned by admin. Agent ids
// start at 1.
func (p *Protocol) InitializeRegistry(admin common.Address) error {
	return p.apply("identity/init", func(tx *txn) error {
		if ok, err := rawdb.HasIdentityRegistry(tx.db); err != nil {
			return err
		} else if ok {
			return ErrAlreadyInitialized
		}
		rawdb.WriteIdentityRegistry(tx.db, &types.IdentityRegistry{Admin: admin, NextAgentID: 1})
		p.log.Info("Initialized identity registry", "admin", admin)
		return nil
	})
}

// RegisterAgent allocates the next agent id to owner.
func (p *Protocol) RegisterAgent(owner, wallet common.Address, uri string, metadataHash common.Hash) (id uint64, err error) {
	err = p.apply("identity/register", func(tx *txn) error {
		reg := rawdb.ReadIdentityRegistry(tx.db)
		if reg == nil {
			return ErrNotInitialized
		}
		if isZeroAddress(wallet) {
			return ErrInvalidAddress
		}
		if len(uri) > params.MaxURILen {
			return ErrURITooLong
		}
		id = reg.NextAgentID
		next, err := math.SafeAdd(reg.NextAgentID, 1)
		if err != nil {
			return overflow(err)
		}
		reg.NextAgentID = next
		rawdb.WriteIdentityRegistry(tx.db, reg)
		rawdb.WriteAgent(tx.db, &types.AgentIdentity{
			ID:           id,
			Owner:        owner,
			Wallet:       wallet,
			URI:          uri,
			MetadataHash: metadataHash,
			CreatedAt:    tx.now,
			UpdatedAt:    tx.now,
		})
		p.log.Debug("Registered agent", "id", id, "owner", owner, "wallet", wallet)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// updateAgent applies mutate to an agent owned by caller and bumps UpdatedAt.
func (p *Protocol) updateAgent(action string, caller common.Address, id uint64, mutate func(*types.AgentIdentity) error) error {
	return p.apply(action, func(tx *txn) error {
		agent, err := tx.ownedAgent(id, caller)
		if err != nil {
			return err
		}
		if err := mutate(agent); err != nil {
			return err
		}
		agent.UpdatedAt = tx.now
		rawdb.WriteAgent(tx.db, agent)
		return nil
	})
}

// SetAgentWallet replaces the payout wallet of an agent.
func (p *Protocol) SetAgentWallet(caller common.Address, id uint64, wallet common.Address) error {
	return p.updateAgent("identity/wallet", caller, id, func(agent *types.AgentIdentity) error {
		if isZeroAddress(wallet) {
			return ErrInvalidAddress
		}
		agent.Wallet = wallet
		return nil
	})
}

// SetAgentURI replaces the metadata URI of an agent.
func (p *Protocol) SetAgentURI(caller common.Address, id uint64, uri string) error {
	return p.updateAgent("identity/uri", caller, id, func(agent *types.AgentIdentity) error {
		if len(uri) > params.MaxURILen {
			return ErrURITooLong
		}
		agent.URI = uri
		return nil
	})
}

// SetAgentMetadataHash replaces the metadata hash of an agent.
func (p *Protocol) SetAgentMetadataHash(caller common.Address, id uint64, hash common.Hash) error {
	return p.updateAgent("identity/metadata", caller, id, func(agent *types.AgentIdentity) error {
		agent.MetadataHash = hash
		return nil
	})
}
