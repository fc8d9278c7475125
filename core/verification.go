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

// getOrInitVerification returns the verification record of agent, or an empty
// record bound to the agent if none was stored yet. The empty record has
// status None and is never verified.
func (tx *txn) getOrInitVerification(agent uint64) *types.VerificationRecord {
	if rec := rawdb.ReadVerification(tx.db, agent); rec != nil {
		return rec
	}
	return &types.VerificationRecord{Agent: agent}
}

// RequestVerification moves an agent into Pending on behalf of its owner,
// clearing any previous operator decision.
func (p *Protocol) RequestVerification(caller common.Address, agent uint64, requestHash, policyHash common.Hash) error {
	return p.apply("verification/request", func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		if _, err := tx.ownedAgent(agent, caller); err != nil {
			return err
		}
		if err := requireNotPaused(&cfg); err != nil {
			return err
		}
		if isZeroHash(requestHash) {
			return ErrInvalidHash
		}
		rawdb.WriteVerification(tx.db, &types.VerificationRecord{
			Agent:        agent,
			Status:       types.StatusPending,
			UpdatedAt:    tx.now,
			EvidenceHash: requestHash,
			PolicyHash:   policyHash,
		})
		p.log.Debug("Verification requested", "agent", agent, "request", requestHash)
		return nil
	})
}

// SetVerificationStatus records an operator decision. The record is
// overwritten unconditionally, whatever its previous status.
func (p *Protocol) SetVerificationStatus(caller common.Address, agent uint64, status types.VerificationStatus, evidenceHash, policyHash common.Hash, expiresAt uint64) error {
	return p.apply("verification/status", func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		if _, err := tx.agent(agent); err != nil {
			return err
		}
		if err := requireNotPaused(&cfg); err != nil {
			return err
		}
		if err := tx.assertRole(caller, types.RoleVerificationOperator); err != nil {
			return err
		}
		if !status.IsDecision() {
			return ErrInvalidStatus
		}
		if isZeroHash(evidenceHash) {
			return ErrInvalidHash
		}
		rec := tx.getOrInitVerification(agent)
		rec.Status = status
		rec.Operator = caller
		rec.UpdatedAt = tx.now
		rec.ExpiresAt = expiresAt
		rec.EvidenceHash = evidenceHash
		rec.PolicyHash = policyHash
		rawdb.WriteVerification(tx.db, rec)
		p.log.Info("Verification status set", "agent", agent, "status", status, "operator", caller, "expires", expiresAt)
		return nil
	})
}

// IsVerified reports whether agent is verified at the current clock reading.
func (p *Protocol) IsVerified(agent uint64) bool {
	return p.Verification(agent).IsVerified(p.clock.Now())
}
