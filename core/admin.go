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
	"github.com/n3roai/go-n3ro/crypto"
	"github.com/n3roai/go-n3ro/params"
)

func validateScoreConfig(minConfidenceBps, alphaBps uint16) error {
	if minConfidenceBps > params.MaxBps {
		return ErrInvalidConfidence
	}
	if alphaBps == 0 || alphaBps > params.MaxBps {
		return ErrInvalidConfidence
	}
	return nil
}

func validateSettlementToken(mint common.Address, enforce bool) error {
	if enforce && isZeroAddress(mint) {
		return ErrInvalidAddress
	}
	return nil
}

// InitializeProtocol creates the protocol configuration with admin as its
// administrator.
func (p *Protocol) InitializeProtocol(admin common.Address, settings params.ProtocolSettings) error {
	return p.apply("admin/init", func(tx *txn) error {
		// An unreadable config still counts as initialized.
		if ok, err := rawdb.HasProtocolConfig(tx.db); err != nil {
			return err
		} else if ok {
			return ErrAlreadyInitialized
		}
		if settings.ProtocolFeeBps > params.MaxBps {
			return ErrInvalidBps
		}
		if err := validateScoreConfig(settings.MinConfidenceBps, settings.ScoreAlphaBps); err != nil {
			return err
		}
		if err := validateSettlementToken(settings.SettlementMint, settings.EnforceSettlementToken); err != nil {
			return err
		}
		cfg := types.NewProtocolConfig(admin, crypto.VaultAuthority(), settings)
		rawdb.WriteProtocolConfig(tx.db, cfg)
		p.log.Info("Initialized protocol", "admin", admin, "fee", cfg.ProtocolFeeBps, "vaultAuthority", cfg.VaultAuthority)
		return nil
	})
}

// SetRole grants or revokes kind for member. The slot is upserted, never removed.
func (p *Protocol) SetRole(caller common.Address, kind types.RoleKind, member common.Address, active bool) error {
	return p.apply("admin/role", func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		if err := requireAdmin(&cfg, caller); err != nil {
			return err
		}
		if !kind.IsValid() {
			return ErrInvalidRole
		}
		if isZeroAddress(member) {
			return ErrInvalidAddress
		}
		rawdb.WriteRoleAssignment(tx.db, &types.RoleAssignment{
			Member:    member,
			Role:      kind,
			Active:    active,
			UpdatedAt: tx.now,
		})
		p.log.Info("Updated role", "role", kind, "member", member, "active", active)
		return nil
	})
}

// updateConfig applies an admin-only mutation to the protocol configuration.
// Setters stay available while the protocol is paused.
func (p *Protocol) updateConfig(action string, caller common.Address, mutate func(*types.ProtocolConfig) error) error {
	return p.apply(action, func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		if err := requireAdmin(&cfg, caller); err != nil {
			return err
		}
		if err := mutate(&cfg); err != nil {
			return err
		}
		rawdb.WriteProtocolConfig(tx.db, &cfg)
		return nil
	})
}

// SetProtocolFee updates the protocol fee taken from every settlement.
func (p *Protocol) SetProtocolFee(caller common.Address, feeBps uint16) error {
	return p.updateConfig("admin/fee", caller, func(cfg *types.ProtocolConfig) error {
		if feeBps > params.MaxBps {
			return ErrInvalidBps
		}
		cfg.ProtocolFeeBps = feeBps
		return nil
	})
}

// SetSettlementToken updates the settlement mint and whether it is enforced.
func (p *Protocol) SetSettlementToken(caller common.Address, mint common.Address, enforce bool) error {
	return p.updateConfig("admin/token", caller, func(cfg *types.ProtocolConfig) error {
		if err := validateSettlementToken(mint, enforce); err != nil {
			return err
		}
		cfg.SettlementMint, cfg.EnforceSettlementToken = mint, enforce
		return nil
	})
}

// SetSettlementVault updates the account settlements are paid from.
func (p *Protocol) SetSettlementVault(caller common.Address, vault common.Address) error {
	return p.updateConfig("admin/vault", caller, func(cfg *types.ProtocolConfig) error {
		if isZeroAddress(vault) {
			return ErrInvalidAddress
		}
		cfg.SettlementVault = vault
		return nil
	})
}

// SetProtocolTreasury updates the account receiving protocol fees.
func (p *Protocol) SetProtocolTreasury(caller common.Address, treasury common.Address) error {
	return p.updateConfig("admin/treasury", caller, func(cfg *types.ProtocolConfig) error {
		if isZeroAddress(treasury) {
			return ErrInvalidAddress
		}
		cfg.ProtocolTreasury = treasury
		return nil
	})
}

// SetScoreConfig updates the scoring thresholds.
func (p *Protocol) SetScoreConfig(caller common.Address, minConfidenceBps, alphaBps uint16, maxSignalAge uint64) error {
	return p.updateConfig("admin/score", caller, func(cfg *types.ProtocolConfig) error {
		if err := validateScoreConfig(minConfidenceBps, alphaBps); err != nil {
			return err
		}
		cfg.MinConfidenceBps, cfg.ScoreAlphaBps, cfg.MaxSignalAge = minConfidenceBps, alphaBps, maxSignalAge
		return nil
	})
}

// SetRequireVerifiedForScore toggles the verification gate on scoring.
func (p *Protocol) SetRequireVerifiedForScore(caller common.Address, require bool) error {
	return p.updateConfig("admin/requireverified", caller, func(cfg *types.ProtocolConfig) error {
		cfg.RequireVerifiedForScore = require
		return nil
	})
}

// SetPaused pauses or resumes every non-admin action.
func (p *Protocol) SetPaused(caller common.Address, paused bool) error {
	err := p.updateConfig("admin/pause", caller, func(cfg *types.ProtocolConfig) error {
		cfg.Paused = paused
		return nil
	})
	if err == nil {
		p.log.Warn("Protocol pause state changed", "paused", paused)
	}
	return err
}
