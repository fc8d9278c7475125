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

// SplitParams is the revenue split an agent owner configures.
type SplitParams struct {
	Platform     common.Address
	PlatformBps  uint16
	Referrer     common.Address
	ReferrerBps  uint16
	ReserveVault common.Address
	ReserveBps   uint16
}

// SettlementAccounts names the token accounts a distribution touches. The
// platform, referrer and reserve accounts are only inspected when the split
// assigns that party a non-zero share.
type SettlementAccounts struct {
	Vault    common.Address // settlement source
	Treasury common.Address // protocol fee destination
	Agent    common.Address // agent payout destination
	Platform common.Address
	Referrer common.Address
	Reserve  common.Address
}

// ValidateSplit checks that the three shares fit in 10000 bps and that every
// party with a share has an identity.
func ValidateSplit(s SplitParams) error {
	total, err := math.SumBps(s.PlatformBps, s.ReferrerBps, s.ReserveBps)
	if err != nil {
		return overflow(err)
	}
	if total > params.MaxBps {
		return ErrInvalidBps
	}
	if s.PlatformBps > 0 && isZeroAddress(s.Platform) {
		return ErrInvalidAddress
	}
	if s.ReferrerBps > 0 && isZeroAddress(s.Referrer) {
		return ErrInvalidAddress
	}
	if s.ReserveBps > 0 && isZeroAddress(s.ReserveVault) {
		return ErrInvalidAddress
	}
	return nil
}

// SetSplit creates or overwrites the revenue split of an agent.
func (p *Protocol) SetSplit(caller common.Address, agent uint64, split SplitParams) error {
	return p.apply("settlement/split", func(tx *txn) error {
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
		if err := ValidateSplit(split); err != nil {
			return err
		}
		rawdb.WriteSplit(tx.db, &types.RevenueSplitConfig{
			Agent:        agent,
			Platform:     split.Platform,
			PlatformBps:  split.PlatformBps,
			Referrer:     split.Referrer,
			ReferrerBps:  split.ReferrerBps,
			ReserveVault: split.ReserveVault,
			ReserveBps:   split.ReserveBps,
		})
		p.log.Debug("Revenue split updated", "agent", agent,
			"platform", split.PlatformBps, "referrer", split.ReferrerBps, "reserve", split.ReserveBps)
		return nil
	})
}

// PartitionSettlement splits amount into the five payouts. Every share is
// floor(amount*bps/10000) of the full amount and the agent receives the
// remainder, so the parts always sum to amount.
func PartitionSettlement(amount uint64, split *types.RevenueSplitConfig, protocolFeeBps uint16) (types.Partition, error) {
	total, err := math.SumBps(split.PlatformBps, split.ReferrerBps, split.ReserveBps, protocolFeeBps)
	if err != nil {
		return types.Partition{}, overflow(err)
	}
	if total > params.MaxBps {
		return types.Partition{}, ErrInvalidBps
	}
	var part types.Partition
	for _, share := range []struct {
		out *uint64
		bps uint16
	}{
		{&part.Platform, split.PlatformBps},
		{&part.Referrer, split.ReferrerBps},
		{&part.Reserve, split.ReserveBps},
		{&part.Protocol, protocolFeeBps},
	} {
		if *share.out, err = math.MulDivBps(amount, share.bps); err != nil {
			return types.Partition{}, overflow(err)
		}
	}
	if part.Agent, err = math.SafeSubChain(amount, part.Platform, part.Referrer, part.Reserve, part.Protocol); err != nil {
		return types.Partition{}, overflow(err)
	}
	return part, nil
}

// checkBindings verifies that the supplied token accounts are the ones the
// protocol, the split and the agent registration expect. Nothing is moved
// until every check passed.
func (tx *txn) checkBindings(cfg *types.ProtocolConfig, split *types.RevenueSplitConfig, agent *types.AgentIdentity, accts SettlementAccounts) error {
	if accts.Vault != cfg.SettlementVault {
		return ErrInvalidSettlementVault
	}
	if accts.Treasury != cfg.ProtocolTreasury {
		return ErrInvalidTreasuryAccount
	}
	vault, err := tx.ledger.Account(accts.Vault)
	if err != nil {
		return err
	}
	treasury, err := tx.ledger.Account(accts.Treasury)
	if err != nil {
		return err
	}
	payout, err := tx.ledger.Account(accts.Agent)
	if err != nil {
		return err
	}
	if cfg.EnforceSettlementToken && vault.Mint != cfg.SettlementMint {
		return ErrSettlementTokenMismatch
	}
	if vault.Owner != cfg.VaultAuthority {
		return ErrInvalidTokenAccountOwner
	}
	if payout.Owner != agent.Wallet {
		return ErrInvalidTokenAccountOwner
	}
	if payout.Mint != vault.Mint {
		return ErrInvalidTokenMint
	}
	for _, party := range []struct {
		bps   uint16
		owner common.Address
		acct  common.Address
	}{
		{split.PlatformBps, split.Platform, accts.Platform},
		{split.ReferrerBps, split.Referrer, accts.Referrer},
		{split.ReserveBps, split.ReserveVault, accts.Reserve},
	} {
		if party.bps == 0 {
			continue
		}
		dst, err := tx.ledger.Account(party.acct)
		if err != nil {
			return err
		}
		if dst.Owner != party.owner {
			return ErrInvalidTokenAccountOwner
		}
		if dst.Mint != vault.Mint {
			return ErrInvalidTokenMint
		}
	}
	if treasury.Mint != vault.Mint {
		return ErrInvalidTokenMint
	}
	return nil
}

// DistributeSettlement pays amount out of the settlement vault according to
// the agent's split and the protocol fee, then records a receipt under
// (agent, reference). A reference can be distributed at most once per agent.
func (p *Protocol) DistributeSettlement(caller common.Address, agentID uint64, reference common.Hash, amount uint64, accts SettlementAccounts) (part types.Partition, err error) {
	err = p.apply("settlement/distribute", func(tx *txn) error {
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		agent, err := tx.agent(agentID)
		if err != nil {
			return err
		}
		split := rawdb.ReadSplit(tx.db, agentID)
		if split == nil {
			return ErrSplitNotFound
		}
		// The receipt is the idempotency key, refuse before moving funds
		if err := tx.receiptAbsent(agentID, reference); err != nil {
			return err
		}
		if err := requireNotPaused(&cfg); err != nil {
			return err
		}
		if err := tx.assertRole(caller, types.RoleRevenueOperator); err != nil {
			return err
		}
		if isZeroHash(reference) {
			return ErrInvalidHash
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if err := tx.checkBindings(&cfg, split, agent, accts); err != nil {
			return err
		}
		if part, err = PartitionSettlement(amount, split, cfg.ProtocolFeeBps); err != nil {
			return err
		}
		for _, payout := range []struct {
			dst    common.Address
			amount uint64
		}{
			{accts.Platform, part.Platform},
			{accts.Referrer, part.Referrer},
			{accts.Reserve, part.Reserve},
			{accts.Treasury, part.Protocol},
			{accts.Agent, part.Agent},
		} {
			if err := tx.ledger.Transfer(accts.Vault, payout.dst, cfg.VaultAuthority, payout.amount); err != nil {
				return overflow(err)
			}
		}
		if err := tx.receiptAbsent(agentID, reference); err != nil {
			return err
		}
		rawdb.WriteReceipt(tx.db, &types.DistributionReceipt{
			Agent:         agentID,
			Reference:     reference,
			Amount:        amount,
			Operator:      caller,
			DistributedAt: tx.now,
		})
		settlementVolumeCounter.Inc(int64(amount))
		settlementFeeCounter.Inc(int64(part.Protocol))
		p.log.Info("Settlement distributed", "agent", agentID, "reference", reference, "amount", amount,
			"platform", part.Platform, "referrer", part.Referrer, "reserve", part.Reserve,
			"protocol", part.Protocol, "agentShare", part.Agent)
		return nil
	})
	if err != nil {
		return types.Partition{}, err
	}
	return part, nil
}

// receiptAbsent fails unless no receipt is stored for (agent, reference). A
// store error is returned as is so that a duplicate is never let through.
func (tx *txn) receiptAbsent(agent uint64, reference common.Hash) error {
	ok, err := rawdb.HasReceipt(tx.db, agent, reference)
	if err != nil {
		return err
	}
	if ok {
		return ErrReceiptExists
	}
	return nil
}
