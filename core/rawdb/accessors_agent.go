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

// ReadVerification retrieves the verification record of an agent.
func ReadVerification(db ethdb.KeyValueReader, agent uint64) *types.VerificationRecord {
	var rec types.VerificationRecord
	if !readRLP(db, verificationKey(agent), &rec, "verification") {
		return nil
	}
	return &rec
}

// WriteVerification stores the verification record of an agent.
func WriteVerification(db ethdb.KeyValueWriter, rec *types.VerificationRecord) {
	writeRLP(db, verificationKey(rec.Agent), rec, "verification")
}

// ReadSignal retrieves the trade signal of an agent by trade id hash.
func ReadSignal(db ethdb.KeyValueReader, agent uint64, tradeIDHash common.Hash) *types.TradeSignal {
	var sig types.TradeSignal
	if !readRLP(db, signalKey(agent, tradeIDHash), &sig, "signal") {
		return nil
	}
	return &sig
}

// HasSignal reports whether a signal exists for (agent, tradeIDHash).
func HasSignal(db ethdb.KeyValueReader, agent uint64, tradeIDHash common.Hash) (bool, error) {
	return db.Has(signalKey(agent, tradeIDHash))
}

// WriteSignal stores a trade signal.
func WriteSignal(db ethdb.KeyValueWriter, sig *types.TradeSignal) {
	writeRLP(db, signalKey(sig.Agent, sig.TradeIDHash), sig, "signal")
}

// ReadReputation retrieves the reputation state of an agent.
func ReadReputation(db ethdb.KeyValueReader, agent uint64) *types.ReputationState {
	var rep types.ReputationState
	if !readRLP(db, reputationKey(agent), &rep, "reputation") {
		return nil
	}
	return &rep
}

// WriteReputation stores the reputation state of an agent.
func WriteReputation(db ethdb.KeyValueWriter, rep *types.ReputationState) {
	writeRLP(db, reputationKey(rep.Agent), rep, "reputation")
}

// ReadSplit retrieves the revenue split configuration of an agent.
func ReadSplit(db ethdb.KeyValueReader, agent uint64) *types.RevenueSplitConfig {
	var split types.RevenueSplitConfig
	if !readRLP(db, splitKey(agent), &split, "split") {
		return nil
	}
	return &split
}

// WriteSplit stores the revenue split configuration of an agent.
func WriteSplit(db ethdb.KeyValueWriter, split *types.RevenueSplitConfig) {
	writeRLP(db, splitKey(split.Agent), split, "split")
}

// ReadReceipt retrieves the distribution receipt for (agent, reference).
func ReadReceipt(db ethdb.KeyValueReader, agent uint64, reference common.Hash) *types.DistributionReceipt {
	var receipt types.DistributionReceipt
	if !readRLP(db, receiptKey(agent, reference), &receipt, "receipt") {
		return nil
	}
	return &receipt
}

// HasReceipt reports whether (agent, reference) was already distributed.
func HasReceipt(db ethdb.KeyValueReader, agent uint64, reference common.Hash) (bool, error) {
	return db.Has(receiptKey(agent, reference))
}

// WriteReceipt stores a distribution receipt.
func WriteReceipt(db ethdb.KeyValueWriter, receipt *types.DistributionReceipt) {
	writeRLP(db, receiptKey(receipt.Agent, receipt.Reference), receipt, "receipt")
}

// ReadAgentSignals returns every signal recorded for an agent in trade id
// hash order.
func ReadAgentSignals(db ethdb.Iteratee, agent uint64) []*types.TradeSignal {
	it := db.NewIterator(concat(signalPrefix, encodeAgentID(agent)), nil)
	defer it.Release()

	var sigs []*types.TradeSignal
	for it.Next() {
		sig := new(types.TradeSignal)
		if err := rlp.DecodeBytes(it.Value(), sig); err != nil {
			log.Error("Invalid signal RLP", "agent", agent, "err", err)
			continue
		}
		sigs = append(sigs, sig)
	}
	return sigs
}

// ReadAgentReceipts returns every distribution receipt of an agent in
// reference order.
func ReadAgentReceipts(db ethdb.Iteratee, agent uint64) []*types.DistributionReceipt {
	it := db.NewIterator(concat(receiptPrefix, encodeAgentID(agent)), nil)
	defer it.Release()

	var receipts []*types.DistributionReceipt
	for it.Next() {
		receipt := new(types.DistributionReceipt)
		if err := rlp.DecodeBytes(it.Value(), receipt); err != nil {
			log.Error("Invalid receipt RLP", "agent", agent, "err", err)
			continue
		}
		receipts = append(receipts, receipt)
	}
	return receipts
}
