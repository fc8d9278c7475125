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

// RevenueSplitConfig lists the three optional parties paid out of a settlement
// before the agent receives the remainder.
type RevenueSplitConfig struct {
	Agent        uint64         `json:"agent"`
	Platform     common.Address `json:"platform"`
	PlatformBps  uint16         `json:"platformBps"`
	Referrer     common.Address `json:"referrer"`
	ReferrerBps  uint16         `json:"referrerBps"`
	ReserveVault common.Address `json:"reserveVault"`
	ReserveBps   uint16         `json:"reserveBps"`
}

// DistributionReceipt is the permanent record of one settlement. Its key
// (agent, reference) is the idempotency token of the distribution.
type DistributionReceipt struct {
	Agent         uint64         `json:"agent"`
	Reference     common.Hash    `json:"reference"`
	Amount        uint64         `json:"amount"`
	Operator      common.Address `json:"operator"`
	DistributedAt uint64         `json:"distributedAt"`
}

// Partition is the five-way split of a settlement amount.
type Partition struct {
	Platform uint64 `json:"platform"`
	Referrer uint64 `json:"referrer"`
	Reserve  uint64 `json:"reserve"`
	Protocol uint64 `json:"protocol"`
	Agent    uint64 `json:"agent"`
}
