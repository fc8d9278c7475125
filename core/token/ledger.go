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
// Package token implements the fungible token ledger used to move settlement
// funds between accounts.
package token

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/n3roai/go-n3ro/common/math"
	"github.com/n3roai/go-n3ro/core/rawdb"
	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/crypto"
)

var (
	ErrAccountExists     = errors.New("token account already exists")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrInvalidAccount    = errors.New("invalid token account")
	ErrOwnerMismatch     = errors.New("transfer authority does not own source account")
	ErrMintMismatch      = errors.New("token accounts hold different mints")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Store is the record store the ledger reads and writes.
type Store interface {
	ethdb.KeyValueReader
	ethdb.KeyValueWriter
}

// Ledger applies token operations to a record store. It performs no locking;
// the caller serializes access to the store.
type Ledger struct {
	db Store
}

// NewLedger returns a ledger over db.
func NewLedger(db Store) *Ledger {
	return &Ledger{db: db}
}

// Open creates an empty account at addr. Opening an existing address fails.
func (l *Ledger) Open(addr, owner, mint common.Address) (*types.TokenAccount, error) {
	if addr == (common.Address{}) || owner == (common.Address{}) || mint == (common.Address{}) {
		return nil, ErrInvalidAccount
	}
	if ok, err := rawdb.HasTokenAccount(l.db, addr); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, addr.Hex())
	}
	acct := &types.TokenAccount{Address: addr, Owner: owner, Mint: mint}
	rawdb.WriteTokenAccount(l.db, acct)
	log.Debug("Opened token account", "address", addr, "owner", owner, "mint", mint)
	return acct, nil
}

// OpenAssociated creates the associated account of (owner, mint).
func (l *Ledger) OpenAssociated(owner, mint common.Address) (*types.TokenAccount, error) {
	return l.Open(crypto.AssociatedTokenAccount(owner, mint), owner, mint)
}

// Account returns the account stored at addr.
func (l *Ledger) Account(addr common.Address) (*types.TokenAccount, error) {
	acct := rawdb.ReadTokenAccount(l.db, addr)
	if acct == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr.Hex())
	}
	return acct, nil
}

// Mint credits amount to the account at addr.
func (l *Ledger) Mint(addr common.Address, amount uint64) error {
	acct, err := l.Account(addr)
	if err != nil {
		return err
	}
	if acct.Balance, err = math.SafeAdd(acct.Balance, amount); err != nil {
		return err
	}
	rawdb.WriteTokenAccount(l.db, acct)
	return nil
}

// Transfer moves amount from src to dst on behalf of authority. A zero amount
// is a no-op and touches no account.
func (l *Ledger) Transfer(src, dst, authority common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	from, err := l.Account(src)
	if err != nil {
		return err
	}
	to, err := l.Account(dst)
	if err != nil {
		return err
	}
	if from.Owner != authority {
		return ErrOwnerMismatch
	}
	if from.Mint != to.Mint {
		return ErrMintMismatch
	}
	if from.Balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, from.Balance, amount)
	}
	if src == dst {
		return nil
	}
	from.Balance -= amount
	if to.Balance, err = math.SafeAdd(to.Balance, amount); err != nil {
		return err
	}
	rawdb.WriteTokenAccount(l.db, from)
	rawdb.WriteTokenAccount(l.db, to)
	return nil
}
