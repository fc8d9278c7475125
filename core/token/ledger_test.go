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
package token

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"

	"github.com/n3roai/go-n3ro/common/math"
	"github.com/n3roai/go-n3ro/crypto"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	usdc  = common.HexToAddress("0xc0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0c0")
	other = common.HexToAddress("0x0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e0e")
)

func newFundedLedger(t *testing.T, balance uint64) (*Ledger, common.Address, common.Address) {
	l := NewLedger(memorydb.New())
	a, err := l.OpenAssociated(alice, usdc)
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.OpenAssociated(bob, usdc)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Mint(a.Address, balance); err != nil {
		t.Fatal(err)
	}
	return l, a.Address, b.Address
}

func TestTransfer(t *testing.T) {
	l, a, b := newFundedLedger(t, 100)

	if err := l.Transfer(a, b, alice, 60); err != nil {
		t.Fatal(err)
	}
	from, _ := l.Account(a)
	to, _ := l.Account(b)
	if from.Balance != 40 || to.Balance != 60 {
		t.Fatalf("balances: have %d/%d, want 40/60", from.Balance, to.Balance)
	}
	if err := l.Transfer(a, b, alice, 41); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := l.Transfer(a, b, bob, 1); err != ErrOwnerMismatch {
		t.Fatalf("expected ErrOwnerMismatch, got %v", err)
	}
}

func TestTransferZeroIsNoop(t *testing.T) {
	l := NewLedger(memorydb.New())
	// Neither account exists, a zero transfer must not even look them up
	if err := l.Transfer(alice, bob, alice, 0); err != nil {
		t.Fatalf("zero transfer failed: %v", err)
	}
}

func TestTransferMintMismatch(t *testing.T) {
	l, a, _ := newFundedLedger(t, 10)
	c, err := l.OpenAssociated(bob, other)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Transfer(a, c.Address, alice, 1); err != ErrMintMismatch {
		t.Fatalf("expected ErrMintMismatch, got %v", err)
	}
}

func TestOpenAndMint(t *testing.T) {
	l, a, _ := newFundedLedger(t, 0)
	if _, err := l.OpenAssociated(alice, usdc); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if a != crypto.AssociatedTokenAccount(alice, usdc) {
		t.Fatal("associated address mismatch")
	}
	if _, err := l.Open(common.Address{}, alice, usdc); err != ErrInvalidAccount {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
	if err := l.Mint(a, ^uint64(0)); err != nil {
		t.Fatal(err)
	}
	if err := l.Mint(a, 1); err != math.ErrOverflow {
		t.Fatalf("expected overflow, got %v", err)
	}
	if err := l.Mint(other, 1); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
