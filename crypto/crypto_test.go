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
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestCreateProgramAddress(t *testing.T) {
	seed := []byte("abc")
	// keccak256("abc") = 4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45
	exp := common.HexToAddress("0x26c8d667c0d1e6e33a64a036ec44f58fa12d6c45")
	if addr := CreateProgramAddress(seed); addr != exp {
		t.Fatalf("address mismatch: have %x, want %x", addr, exp)
	}
	if CreateProgramAddress([]byte("ab"), []byte("c")) != exp {
		t.Fatal("seeds are not concatenated")
	}
}

func TestAssociatedTokenAccount(t *testing.T) {
	owner := common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	mintA := common.HexToAddress("0x1111111111111111111111111111111111111111")
	mintB := common.HexToAddress("0x2222222222222222222222222222222222222222")

	if AssociatedTokenAccount(owner, mintA) != AssociatedTokenAccount(owner, mintA) {
		t.Fatal("derivation is not deterministic")
	}
	if AssociatedTokenAccount(owner, mintA) == AssociatedTokenAccount(owner, mintB) {
		t.Fatal("different mints produced the same account")
	}
	if AssociatedTokenAccount(owner, mintA) == VaultAuthority() {
		t.Fatal("token account collides with vault authority")
	}
}
