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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func TestIsVerified(t *testing.T) {
	tests := []struct {
		status  VerificationStatus
		expires uint64
		now     uint64
		want    bool
	}{
		{StatusVerified, 0, 1000, true},
		{StatusVerified, 2000, 1000, true},
		{StatusVerified, 1000, 1000, true},
		{StatusVerified, 999, 1000, false},
		{StatusPending, 0, 1000, false},
		{StatusRejected, 2000, 1000, false},
		{StatusSuspended, 0, 1000, false},
		{StatusNone, 0, 0, false},
	}
	for i, tt := range tests {
		r := &VerificationRecord{Agent: 1, Status: tt.status, ExpiresAt: tt.expires}
		if got := r.IsVerified(tt.now); got != tt.want {
			t.Errorf("test %d: IsVerified(%d) = %v, want %v", i, tt.now, got, tt.want)
		}
	}
	var nilRecord *VerificationRecord
	if nilRecord.IsVerified(0) {
		t.Fatal("nil record must not be verified")
	}
}

func TestRoleKinds(t *testing.T) {
	for k := RoleKind(0); k < 10; k++ {
		want := k >= RoleVerificationOperator && k <= RoleRevenueOperator
		if k.IsValid() != want {
			t.Errorf("%v: IsValid = %v", k, k.IsValid())
		}
	}
	k, err := ParseRoleKind("Oracle")
	if err != nil || k != RoleOracle {
		t.Fatalf("parse oracle: %v %v", k, err)
	}
	if k, err = ParseRoleKind("4"); err != nil || k != RoleRevenueOperator {
		t.Fatalf("parse 4: %v %v", k, err)
	}
	if _, err = ParseRoleKind("admin"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestSignalLatch(t *testing.T) {
	sig := &TradeSignal{Agent: 7, TradeIDHash: common.HexToHash("0x01"), ResultHash: common.HexToHash("0x02")}
	if sig.Scored() {
		t.Fatal("fresh signal is scored")
	}
	if !sig.MarkScored(SignalScore{Score: 8000, ConfidenceBps: 9000}) {
		t.Fatal("first score rejected")
	}
	if sig.MarkScored(SignalScore{Score: 1}) {
		t.Fatal("second score accepted")
	}
	if sig.Score.Score != 8000 {
		t.Fatalf("score overwritten: %d", sig.Score.Score)
	}
}

func TestSignalEncodingKeepsLatch(t *testing.T) {
	unscored := &TradeSignal{Agent: 1, TradeIDHash: common.HexToHash("0xaa"), RiskFlags: 3}
	enc, err := rlp.EncodeToBytes(unscored)
	if err != nil {
		t.Fatal(err)
	}
	var dec TradeSignal
	if err := rlp.DecodeBytes(enc, &dec); err != nil {
		t.Fatal(err)
	}
	if dec.Scored() || dec.RiskFlags != 3 {
		t.Fatalf("decoded unscored signal wrong: %+v", dec)
	}
	dec.MarkScored(SignalScore{Score: 10, ConfidenceBps: 10000, SubmittedAt: 5})
	if enc, err = rlp.EncodeToBytes(&dec); err != nil {
		t.Fatal(err)
	}
	var again TradeSignal
	if err := rlp.DecodeBytes(enc, &again); err != nil {
		t.Fatal(err)
	}
	if !again.Scored() || again.Score.SubmittedAt != 5 {
		t.Fatalf("decoded scored signal wrong: %+v", again)
	}
}
