// Copyright 2018 The go-n3ro Authors
// This file is part of go-n3ro.
//
// go-n3ro is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-n3ro is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-n3ro. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"

	"github.com/n3roai/go-n3ro/core"
	"github.com/n3roai/go-n3ro/params"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `
[Node]
DataDir = "/var/lib/n3ro"
HTTPPort = 9000
HTTPCors = ["https://app.example"]

[Protocol]
ProtocolFeeBps = 250
SettlementMint = "0xc0000000000000000000000000000000000000c0"

[Trade]
SignalEnabled = true
Signaler = "0x0500000000000000000000000000000000000005"
SettlementAmount = 1000
DefaultRiskFlags = 3
`)
	cfg := defaultConfig()
	if err := loadConfig(file, &cfg); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Node.DataDir != "/var/lib/n3ro" || cfg.Node.HTTPPort != 9000 {
		t.Errorf("node section not applied: %+v", cfg.Node)
	}
	if cfg.Node.HTTPHost != defaultNode.HTTPHost {
		t.Errorf("default http host lost: %q", cfg.Node.HTTPHost)
	}
	if !reflect.DeepEqual(cfg.Node.HTTPCors, []string{"https://app.example"}) {
		t.Errorf("cors mismatch: %v", cfg.Node.HTTPCors)
	}
	if cfg.Protocol.ProtocolFeeBps != 250 {
		t.Errorf("fee mismatch: have %d, want 250", cfg.Protocol.ProtocolFeeBps)
	}
	if cfg.Protocol.ScoreAlphaBps != params.DefaultProtocolSettings.ScoreAlphaBps {
		t.Errorf("default alpha lost: %d", cfg.Protocol.ScoreAlphaBps)
	}
	if cfg.Protocol.SettlementMint != common.HexToAddress("0xc0000000000000000000000000000000000000c0") {
		t.Errorf("mint mismatch: %x", cfg.Protocol.SettlementMint)
	}
	if !cfg.Trade.SignalEnabled || cfg.Trade.DistributionEnabled {
		t.Errorf("trade flags mismatch: %+v", cfg.Trade)
	}
	if cfg.Trade.Signaler != common.HexToAddress("0x0500000000000000000000000000000000000005") {
		t.Errorf("signaler mismatch: %x", cfg.Trade.Signaler)
	}
	if cfg.Trade.SettlementAmount != 1000 || cfg.Trade.DefaultRiskFlags != 3 {
		t.Errorf("trade amounts mismatch: %+v", cfg.Trade)
	}
}

func TestLoadPaymentConfig(t *testing.T) {
	file := writeConfig(t, `
[Payment]
FacilitatorURL = "https://facilitator.example"

[[Payment.Accepts]]
Network = "eip155:8453"
PayTo = "0x00000000000000000000000000000000000000aa"
Asset = "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"
Amount = "10000"
`)
	cfg := defaultConfig()
	if paywall, err := makePaywall(&cfg.Payment); paywall != nil || err != nil {
		t.Fatalf("default config charges for trades: %v, %v", paywall, err)
	}
	if err := loadConfig(file, &cfg); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Payment.MaxTimeoutSeconds != 300 || len(cfg.Payment.Accepts) != 1 {
		t.Fatalf("payment section not applied: %+v", cfg.Payment)
	}
	paywall, err := makePaywall(&cfg.Payment)
	if err != nil {
		t.Fatal(err)
	}
	if offers := paywall.Accepts(); offers[0].Amount != "10000" || offers[0].Scheme != "exact" {
		t.Errorf("offer mismatch: %+v", offers[0])
	}

	cfg.Payment.Accepts[0].Network = "base-mainnet"
	if _, err := makePaywall(&cfg.Payment); err == nil || !strings.Contains(err.Error(), "[Payment]") {
		t.Errorf("invalid network accepted: %v", err)
	}
}

func TestDefaultConfigInitializes(t *testing.T) {
	cfg := defaultConfig()
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	loaded := defaultConfig()
	if err := loadConfig(writeConfig(t, string(out)), &loaded); err != nil {
		t.Fatalf("dumped config does not load: %v\n%s", err, out)
	}
	if loaded.Protocol.EnforceSettlementToken {
		t.Error("default config enforces a settlement token without a mint")
	}
	p, err := core.New(memorydb.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	admin := common.HexToAddress("0xad00000000000000000000000000000000000001")
	if err := p.InitializeProtocol(admin, loaded.Protocol); err != nil {
		t.Fatalf("default protocol settings do not initialize: %v", err)
	}
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := writeConfig(t, "[Node]\nBogus = 1\n")
	cfg := defaultConfig()
	err := loadConfig(file, &cfg)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "Bogus") || !strings.HasPrefix(err.Error(), file) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDumpConfigRoundTrip(t *testing.T) {
	want := defaultConfig()
	want.Node.HTTPCors = []string{"https://a.example", "https://b.example"}
	want.Trade.Operator = common.HexToAddress("0x0600000000000000000000000000000000000006")

	out, err := tomlSettings.Marshal(&want)
	if err != nil {
		t.Fatal(err)
	}
	file := writeConfig(t, string(out))
	var have n3roConfig
	if err := loadConfig(file, &have); err != nil {
		t.Fatalf("failed to reload dumped config: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("config mismatch after round trip\nhave %+v\nwant %+v", have, want)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		if have := splitAndTrim(tt.input); !reflect.DeepEqual(have, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, have, tt.want)
		}
	}
}

func TestRenderProtocol(t *testing.T) {
	p, err := core.New(memorydb.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := renderProtocol(&buf, p); err != core.ErrNotInitialized {
		t.Fatalf("have %v, want %v", err, core.ErrNotInitialized)
	}

	admin := common.HexToAddress("0xad00000000000000000000000000000000000001")
	settings := params.DefaultProtocolSettings
	settings.SettlementMint = common.HexToAddress("0xc0000000000000000000000000000000000000c0")
	if err := p.InitializeProtocol(admin, settings); err != nil {
		t.Fatal(err)
	}
	if err := renderProtocol(&buf, p); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{admin.Hex(), "PROTOCOL FEE", "500"} {
		if !strings.Contains(strings.ToUpper(buf.String()), strings.ToUpper(want)) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRenderAgent(t *testing.T) {
	p, err := core.New(memorydb.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := renderAgent(&buf, p, 1); err != core.ErrAgentNotFound {
		t.Fatalf("have %v, want %v", err, core.ErrAgentNotFound)
	}
	owner := common.HexToAddress("0x0100000000000000000000000000000000000001")
	if err := p.InitializeRegistry(owner); err != nil {
		t.Fatal(err)
	}
	id, err := p.RegisterAgent(owner, common.HexToAddress("0x02"), "https://agents.example/7", common.Hash{})
	if err != nil {
		t.Fatal(err)
	}
	if err := renderAgent(&buf, p, id); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "https://agents.example/7") {
		t.Errorf("output missing uri:\n%s", buf.String())
	}
}
