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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/crypto"
	"github.com/n3roai/go-n3ro/params"
)

var (
	admin     = common.HexToAddress("0xad00000000000000000000000000000000000001")
	owner     = common.HexToAddress("0x0100000000000000000000000000000000000001")
	wallet    = common.HexToAddress("0x0200000000000000000000000000000000000002")
	verifier  = common.HexToAddress("0x0300000000000000000000000000000000000003")
	oracle    = common.HexToAddress("0x0400000000000000000000000000000000000004")
	signaler  = common.HexToAddress("0x0500000000000000000000000000000000000005")
	revenueOp = common.HexToAddress("0x0600000000000000000000000000000000000006")
	platform  = common.HexToAddress("0x0700000000000000000000000000000000000007")
	referrer  = common.HexToAddress("0x0800000000000000000000000000000000000008")
	reserve   = common.HexToAddress("0x0900000000000000000000000000000000000009")
	stranger  = common.HexToAddress("0x0a0000000000000000000000000000000000000a")
	mint      = common.HexToAddress("0xc0000000000000000000000000000000000000c0")

	startTime = uint64(1_700_000_000)
)

// testEnv is an initialized protocol with one registered agent, every role
// granted and funded settlement accounts.
type testEnv struct {
	p     *Protocol
	clock *ManualClock
	agent uint64
	accts SettlementAccounts
}

func testSettings() params.ProtocolSettings {
	s := params.DefaultProtocolSettings
	s.EnforceSettlementToken = true
	s.SettlementMint = mint
	s.SettlementVault = crypto.AssociatedTokenAccount(crypto.VaultAuthority(), mint)
	s.ProtocolTreasury = crypto.AssociatedTokenAccount(admin, mint)
	return s
}

func newBareProtocol(t *testing.T) (*Protocol, *ManualClock) {
	t.Helper()
	return newBareProtocolOn(t, memorydb.New())
}

func newBareProtocolOn(t *testing.T, db ethdb.KeyValueStore) (*Protocol, *ManualClock) {
	t.Helper()
	clock := NewManualClock(startTime)
	p, err := New(db, &Config{Clock: clock})
	require.NoError(t, err)
	return p, clock
}

func newTestEnv(t *testing.T, mutate func(*params.ProtocolSettings)) *testEnv {
	t.Helper()
	return newTestEnvOn(t, memorydb.New(), mutate)
}

func newTestEnvOn(t *testing.T, db ethdb.KeyValueStore, mutate func(*params.ProtocolSettings)) *testEnv {
	t.Helper()
	p, clock := newBareProtocolOn(t, db)

	require.NoError(t, p.InitializeRegistry(admin))
	id, err := p.RegisterAgent(owner, wallet, "https://agents.example/1", common.HexToHash("0xfeed"))
	require.NoError(t, err)

	settings := testSettings()
	if mutate != nil {
		mutate(&settings)
	}
	require.NoError(t, p.InitializeProtocol(admin, settings))

	require.NoError(t, p.OpenTokenAccount(settings.SettlementVault, crypto.VaultAuthority(), mint))
	require.NoError(t, p.OpenTokenAccount(settings.ProtocolTreasury, admin, mint))
	accts := SettlementAccounts{Vault: settings.SettlementVault, Treasury: settings.ProtocolTreasury}
	for _, party := range []struct {
		owner common.Address
		out   *common.Address
	}{
		{wallet, &accts.Agent}, {platform, &accts.Platform}, {referrer, &accts.Referrer}, {reserve, &accts.Reserve},
	} {
		addr, err := p.OpenAssociatedTokenAccount(party.owner, mint)
		require.NoError(t, err)
		*party.out = addr
	}
	require.NoError(t, p.MintTo(accts.Vault, 100_000_000))

	for _, grant := range []struct {
		kind   types.RoleKind
		member common.Address
	}{
		{types.RoleVerificationOperator, verifier},
		{types.RoleOracle, oracle},
		{types.RoleSignaler, signaler},
		{types.RoleRevenueOperator, revenueOp},
	} {
		require.NoError(t, p.SetRole(admin, grant.kind, grant.member, true))
	}
	return &testEnv{p: p, clock: clock, agent: id, accts: accts}
}

func (env *testEnv) balance(addr common.Address) uint64 {
	acct := env.p.TokenAccount(addr)
	if acct == nil {
		return 0
	}
	return acct.Balance
}

func TestAssertRole(t *testing.T) {
	good := &types.RoleAssignment{Member: oracle, Role: types.RoleOracle, Active: true}
	assert.NoError(t, AssertRole(good, oracle, types.RoleOracle))

	inactive := *good
	inactive.Active = false
	assert.Equal(t, ErrUnauthorized, AssertRole(&inactive, oracle, types.RoleOracle))
	assert.Equal(t, ErrUnauthorized, AssertRole(good, oracle, types.RoleSignaler))
	assert.Equal(t, ErrUnauthorized, AssertRole(good, stranger, types.RoleOracle))
	assert.Equal(t, ErrUnauthorized, AssertRole(nil, oracle, types.RoleOracle))
}

func TestIdentityRegistry(t *testing.T) {
	p, clock := newBareProtocol(t)

	_, err := p.RegisterAgent(owner, wallet, "", common.Hash{})
	require.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, p.InitializeRegistry(admin))
	require.ErrorIs(t, p.InitializeRegistry(stranger), ErrAlreadyInitialized)

	first, err := p.RegisterAgent(owner, wallet, "a", common.Hash{})
	require.NoError(t, err)
	second, err := p.RegisterAgent(stranger, wallet, "b", common.Hash{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, uint64(3), p.IdentityRegistry().NextAgentID)

	_, err = p.RegisterAgent(owner, common.Address{}, "", common.Hash{})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = p.RegisterAgent(owner, wallet, strings.Repeat("x", params.MaxURILen+1), common.Hash{})
	assert.ErrorIs(t, err, ErrURITooLong)
	_, err = p.RegisterAgent(owner, wallet, strings.Repeat("x", params.MaxURILen), common.Hash{})
	assert.NoError(t, err)

	clock.Advance(60)
	newWallet := common.HexToAddress("0xbeef")
	require.NoError(t, p.SetAgentWallet(owner, first, newWallet))
	require.NoError(t, p.SetAgentURI(owner, first, "ipfs://new"))
	require.NoError(t, p.SetAgentMetadataHash(owner, first, common.HexToHash("0x02")))

	agent := p.Agent(first)
	assert.Equal(t, newWallet, agent.Wallet)
	assert.Equal(t, "ipfs://new", agent.URI)
	assert.Equal(t, common.HexToHash("0x02"), agent.MetadataHash)
	assert.Equal(t, startTime, agent.CreatedAt)
	assert.Equal(t, startTime+60, agent.UpdatedAt)

	assert.ErrorIs(t, p.SetAgentWallet(stranger, first, newWallet), ErrUnauthorized)
	assert.ErrorIs(t, p.SetAgentWallet(owner, first, common.Address{}), ErrInvalidAddress)
	assert.ErrorIs(t, p.SetAgentURI(owner, first, strings.Repeat("y", 300)), ErrURITooLong)
	assert.ErrorIs(t, p.SetAgentMetadataHash(owner, 99, common.Hash{}), ErrAgentNotFound)
}

func TestInitializeProtocolValidation(t *testing.T) {
	tests := []struct {
		mutate func(*params.ProtocolSettings)
		want   error
	}{
		{func(s *params.ProtocolSettings) { s.ProtocolFeeBps = 10_001 }, ErrInvalidBps},
		{func(s *params.ProtocolSettings) { s.MinConfidenceBps = 10_001 }, ErrInvalidConfidence},
		{func(s *params.ProtocolSettings) { s.ScoreAlphaBps = 0 }, ErrInvalidConfidence},
		{func(s *params.ProtocolSettings) { s.ScoreAlphaBps = 10_001 }, ErrInvalidConfidence},
		{func(s *params.ProtocolSettings) { s.SettlementMint = common.Address{} }, ErrInvalidAddress},
		{func(s *params.ProtocolSettings) {
			s.SettlementMint = common.Address{}
			s.EnforceSettlementToken = false
		}, nil},
	}
	for i, tt := range tests {
		p, _ := newBareProtocol(t)
		s := testSettings()
		tt.mutate(&s)
		err := p.InitializeProtocol(admin, s)
		if tt.want == nil {
			require.NoError(t, err, "test %d", i)
			continue
		}
		require.ErrorIs(t, err, tt.want, "test %d", i)
		assert.Nil(t, p.ProtocolConfig(), "test %d: config written on failure", i)
	}

	p, _ := newBareProtocol(t)
	require.NoError(t, p.InitializeProtocol(admin, testSettings()))
	require.ErrorIs(t, p.InitializeProtocol(stranger, testSettings()), ErrAlreadyInitialized)

	cfg := p.ProtocolConfig()
	assert.Equal(t, admin, cfg.Admin)
	assert.Equal(t, crypto.VaultAuthority(), cfg.VaultAuthority)
	assert.False(t, cfg.Paused)
}

func TestInitializeProtocolDefaults(t *testing.T) {
	p, _ := newBareProtocol(t)
	require.NoError(t, p.InitializeProtocol(admin, params.DefaultProtocolSettings))

	cfg := p.ProtocolConfig()
	require.NotNil(t, cfg)
	assert.False(t, cfg.EnforceSettlementToken)
	assert.Equal(t, admin, cfg.Admin)
}

func TestInitializeProtocolCorruptConfig(t *testing.T) {
	db := memorydb.New()
	require.NoError(t, db.Put([]byte("ProtocolConfig"), []byte{0xff, 0x00, 0x01}))
	p, _ := newBareProtocolOn(t, db)

	assert.Nil(t, p.ProtocolConfig())
	require.ErrorIs(t, p.InitializeProtocol(stranger, testSettings()), ErrAlreadyInitialized)
	require.ErrorIs(t, p.SetPaused(stranger, true), ErrCorruptRecord)

	blob, err := db.Get([]byte("ProtocolConfig"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, blob, "corrupt config overwritten")
}

func TestInitializeRegistryCorrupt(t *testing.T) {
	db := memorydb.New()
	require.NoError(t, db.Put([]byte("IdentityRegistry"), []byte{0xc1}))
	p, _ := newBareProtocolOn(t, db)

	require.ErrorIs(t, p.InitializeRegistry(stranger), ErrAlreadyInitialized)
}

func TestSetRole(t *testing.T) {
	p, _ := newBareProtocol(t)
	require.ErrorIs(t, p.SetRole(admin, types.RoleOracle, oracle, true), ErrNotInitialized)
	require.NoError(t, p.InitializeProtocol(admin, testSettings()))

	assert.ErrorIs(t, p.SetRole(stranger, types.RoleOracle, oracle, true), ErrUnauthorized)
	assert.ErrorIs(t, p.SetRole(admin, types.RoleNone, oracle, true), ErrInvalidRole)
	assert.ErrorIs(t, p.SetRole(admin, types.RoleKind(5), oracle, true), ErrInvalidRole)
	assert.ErrorIs(t, p.SetRole(admin, types.RoleOracle, common.Address{}, true), ErrInvalidAddress)

	require.NoError(t, p.SetRole(admin, types.RoleOracle, oracle, true))
	require.NoError(t, p.SetRole(admin, types.RoleOracle, oracle, false))

	role := p.Role(types.RoleOracle, oracle)
	require.NotNil(t, role, "revoked slot must persist")
	assert.False(t, role.Active)
	assert.Nil(t, p.Role(types.RoleSignaler, oracle))
}

func TestAdminSetters(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.p

	setters := []struct {
		name string
		call func(caller common.Address) error
	}{
		{"fee", func(c common.Address) error { return p.SetProtocolFee(c, 250) }},
		{"token", func(c common.Address) error { return p.SetSettlementToken(c, mint, true) }},
		{"vault", func(c common.Address) error { return p.SetSettlementVault(c, env.accts.Vault) }},
		{"treasury", func(c common.Address) error { return p.SetProtocolTreasury(c, env.accts.Treasury) }},
		{"score", func(c common.Address) error { return p.SetScoreConfig(c, 4000, 3000, 60) }},
		{"verified", func(c common.Address) error { return p.SetRequireVerifiedForScore(c, false) }},
		{"pause", func(c common.Address) error { return p.SetPaused(c, false) }},
	}
	for _, s := range setters {
		assert.ErrorIs(t, s.call(stranger), ErrUnauthorized, s.name)
	}
	// Setters keep working while paused, that is how the admin resumes
	require.NoError(t, p.SetPaused(admin, true))
	for _, s := range setters {
		assert.NoError(t, s.call(admin), s.name)
	}
	cfg := p.ProtocolConfig()
	assert.Equal(t, uint16(250), cfg.ProtocolFeeBps)
	assert.Equal(t, uint16(4000), cfg.MinConfidenceBps)
	assert.Equal(t, uint16(3000), cfg.ScoreAlphaBps)
	assert.Equal(t, uint64(60), cfg.MaxSignalAge)
	assert.False(t, cfg.RequireVerifiedForScore)
	assert.False(t, cfg.Paused)

	assert.ErrorIs(t, p.SetProtocolFee(admin, 10_001), ErrInvalidBps)
	assert.ErrorIs(t, p.SetSettlementToken(admin, common.Address{}, true), ErrInvalidAddress)
	assert.NoError(t, p.SetSettlementToken(admin, common.Address{}, false))
	assert.ErrorIs(t, p.SetSettlementVault(admin, common.Address{}), ErrInvalidAddress)
	assert.ErrorIs(t, p.SetProtocolTreasury(admin, common.Address{}), ErrInvalidAddress)
	assert.ErrorIs(t, p.SetScoreConfig(admin, 10_001, 100, 0), ErrInvalidConfidence)
	assert.ErrorIs(t, p.SetScoreConfig(admin, 100, 0, 0), ErrInvalidConfidence)
	assert.Equal(t, uint16(250), p.ProtocolConfig().ProtocolFeeBps)
}

func TestPausedBlocksActions(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.p
	require.NoError(t, p.SetPaused(admin, true))

	assert.ErrorIs(t, p.RequestVerification(owner, env.agent, common.HexToHash("0x01"), common.Hash{}), ErrProtocolPaused)
	assert.ErrorIs(t, p.SetVerificationStatus(verifier, env.agent, types.StatusVerified, common.HexToHash("0x01"), common.Hash{}, 0), ErrProtocolPaused)
	assert.ErrorIs(t, p.SetSplit(owner, env.agent, SplitParams{}), ErrProtocolPaused)
	assert.ErrorIs(t, p.SubmitSignal(signaler, SignalSubmission{Agent: env.agent, TradeIDHash: common.HexToHash("0x01"), ResultHash: common.HexToHash("0x02")}), ErrProtocolPaused)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, 6000, ErrorCode(ErrUnauthorized))
	assert.Equal(t, 6011, ErrorCode(ErrMathOverflow))
	assert.Equal(t, 6019, ErrorCode(ErrInvalidTokenMint))
	assert.Equal(t, 6010, ErrorCode(fmt.Errorf("distribute: %w", ErrProtocolPaused)))
	assert.Equal(t, 7006, ErrorCode(ErrReceiptExists))
	assert.Equal(t, 0, ErrorCode(errors.New("other")))
	assert.Equal(t, 0, ErrorCode(nil))
	assert.Len(t, protocolErrors, 20)
}
