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
	"fmt"

	"gopkg.in/urfave/cli.v1"

	"github.com/n3roai/go-n3ro/core"
	"github.com/n3roai/go-n3ro/core/types"
	"github.com/n3roai/go-n3ro/trade"
)

var (
	policyHashFlag = cli.StringFlag{
		Name:  "policy",
		Usage: "Policy hash attached to the verification record",
	}
	expiresFlag = cli.Uint64Flag{
		Name:  "expires",
		Usage: "Unix time the verification lapses at (0 never expires)",
	}
	resultHashFlag = cli.StringFlag{
		Name:  "result-hash",
		Usage: "Result hash of the trade (default: hash of the executed-trade document)",
	}
	contextHashFlag = cli.StringFlag{
		Name:  "context-hash",
		Usage: "Context hash of the trade (default: hash of the trade context document)",
	}
	riskFlagsFlag = cli.IntFlag{
		Name:  "risk",
		Usage: "Risk flags bitmask (0-255)",
	}
	agentAccountFlag = cli.StringFlag{
		Name:  "agent-account",
		Usage: "Agent payout token account (default: associated account of the agent wallet)",
	}
	platformFlag    = cli.StringFlag{Name: "platform", Usage: "Platform payout owner"}
	platformBpsFlag = cli.UintFlag{Name: "platform-bps", Usage: "Platform share in basis points"}
	referrerFlag    = cli.StringFlag{Name: "referrer", Usage: "Referrer payout owner"}
	referrerBpsFlag = cli.UintFlag{Name: "referrer-bps", Usage: "Referrer share in basis points"}
	reserveFlag     = cli.StringFlag{Name: "reserve", Usage: "Reserve vault owner"}
	reserveBpsFlag  = cli.UintFlag{Name: "reserve-bps", Usage: "Reserve share in basis points"}
)

// action wraps a protocol action with configuration loading and database
// lifetime.
func action(fn func(ctx *cli.Context, p *core.Protocol) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		cfg := makeConfig(ctx)
		p, closeFn := openProtocol(ctx, &cfg)
		defer closeFn()
		if err := fn(ctx, p); err != nil {
			if code := core.ErrorCode(err); code != 0 {
				return fmt.Errorf("%s failed: %v (code %d)", ctx.Command.Name, err, code)
			}
			return fmt.Errorf("%s failed: %v", ctx.Command.Name, err)
		}
		return nil
	}
}

var identityCommands = []cli.Command{
	{
		Name:     "init-registry",
		Usage:    "Create the identity registry administered by --from",
		Category: "IDENTITY COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			return p.InitializeRegistry(caller(ctx))
		}),
	},
	{
		Name:      "register-agent",
		Usage:     "Register an agent owned by --from",
		ArgsUsage: "<wallet> <uri> [metadataHash]",
		Category:  "IDENTITY COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			wallet, uri, meta := a.address(0, "wallet"), a.string(1, "uri"), a.hash(2, "metadata hash")
			if a.err != nil {
				return a.err
			}
			id, err := p.RegisterAgent(caller(ctx), wallet, uri, meta)
			if err != nil {
				return err
			}
			fmt.Println("Registered agent", id)
			return nil
		}),
	},
	{
		Name:      "set-agent-wallet",
		Usage:     "Change the payout wallet of an agent",
		ArgsUsage: "<agentId> <wallet>",
		Category:  "IDENTITY COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			id, wallet := a.uint64(0, "agent id"), a.address(1, "wallet")
			if a.err != nil {
				return a.err
			}
			return p.SetAgentWallet(caller(ctx), id, wallet)
		}),
	},
	{
		Name:      "set-agent-uri",
		Usage:     "Change the metadata URI of an agent",
		ArgsUsage: "<agentId> <uri>",
		Category:  "IDENTITY COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			id, uri := a.uint64(0, "agent id"), a.string(1, "uri")
			if a.err != nil {
				return a.err
			}
			return p.SetAgentURI(caller(ctx), id, uri)
		}),
	},
	{
		Name:      "set-agent-metadata",
		Usage:     "Change the metadata hash of an agent",
		ArgsUsage: "<agentId> <metadataHash>",
		Category:  "IDENTITY COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			id, hash := a.uint64(0, "agent id"), a.hash(1, "metadata hash")
			if a.err != nil {
				return a.err
			}
			return p.SetAgentMetadataHash(caller(ctx), id, hash)
		}),
	},
}

var adminCommands = []cli.Command{
	{
		Name:        "init-protocol",
		Usage:       "Create the protocol configuration administered by --from",
		Category:    "ADMIN COMMANDS",
		Description: `Initial settings are taken from the [Protocol] section of the configuration file.`,
		Action: func(ctx *cli.Context) error {
			cfg := makeConfig(ctx)
			p, closeFn := openProtocol(ctx, &cfg)
			defer closeFn()
			if err := p.InitializeProtocol(caller(ctx), cfg.Protocol); err != nil {
				return fmt.Errorf("init-protocol failed: %v (code %d)", err, core.ErrorCode(err))
			}
			return nil
		},
	},
	{
		Name:      "set-role",
		Usage:     "Grant or revoke a protocol role",
		ArgsUsage: "<role> <member> [active]",
		Category:  "ADMIN COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			name, member, active := a.string(0, "role"), a.address(1, "member"), a.bool(2, "active", true)
			if a.err != nil {
				return a.err
			}
			kind, err := types.ParseRoleKind(name)
			if err != nil {
				return err
			}
			return p.SetRole(caller(ctx), kind, member, active)
		}),
	},
	{
		Name:     "admin",
		Usage:    "Update the protocol configuration",
		Category: "ADMIN COMMANDS",
		Subcommands: []cli.Command{
			{
				Name:      "fee",
				Usage:     "Set the protocol fee",
				ArgsUsage: "<bps>",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 1)
					fee := a.uint16(0, "fee")
					if a.err != nil {
						return a.err
					}
					return p.SetProtocolFee(caller(ctx), fee)
				}),
			},
			{
				Name:      "settlement-token",
				Usage:     "Set the settlement mint and whether it is enforced",
				ArgsUsage: "<mint> [enforce]",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 1)
					mint, enforce := a.address(0, "mint"), a.bool(1, "enforce", true)
					if a.err != nil {
						return a.err
					}
					return p.SetSettlementToken(caller(ctx), mint, enforce)
				}),
			},
			{
				Name:      "vault",
				Usage:     "Set the settlement vault account",
				ArgsUsage: "<address>",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 1)
					vault := a.address(0, "vault")
					if a.err != nil {
						return a.err
					}
					return p.SetSettlementVault(caller(ctx), vault)
				}),
			},
			{
				Name:      "treasury",
				Usage:     "Set the protocol treasury account",
				ArgsUsage: "<address>",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 1)
					treasury := a.address(0, "treasury")
					if a.err != nil {
						return a.err
					}
					return p.SetProtocolTreasury(caller(ctx), treasury)
				}),
			},
			{
				Name:      "score-config",
				Usage:     "Set the scoring parameters",
				ArgsUsage: "<minConfidenceBps> <alphaBps> <maxSignalAge>",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 3)
					minConf, alpha, maxAge := a.uint16(0, "min confidence"), a.uint16(1, "alpha"), a.uint64(2, "max signal age")
					if a.err != nil {
						return a.err
					}
					return p.SetScoreConfig(caller(ctx), minConf, alpha, maxAge)
				}),
			},
			{
				Name:      "require-verified",
				Usage:     "Require a verified agent before scoring",
				ArgsUsage: "<true|false>",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 1)
					on := a.bool(0, "flag", true)
					if a.err != nil {
						return a.err
					}
					return p.SetRequireVerifiedForScore(caller(ctx), on)
				}),
			},
			{
				Name:      "pause",
				Usage:     "Pause or resume the protocol",
				ArgsUsage: "<true|false>",
				Action: action(func(ctx *cli.Context, p *core.Protocol) error {
					a := newArgs(ctx, 1)
					paused := a.bool(0, "flag", true)
					if a.err != nil {
						return a.err
					}
					return p.SetPaused(caller(ctx), paused)
				}),
			},
		},
	},
}

var workflowCommands = []cli.Command{
	{
		Name:      "request-verification",
		Usage:     "Ask for verification of an agent owned by --from",
		ArgsUsage: "<agentId> <requestHash>",
		Category:  "WORKFLOW COMMANDS",
		Flags:     []cli.Flag{policyHashFlag},
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			id, request := a.uint64(0, "agent id"), a.hash(1, "request hash")
			if a.err != nil {
				return a.err
			}
			policy, err := hashFlag(ctx, policyHashFlag.Name)
			if err != nil {
				return err
			}
			return p.RequestVerification(caller(ctx), id, request, policy)
		}),
	},
	{
		Name:      "set-verification",
		Usage:     "Record a verification decision",
		ArgsUsage: "<agentId> <verified|rejected|suspended> <evidenceHash>",
		Category:  "WORKFLOW COMMANDS",
		Flags:     []cli.Flag{policyHashFlag, expiresFlag},
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 3)
			id, name, evidence := a.uint64(0, "agent id"), a.string(1, "status"), a.hash(2, "evidence hash")
			if a.err != nil {
				return a.err
			}
			status, err := types.ParseVerificationStatus(name)
			if err != nil {
				return err
			}
			policy, err := hashFlag(ctx, policyHashFlag.Name)
			if err != nil {
				return err
			}
			return p.SetVerificationStatus(caller(ctx), id, status, evidence, policy, ctx.Uint64(expiresFlag.Name))
		}),
	},
	{
		Name:      "set-split",
		Usage:     "Configure the revenue split of an agent owned by --from",
		ArgsUsage: "<agentId>",
		Category:  "WORKFLOW COMMANDS",
		Flags:     []cli.Flag{platformFlag, platformBpsFlag, referrerFlag, referrerBpsFlag, reserveFlag, reserveBpsFlag},
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 1)
			id := a.uint64(0, "agent id")
			if a.err != nil {
				return a.err
			}
			split := core.SplitParams{
				PlatformBps: uint16(ctx.Uint(platformBpsFlag.Name)),
				ReferrerBps: uint16(ctx.Uint(referrerBpsFlag.Name)),
				ReserveBps:  uint16(ctx.Uint(reserveBpsFlag.Name)),
			}
			for _, bps := range []string{platformBpsFlag.Name, referrerBpsFlag.Name, reserveBpsFlag.Name} {
				if ctx.Uint(bps) > 0xffff {
					return fmt.Errorf("--%s out of range", bps)
				}
			}
			var err error
			if split.Platform, err = addressFlag(ctx, platformFlag.Name); err != nil {
				return err
			}
			if split.Referrer, err = addressFlag(ctx, referrerFlag.Name); err != nil {
				return err
			}
			if split.ReserveVault, err = addressFlag(ctx, reserveFlag.Name); err != nil {
				return err
			}
			return p.SetSplit(caller(ctx), id, split)
		}),
	},
	{
		Name:      "submit-signal",
		Usage:     "Report a trade outcome as --from (signaler)",
		ArgsUsage: "<agentId> <tradeId>",
		Category:  "WORKFLOW COMMANDS",
		Flags:     []cli.Flag{resultHashFlag, contextHashFlag, riskFlagsFlag},
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 2)
			id, tradeID := a.uint64(0, "agent id"), a.string(1, "trade id")
			if a.err != nil {
				return a.err
			}
			cmd := trade.NewCommand(id, tradeID)
			cmd.ResultHash = ctx.String(resultHashFlag.Name)
			cmd.ContextHash = ctx.String(contextHashFlag.Name)
			if ctx.IsSet(riskFlagsFlag.Name) {
				risk := ctx.Int(riskFlagsFlag.Name)
				cmd.RiskFlags = &risk
			}
			if err := cmd.Validate(); err != nil {
				return err
			}
			resultHash, err := trade.ResultHash(cmd)
			if err != nil {
				return err
			}
			contextHash, err := trade.ContextHash(cmd)
			if err != nil {
				return err
			}
			var risk uint8
			if cmd.RiskFlags != nil {
				risk = uint8(*cmd.RiskFlags)
			}
			return p.SubmitSignal(caller(ctx), core.SignalSubmission{
				Agent:       id,
				TradeIDHash: trade.TradeIDHash(cmd.TradeID),
				ResultHash:  resultHash,
				ContextHash: contextHash,
				RiskFlags:   risk,
			})
		}),
	},
	{
		Name:      "submit-score",
		Usage:     "Score a reported trade as --from (oracle)",
		ArgsUsage: "<agentId> <tradeId|tradeIdHash> <score> <confidenceBps> <scoreHash>",
		Category:  "WORKFLOW COMMANDS",
		Action: action(func(ctx *cli.Context, p *core.Protocol) error {
			a := newArgs(ctx, 5)
			sub := core.ScoreSubmission{
				Agent:         a.uint64(0, "agent id"),
				TradeIDHash:   a.tradeKey(1, "trade"),
				Score:         a.uint16(2, "score"),
				ConfidenceBps: a.uint16(3, "confidence"),
				ScoreHash:     a.hash(4, "score hash"),
			}
			if a.err != nil {
				return a.err
			}
			return p.SubmitScore(caller(ctx), sub)
		}),
	},
	{
		Name:      "distribute",
		Usage:     "Distribute a settlement as --from (revenue operator)",
		ArgsUsage: "<agentId> <tradeId|reference> <amount>",
		Category:  "WORKFLOW COMMANDS",
		Flags:     []cli.Flag{agentAccountFlag},
		Action: func(ctx *cli.Context) error {
			cfg := makeConfig(ctx)
			p, closeFn := openProtocol(ctx, &cfg)
			defer closeFn()

			a := newArgs(ctx, 3)
			id, reference, amount := a.uint64(0, "agent id"), a.tradeKey(1, "reference"), a.uint64(2, "amount")
			if a.err != nil {
				return a.err
			}
			cmd := trade.NewCommand(id, a.string(1, "reference"))
			cmd.AgentTokenAccount = ctx.String(agentAccountFlag.Name)
			if err := cmd.Validate(); err != nil {
				return err
			}
			accts, err := trade.NewService(p, cfg.Trade).SettlementAccounts(cmd)
			if err != nil {
				return err
			}
			part, err := p.DistributeSettlement(caller(ctx), id, reference, amount, accts)
			if err != nil {
				return fmt.Errorf("distribute failed: %v (code %d)", err, core.ErrorCode(err))
			}
			fmt.Printf("Distributed %d: protocol=%d platform=%d referrer=%d reserve=%d agent=%d\n",
				amount, part.Protocol, part.Platform, part.Referrer, part.Reserve, part.Agent)
			return nil
		},
	},
}

var tokenCommand = cli.Command{
	Name:     "token",
	Usage:    "Manage settlement token accounts",
	Category: "TOKEN COMMANDS",
	Subcommands: []cli.Command{
		{
			Name:      "open",
			Usage:     "Open a token account",
			ArgsUsage: "<address> <owner> <mint>",
			Action: action(func(ctx *cli.Context, p *core.Protocol) error {
				a := newArgs(ctx, 3)
				addr, owner, mint := a.address(0, "address"), a.address(1, "owner"), a.address(2, "mint")
				if a.err != nil {
					return a.err
				}
				return p.OpenTokenAccount(addr, owner, mint)
			}),
		},
		{
			Name:      "open-associated",
			Usage:     "Open the associated token account of an owner",
			ArgsUsage: "<owner> <mint>",
			Action: action(func(ctx *cli.Context, p *core.Protocol) error {
				a := newArgs(ctx, 2)
				owner, mint := a.address(0, "owner"), a.address(1, "mint")
				if a.err != nil {
					return a.err
				}
				addr, err := p.OpenAssociatedTokenAccount(owner, mint)
				if err != nil {
					return err
				}
				fmt.Println("Opened", addr.Hex())
				return nil
			}),
		},
		{
			Name:      "mint",
			Usage:     "Credit a token account",
			ArgsUsage: "<address> <amount>",
			Action: action(func(ctx *cli.Context, p *core.Protocol) error {
				a := newArgs(ctx, 2)
				addr, amount := a.address(0, "address"), a.uint64(1, "amount")
				if a.err != nil {
					return a.err
				}
				return p.MintTo(addr, amount)
			}),
		},
	},
}
