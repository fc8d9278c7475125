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
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/ethereum/go-ethereum/log"
	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/n3roai/go-n3ro/internal/x402"
	"github.com/n3roai/go-n3ro/params"
	"github.com/n3roai/go-n3ro/trade"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[dumpfile]",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// nodeConfig holds the local storage and HTTP settings.
type nodeConfig struct {
	DataDir         string
	DatabaseCache   int
	DatabaseHandles int
	RecordCache     int

	HTTPHost string
	HTTPPort int
	HTTPCors []string `toml:",omitempty"`
}

var defaultNode = nodeConfig{
	DataDir:         defaultDataDir(),
	DatabaseCache:   64,
	DatabaseHandles: 256,
	RecordCache:     4096,
	HTTPHost:        "localhost",
	HTTPPort:        8645,
}

type n3roConfig struct {
	Node     nodeConfig
	Protocol params.ProtocolSettings
	Trade    trade.Config
	Payment  x402.Config
}

func defaultConfig() n3roConfig {
	return n3roConfig{
		Node:     defaultNode,
		Protocol: params.DefaultProtocolSettings,
		Trade:    trade.DefaultConfig,
		Payment:  x402.DefaultConfig,
	}
}

func loadConfig(file string, cfg *n3roConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file and applies command line flags.
func makeConfig(ctx *cli.Context) n3roConfig {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			Fatalf("%v", err)
		}
	}
	if ctx.GlobalIsSet(dataDirFlag.Name) || cfg.Node.DataDir == "" {
		cfg.Node.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(cacheFlag.Name) {
		cfg.Node.DatabaseCache = ctx.GlobalInt(cacheFlag.Name)
	}
	applyHTTPFlags(ctx, &cfg.Node)
	log.Debug("Loaded configuration", "datadir", cfg.Node.DataDir, "http", fmt.Sprintf("%s:%d", cfg.Node.HTTPHost, cfg.Node.HTTPPort))
	return cfg
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.Write(out)
	return nil
}
