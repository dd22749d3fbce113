// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pnconfig loads and validates the bridge's config.json
// (SPEC_FULL.md §A.1), the JSON-Schema-checked counterpart to the
// command-line flags that cover the same ground as the original C
// getopt() arguments (-i, -s, -l, -c, -p, -x).
package pnconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config is the full set of process configuration values (spec.md §6.4).
type Config struct {
	EthInterface   string `json:"ethInterface"`
	StationName    string `json:"stationName"`
	LineName       string `json:"lineName"`
	ControllerName string `json:"controllerName"`
	ProgramName    string `json:"programName"`
	Prefix         string `json:"prefix"`
	TickIntervalUs int64  `json:"tickIntervalUs"`

	Influx struct {
		Host          string `json:"host"`
		Port          int    `json:"port"`
		MaxPacketSize int    `json:"maxPacketSize"`
	} `json:"influx"`

	PubSub struct {
		Address       string `json:"address"`
		Username      string `json:"username"`
		Password      string `json:"password"`
		CredsFilePath string `json:"credsFilePath"`
	} `json:"pubsub"`

	Health struct {
		ListenAddress string `json:"listenAddress"`
	} `json:"health"`

	LogLevel    string `json:"logLevel"`
	LogDateTime bool   `json:"logDateTime"`
}

// Default mirrors the original C APP_DEFAULT_* constants and the
// spec's suggested tick/packet defaults.
func Default() Config {
	var c Config
	c.EthInterface = "eth0"
	c.StationName = "historianio"
	c.LineName = "Line1"
	c.ControllerName = "PLC1"
	c.ProgramName = "Program1"
	c.Prefix = ""
	c.TickIntervalUs = 500
	c.Influx.Host = "127.0.0.1"
	c.Influx.Port = 8089
	c.Influx.MaxPacketSize = 0 // 0 -> derive from loopback MTU, see DefaultMaxPacketSize
	c.PubSub.Address = ""
	c.Health.ListenAddress = ":9090"
	c.LogLevel = "warn"
	return c
}

// Load reads path, validates it against the bridge's JSON Schema, and
// decodes it on top of Default(). A missing path is not an error: the
// defaults are returned unchanged, matching the teacher's "config.json
// is optional" convention.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("pnconfig: read %s: %w", path, err)
	}

	if err := Validate(raw); err != nil {
		return Config{}, fmt.Errorf("pnconfig: %s failed schema validation: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("pnconfig: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks raw against the bridge's embedded config schema.
func Validate(raw []byte) error {
	sch, err := jsonschema.CompileString("pnbridge-config.json", configSchema)
	if err != nil {
		return fmt.Errorf("pnconfig: compiling schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("pnconfig: invalid json: %w", err)
	}
	return sch.Validate(v)
}
