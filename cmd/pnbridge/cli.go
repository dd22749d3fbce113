// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import "flag"

// verbosityCount is a flag.Value that increments on every occurrence
// of its flag, giving "-v -v -v" getopt-style repeatable verbosity
// instead of a single numeric argument.
type verbosityCount int

func (v *verbosityCount) String() string { return "" }
func (v *verbosityCount) Set(string) error {
	*v++
	return nil
}
func (v *verbosityCount) IsBoolFlag() bool { return true }

var (
	flagConfigFile                                                      string
	flagEthInterface, flagStationName, flagLineName, flagControllerName string
	flagProgramName, flagPrefix, flagLogLevel                           string
	flagLogDateTime, flagDemo, flagVersion                              bool
	flagVerbosity                                                       verbosityCount
)

func cliInit() {
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Specify alternative path to `config.json`")
	flag.StringVar(&flagEthInterface, "i", "", "Set Ethernet interface name, overrides config.json")
	flag.StringVar(&flagStationName, "s", "", "Set station name, overrides config.json")
	flag.StringVar(&flagLineName, "l", "", "Set line name, overrides config.json")
	flag.StringVar(&flagControllerName, "c", "", "Set controller name, overrides config.json")
	flag.StringVar(&flagProgramName, "p", "", "Set program name, overrides config.json")
	flag.StringVar(&flagPrefix, "x", "", "Set prefix for measurement names and topics, overrides config.json")
	flag.Var(&flagVerbosity, "v", "Increase log verbosity (may be repeated), overrides config.json and -loglevel")
	flag.BoolVar(&flagDemo, "demo", false, "Skip interface lookup and feed synthetic process images into the built-in fieldbus Simulator")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Set this flag to add date and time to log messages")
	flag.StringVar(&flagLogLevel, "loglevel", "", "Sets the logging level: `[debug, info, warn, err, crit]`, overrides config.json")
	flag.BoolVar(&flagVersion, "version", false, "Show version information and exit")
	flag.Parse()
}

// verbosityLogLevel maps a repeated -v count onto bridgelog's level
// names, each step peeling back one level from the default "warn"
// (spec.md §6.4's -v "verbosity, repeatable").
func verbosityLogLevel(n verbosityCount) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "info"
	default:
		return "debug"
	}
}
