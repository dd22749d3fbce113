// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bridgelog provides a simple way of logging with different
// levels. Time/Date are not logged by default because systemd adds
// them for us (change with SetLogDateTime).
//
// Uses these prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package bridgelog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	CritWriter  io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]    "
	InfoPrefix  string = "<6>[INFO]     "
	WarnPrefix  string = "<4>[WARNING]  "
	ErrPrefix   string = "<3>[ERROR]    "
	CritPrefix  string = "<2>[CRITICAL] "
)

var (
	debugLog = log.New(DebugWriter, DebugPrefix, 0)
	infoLog  = log.New(InfoWriter, InfoPrefix, 0)
	warnLog  = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	errLog   = log.New(ErrWriter, ErrPrefix, log.Llongfile)
	critLog  = log.New(CritWriter, CritPrefix, log.Llongfile)

	debugTimeLog = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	infoTimeLog  = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	warnTimeLog  = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	errTimeLog   = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
	critTimeLog  = log.New(CritWriter, CritPrefix, log.LstdFlags|log.Llongfile)
)

// SetLogLevel discards writers below lvl ("debug", "info", "warn",
// "err"/"fatal", "crit"), cascading as in the original: a higher level
// silences every level below it.
func SetLogLevel(lvl string) {
	switch lvl {
	case "crit":
		ErrWriter = io.Discard
		fallthrough
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
		// nothing to do
	default:
		fmt.Printf("bridgelog: flag 'loglevel' has invalid value %q, using 'debug'\n", lvl)
		SetLogLevel("debug")
	}
}

// SetLogDateTime toggles a LstdFlags timestamp prefix, for deployments
// without systemd's own timestamping.
func SetLogDateTime(v bool) {
	logDateTime = v
}

func output(w io.Writer, plain, timed *log.Logger, v string) {
	if w == io.Discard {
		return
	}
	if logDateTime {
		timed.Output(3, v)
	} else {
		plain.Output(3, v)
	}
}

func Debug(v ...interface{}) { output(DebugWriter, debugLog, debugTimeLog, fmt.Sprint(v...)) }
func Info(v ...interface{})  { output(InfoWriter, infoLog, infoTimeLog, fmt.Sprint(v...)) }
func Warn(v ...interface{})  { output(WarnWriter, warnLog, warnTimeLog, fmt.Sprint(v...)) }
func Error(v ...interface{}) { output(ErrWriter, errLog, errTimeLog, fmt.Sprint(v...)) }
func Crit(v ...interface{})  { output(CritWriter, critLog, critTimeLog, fmt.Sprint(v...)) }

func Debugf(format string, v ...interface{}) {
	output(DebugWriter, debugLog, debugTimeLog, fmt.Sprintf(format, v...))
}
func Infof(format string, v ...interface{}) {
	output(InfoWriter, infoLog, infoTimeLog, fmt.Sprintf(format, v...))
}
func Warnf(format string, v ...interface{}) {
	output(WarnWriter, warnLog, warnTimeLog, fmt.Sprintf(format, v...))
}
func Errorf(format string, v ...interface{}) {
	output(ErrWriter, errLog, errTimeLog, fmt.Sprintf(format, v...))
}
func Critf(format string, v ...interface{}) {
	output(CritWriter, critLog, critTimeLog, fmt.Sprintf(format, v...))
}

// Fatal logs at error level then terminates the process, matching the
// teacher's contract that Fatal never returns.
func Fatal(v ...interface{}) {
	Error(v...)
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	Errorf(format, v...)
	os.Exit(1)
}
