// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of pnbridge.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pnbridge is the process-image change-data-capture bridge:
// it samples a cyclic fieldbus process image, detects per-element
// changes, and republishes them to a line-protocol UDP sink and a
// topic pub/sub sink.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/historianio/pnbridge/internal/bridgelog"
	"github.com/historianio/pnbridge/internal/egress"
	"github.com/historianio/pnbridge/internal/egress/influx"
	"github.com/historianio/pnbridge/internal/egress/pubsub"
	"github.com/historianio/pnbridge/internal/fieldbus"
	"github.com/historianio/pnbridge/internal/health"
	"github.com/historianio/pnbridge/internal/mirror"
	"github.com/historianio/pnbridge/internal/pnconfig"
	"github.com/historianio/pnbridge/internal/registry"
	"github.com/historianio/pnbridge/internal/runtimeenv"
	"github.com/historianio/pnbridge/internal/sampler"
	"github.com/historianio/pnbridge/internal/stats"
)

// version is overwritten at link time via -ldflags.
var version string = "development"

func main() {
	cliInit()

	if flagVersion {
		fmt.Printf("pnbridge version %s\n", version)
		return
	}

	if err := runtimeenv.LoadEnv(".env"); err != nil && !os.IsNotExist(err) {
		bridgelog.Warnf("main: could not load .env: %s", err.Error())
	}

	cfg, err := pnconfig.Load(flagConfigFile)
	if err != nil {
		bridgelog.Fatalf("main: %s", err.Error())
	}
	applyFlagOverrides(&cfg)

	bridgelog.SetLogDateTime(cfg.LogDateTime)
	bridgelog.SetLogLevel(cfg.LogLevel)

	if !flagDemo {
		if _, err := runtimeenv.ResolveInterface(cfg.EthInterface); err != nil {
			bridgelog.Fatalf("main: %s", err.Error())
		}
	}

	statsEng := stats.New()
	reg := registry.New()
	mir := mirror.New()
	events := sampler.NewEventSet()

	sinks, influxSink := buildSinks(cfg, statsEng)
	eg := egress.New(sinks...)
	defer eg.Close()

	provider := fieldbus.NewSimulator()

	worker := sampler.New(reg, mir, provider, eg, statsEng, events, cfg.Prefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	tickInterval := time.Duration(cfg.TickIntervalUs) * time.Microsecond
	wg.Add(1)
	go func() {
		defer wg.Done()
		runTicker(ctx, tickInterval, worker.SignalTick)
	}()

	worker.Connect(1)

	if flagDemo {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runDemoTraffic(ctx, reg, provider)
		}()
	}

	healthSrv := health.New(cfg.Health.ListenAddress, statsEng, eg, influxSink)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := healthSrv.ListenAndServe(); err != nil {
			bridgelog.Errorf("main: health server: %s", err.Error())
		}
	}()

	runtimeenv.SystemdNotify(true, "running")
	bridgelog.Infof("main: pnbridge running, interface=%s station=%s demo=%v", cfg.EthInterface, cfg.StationName, flagDemo)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	runtimeenv.SystemdNotify(false, "shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	wg.Wait()
}

func applyFlagOverrides(cfg *pnconfig.Config) {
	if flagEthInterface != "" {
		cfg.EthInterface = flagEthInterface
	}
	if flagStationName != "" {
		cfg.StationName = flagStationName
	}
	if flagLineName != "" {
		cfg.LineName = flagLineName
	}
	if flagControllerName != "" {
		cfg.ControllerName = flagControllerName
	}
	if flagProgramName != "" {
		cfg.ProgramName = flagProgramName
	}
	if flagPrefix != "" {
		cfg.Prefix = flagPrefix
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if lvl := verbosityLogLevel(flagVerbosity); lvl != "" {
		cfg.LogLevel = lvl
	}
	if flagLogDateTime {
		cfg.LogDateTime = true
	}
}

// buildSinks wires the influx and pub/sub sinks per cfg, leaving a
// sink disabled (nil) when its port/address is unset (spec.md §4.4
// "either sink may be disabled at startup by zero port"). It returns
// the influx sink separately (possibly nil) so the health server can
// report its ring-overrun counter.
func buildSinks(cfg pnconfig.Config, statsEng *stats.Engine) ([]egress.Sink, *influx.Sink) {
	tags := egress.Tags{
		Prefix:         cfg.Prefix,
		ControllerName: cfg.ControllerName,
		LineName:       cfg.LineName,
		ProgramName:    cfg.ProgramName,
	}

	var sinks []egress.Sink
	var influxSink *influx.Sink

	if cfg.Influx.Port != 0 {
		sender, err := influx.NewUDPSender(cfg.Influx.Host, cfg.Influx.Port)
		if err != nil {
			bridgelog.Fatalf("main: could not dial influx sink %s:%d: %s", cfg.Influx.Host, cfg.Influx.Port, err.Error())
		}
		maxPacket := cfg.Influx.MaxPacketSize
		if maxPacket <= 0 {
			mtu := 1500 // fallback when no loopback interface named "lo" exists
			if lo, err := net.InterfaceByName("lo"); err == nil {
				mtu = lo.MTU
			}
			maxPacket = influx.DefaultMaxPacketSize(mtu)
		}
		influxSink = influx.New(influx.Config{Tags: tags, MaxPacketSize: maxPacket}, sender,
			statsEng.Accumulator(stats.InfluxPersist), statsEng.Accumulator(stats.InfluxEnqueue))
		sinks = append(sinks, influxSink)
	}

	if cfg.PubSub.Address != "" {
		pubsubSink, err := pubsub.New(pubsub.Config{
			Address:       cfg.PubSub.Address,
			Username:      cfg.PubSub.Username,
			Password:      cfg.PubSub.Password,
			CredsFilePath: cfg.PubSub.CredsFilePath,
			Tags:          tags,
		}, statsEng.Accumulator(stats.ZmqEnqueue))
		if err != nil {
			bridgelog.Fatalf("main: could not connect pub/sub sink %s: %s", cfg.PubSub.Address, err.Error())
		}
		sinks = append(sinks, pubsubSink)
	}

	return sinks, influxSink
}

// runTicker posts TIMER at interval until ctx is cancelled, standing
// in for the fieldbus stack's own cycle clock (spec.md §4.3 "Trigger").
func runTicker(ctx context.Context, interval time.Duration, post func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			post()
		}
	}
}

// runDemoTraffic plugs one U16 module into slot 1 and, every 2s,
// overwrites one randomly chosen element of its image, so -demo mode
// produces a visible change stream without a real controller attached.
func runDemoTraffic(ctx context.Context, reg *registry.Registry, sim *fieldbus.Simulator) {
	const slot = 1
	if err := reg.Plug(slot, registry.ModU16Ident); err != nil {
		bridgelog.Errorf("main: demo plug failed: %s", err.Error())
		return
	}

	image := make([]byte, 256)
	t := time.NewTicker(2 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			idx := rand.Intn(128) * 2
			image[idx] = byte(rand.Intn(256))
			image[idx+1] = byte(rand.Intn(256))
			sim.SetImage(slot, image)
		}
	}
}
