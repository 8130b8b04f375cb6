package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/c2h5oh/datasize"
	log "github.com/sirupsen/logrus"
	_ "go.uber.org/automaxprocs"

	"github.com/voluzi/memwatch/pkg/gctrace"
	"github.com/voluzi/memwatch/pkg/monitor"
	"github.com/voluzi/memwatch/pkg/server"
	"github.com/voluzi/memwatch/pkg/sources"
)

var (
	host              string
	port              int
	interval          time.Duration
	threshold         datasize.ByteSize
	maxHistory        int
	enableGC          bool
	gcInterval        time.Duration
	enablePredictions bool
	warning           datasize.ByteSize
	critical          datasize.ByteSize
	rulesFile         string
	snapshotDir       string
	exportDir         string
	autoSnapshot      bool
	minSnapshotGap    time.Duration
	metricsURL        string
	processName       string
	gcTracePath       string
	createFifo        bool
	logLevel          string
)

func main() {
	flag.Parse()

	if level, err := log.ParseLevel(logLevel); err == nil {
		log.SetLevel(level)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	opts, err := monitorOptions()
	if err != nil {
		log.Fatal(err)
	}

	mon, err := monitor.New(opts...)
	if err != nil {
		log.Fatal(err)
	}

	mon.CheckRuntimeCompatibility()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if rulesFile != "" {
		watcher, err := monitor.NewRulesWatcher(rulesFile, mon)
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				log.Errorf("error watching rules file: %v", err)
			}
		}()
	}

	if gcTracePath != "" {
		tracer, err := gctrace.NewTracer(gcTracePath, createFifo)
		if err != nil {
			log.Fatal(err)
		}
		go tracer.Start()
		go consumeGCTrace(tracer)
		defer tracer.Stop()
	}

	if err := mon.Start(interval); err != nil {
		log.Fatal(err)
	}
	defer mon.Stop()

	srv := server.New(mon,
		server.WithHost(host),
		server.WithPort(port),
		server.WithSnapshotDir(snapshotDir),
		server.WithExportDir(exportDir),
	)

	go func() {
		sig := <-sigChan
		log.Infof("received signal: %v", sig)
		cancel()
		if err := srv.Stop(); err != nil {
			log.Errorf("failed to stop server: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}

// monitorOptions assembles the monitor configuration from flags. The sampling
// source is the current process unless a metrics endpoint or a sibling
// process name is given.
func monitorOptions() ([]monitor.Option, error) {
	opts := []monitor.Option{
		monitor.WithThreshold(threshold),
		monitor.WithMaxHistorySize(maxHistory),
		monitor.WithGCTracking(enableGC),
		monitor.WithGCInterval(gcInterval),
		monitor.WithPredictions(enablePredictions),
		monitor.WithSnapshotDir(snapshotDir),
		monitor.WithAutoSnapshot(autoSnapshot),
		monitor.WithMinSnapshotGap(minSnapshotGap),
		monitor.WithAlertThresholds(warning, critical),
	}

	switch {
	case metricsURL != "":
		src := sources.NewPromSource(metricsURL)
		opts = append(opts,
			monitor.WithMemorySource(src),
			monitor.WithCPUSource(src),
			monitor.WithHeapStatsSource(src),
		)
	case processName != "":
		src, err := sources.NewProcessSource(processName)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			monitor.WithMemorySource(src),
			monitor.WithCPUSource(src),
		)
	}

	return opts, nil
}

func consumeGCTrace(tracer *gctrace.Tracer) {
	for ev := range tracer.Events {
		if ev.Err != nil {
			log.Errorf("error on gctrace stream: %v", ev.Err)
			continue
		}
		log.WithFields(map[string]interface{}{
			"gc":        ev.Sequence,
			"uptime":    ev.Uptime,
			"live_mb":   ev.HeapLiveMB,
			"goal_mb":   ev.GoalMB,
			"gc_cpu_pc": ev.UtilPct,
		}).Debug("garbage collection observed")
	}
}
