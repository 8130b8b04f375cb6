package main

import (
	"flag"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/voluzi/memwatch/internal/environ"
)

func init() {
	flag.StringVar(&host, "host",
		environ.GetString("HOST", "0.0.0.0"),
		"the host at which this server will be listening to",
	)

	flag.IntVar(&port, "port",
		environ.GetInt("PORT", 8000),
		"the port at which this server will be listening to",
	)

	flag.DurationVar(&interval, "interval",
		environ.GetDuration("INTERVAL", 30*time.Second),
		"the sampling interval",
	)

	flag.TextVar(&threshold, "threshold",
		environ.GetSize("THRESHOLD", 512*datasize.MB),
		"heap usage above this size triggers threshold notifications",
	)

	flag.IntVar(&maxHistory, "max-history",
		environ.GetInt("MAX_HISTORY", 100),
		"how many samples each history buffer retains",
	)

	flag.BoolVar(&enableGC, "gc-tracking",
		environ.GetBool("GC_TRACKING", true),
		"periodically record heap allocator statistics",
	)

	flag.DurationVar(&gcInterval, "gc-interval",
		environ.GetDuration("GC_INTERVAL", 5*time.Second),
		"cadence of the allocator statistics poller",
	)

	flag.BoolVar(&enablePredictions, "predictions",
		environ.GetBool("PREDICTIONS", true),
		"evaluate memory growth trends on every sample",
	)

	flag.TextVar(&warning, "warning",
		environ.GetSize("WARNING", 0),
		"heap size for warning alerts (0 disables)",
	)

	flag.TextVar(&critical, "critical",
		environ.GetSize("CRITICAL", 0),
		"heap size for critical alerts (0 disables)",
	)

	flag.StringVar(&rulesFile, "rules-file",
		environ.GetString("RULES_FILE", ""),
		"YAML file with alert levels, reloaded on change (empty disables)",
	)

	flag.StringVar(&snapshotDir, "snapshot-dir",
		environ.GetString("SNAPSHOT_DIR", "./snapshots"),
		"directory where heap snapshots are written",
	)

	flag.StringVar(&exportDir, "export-dir",
		environ.GetString("EXPORT_DIR", "./exports"),
		"directory where reports are written",
	)

	flag.BoolVar(&autoSnapshot, "auto-snapshot",
		environ.GetBool("AUTO_SNAPSHOT", false),
		"capture a heap snapshot automatically on critical alerts",
	)

	flag.DurationVar(&minSnapshotGap, "min-snapshot-gap",
		environ.GetDuration("MIN_SNAPSHOT_GAP", 5*time.Minute),
		"minimum spacing between automatic heap snapshots",
	)

	flag.StringVar(&metricsURL, "metrics-url",
		environ.GetString("METRICS_URL", ""),
		"sample a remote process through its Prometheus metrics endpoint",
	)

	flag.StringVar(&processName, "process-name",
		environ.GetString("PROCESS_NAME", ""),
		"sample a sibling process by binary name instead of this process",
	)

	flag.StringVar(&gcTracePath, "gctrace-path",
		environ.GetString("GCTRACE_PATH", ""),
		"file or fifo to watch for runtime gctrace output (empty disables)",
	)

	flag.BoolVar(&createFifo, "create-fifo",
		environ.GetBool("CREATE_FIFO", false),
		"create the gctrace path as a named pipe before tailing it",
	)

	flag.StringVar(&logLevel, "log-level",
		environ.GetString("LOG_LEVEL", "info"),
		"log level",
	)
}
