// Package metrics exposes Prometheus collectors for scan activity. The
// collectors are registered at import time via promauto and served on
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan run metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netshelf_scan_runs_total",
			Help: "Total number of library scan runs",
		},
	)

	ScanRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netshelf_scan_running",
			Help: "1 while a library scan run is in progress",
		},
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netshelf_scan_last_run_duration_seconds",
			Help: "Duration of the last scan run in seconds",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netshelf_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed scan run",
		},
	)
)

// Per-folder outcome metrics
var (
	FoldersScannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netshelf_scan_folders_scanned_total",
			Help: "Total number of folders scanned successfully",
		},
	)

	FoldersSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netshelf_scan_folders_skipped_total",
			Help: "Total number of folders skipped, by reason",
		},
		[]string{"reason"}, // "share_not_found", "share_offline"
	)

	FoldersFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netshelf_scan_folders_failed_total",
			Help: "Total number of folders whose scan failed",
		},
	)
)

// File index metrics
var (
	FilesDiscoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netshelf_scan_files_discovered_total",
			Help: "Total number of video files seen during enumeration",
		},
	)

	FilesNewTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netshelf_scan_files_new_total",
			Help: "Total number of files newly added to an index",
		},
	)

	FilesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netshelf_scan_files_removed_total",
			Help: "Total number of files removed from an index",
		},
	)
)
