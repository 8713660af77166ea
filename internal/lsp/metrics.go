package lsp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	directionClient = "client_to_server"
	directionServer = "server_to_client"
)

var (
	messagesRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reanalyzer_lsp_messages_total",
		Help: "Messages forwarded by the proxy, by direction",
	}, []string{"direction"})

	readerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reanalyzer_lsp_reader_errors_total",
		Help: "Stream readers that stopped on a framing or I/O error",
	}, []string{"direction"})

	diagnosticsInjected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reanalyzer_lsp_injected_diagnostics_total",
		Help: "Local diagnostics appended to publishDiagnostics notifications",
	})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reanalyzer_lsp_scan_duration_seconds",
		Help:    "Duration of the background workspace scan",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	cachedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reanalyzer_lsp_cached_files",
		Help: "Files with cached local diagnostics",
	})
)
