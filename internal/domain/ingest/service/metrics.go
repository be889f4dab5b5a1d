package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestedFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerbridge",
		Subsystem: "ingest",
		Name:      "files_total",
		Help:      "Ingested files by detected format and outcome.",
	}, []string{"format", "outcome"})

	ingestedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerbridge",
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Data rows seen in successfully processed files, by format.",
	}, []string{"format"})
)

const (
	outcomeProcessed   = "processed"
	outcomeDuplicate   = "duplicate"
	outcomeUnknown     = "unknown_format"
	outcomeUnsupported = "unsupported_format"
	outcomeInvalid     = "invalid"
	outcomeError       = "error"
)
