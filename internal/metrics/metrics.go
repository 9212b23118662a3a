// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package metrics exposes the operator-facing counters the core's
// engines update as they run. Publishing is out-of-band observation
// only: no engine blocks on, or fails because of, a metric update.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every counter the core's engines update.
type Metrics struct {
	PacketsDropped      prometheus.Counter
	DNSCacheHits        prometheus.Counter
	DNSCacheMisses      prometheus.Counter
	BackupOperations    *prometheus.CounterVec
	HookInstallFailures prometheus.Counter
}

// New constructs an unregistered Metrics. Use Register to attach it to a
// prometheus.Registerer.
func New() *Metrics {
	return &Metrics{
		PacketsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privarion_packets_dropped_total",
			Help: "Total number of packets the Packet Filter Engine dropped.",
		}),
		DNSCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privarion_dns_cache_hits_total",
			Help: "Total number of DNS queries served from the domain cache.",
		}),
		DNSCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privarion_dns_cache_misses_total",
			Help: "Total number of DNS queries that missed the domain cache.",
		}),
		BackupOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "privarion_backup_operations_total",
			Help: "Total number of Identity Backup Store operations, by operation and result.",
		}, []string{"op", "result"}),
		HookInstallFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "privarion_hook_install_failures_total",
			Help: "Total number of failed syscall interposer installation attempts.",
		}),
	}
}

// Register attaches every collector in m to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.PacketsDropped,
		m.DNSCacheHits,
		m.DNSCacheMisses,
		m.BackupOperations,
		m.HookInstallFailures,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordBackupOp increments the backup operation counter for op, using
// "ok" or "error" as the result label depending on err.
func (m *Metrics) RecordBackupOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.BackupOperations.WithLabelValues(op, result).Inc()
}
