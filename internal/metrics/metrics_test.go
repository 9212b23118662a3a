// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAttachesEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m.PacketsDropped.Inc()
	m.DNSCacheHits.Inc()
	m.DNSCacheMisses.Inc()
	m.HookInstallFailures.Inc()
	m.RecordBackupOp("create_backup", nil)

	if got := testutil.ToFloat64(m.PacketsDropped); got != 1 {
		t.Errorf("PacketsDropped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HookInstallFailures); got != 1 {
		t.Errorf("HookInstallFailures = %v, want 1", got)
	}

	count, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(count) != 5 {
		t.Errorf("expected 5 registered metric families, got %d", len(count))
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := New().Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := New().Register(reg); err == nil {
		t.Error("expected second Register with duplicate collector names to fail")
	}
}

func TestRecordBackupOpLabelsByResult(t *testing.T) {
	m := New()
	m.RecordBackupOp("delete_backup", nil)
	m.RecordBackupOp("delete_backup", errors.New("boom"))

	if got := testutil.ToFloat64(m.BackupOperations.WithLabelValues("delete_backup", "ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BackupOperations.WithLabelValues("delete_backup", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}
