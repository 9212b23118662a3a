// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Output: &buf, Component: "dns"})

	l.Info("query classified", "domain", "example.com", "blocked", false)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected valid JSON, got error %v (output: %s)", err, buf.String())
	}
	if rec["component"] != "dns" {
		t.Errorf("expected component=dns, got %v", rec["component"])
	}
	if rec["domain"] != "example.com" {
		t.Errorf("expected domain=example.com, got %v", rec["domain"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})

	l.Debug("should not appear")
	l.Info("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below the configured level, got: %s", buf.String())
	}

	l.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn-level record to be emitted, got: %s", buf.String())
	}
}

func TestWithComponentIsIndependent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Output: &buf})
	child := base.WithComponent("tunnel")

	child.Info("tagged")
	base.Info("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"component":"tunnel"`) {
		t.Errorf("expected first line to carry component=tunnel, got: %s", lines[0])
	}
	if strings.Contains(lines[1], "component") {
		t.Errorf("expected second line to carry no component, got: %s", lines[1])
	}
}

func TestSetDefaultAndPackageFuncs(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	defer SetDefault(prev)

	SetDefault(New(Config{Level: slog.LevelInfo, Output: &buf}))
	Info("hello", "key", "value")

	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected package-level Info to reach the default logger, got: %s", buf.String())
	}
}
