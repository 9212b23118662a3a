// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command privariond is the daemon process: it loads the configuration
// file, builds a CoreContext wiring every engine together, starts the
// services the active profile enables, and runs until it receives SIGINT
// or SIGTERM. This binary has no subcommands and serves no control
// interface of its own.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/privarion/privariond/internal/config"
	"github.com/privarion/privariond/internal/corectx"
	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/paths"
	"github.com/privarion/privariond/internal/supervisor"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	sup := supervisor.New(paths.StateDir(), supervisor.DefaultConfig())
	wasPanic := false
	defer func() {
		if r := recover(); r != nil {
			wasPanic = true
			fmt.Fprintf(os.Stderr, "privariond: fatal: %v\n", r)
			exitCode = 1
		}
		if !supervisor.ShouldSkipDetection() {
			_ = sup.RecordExit(exitCode, syscall.Signal(0), wasPanic)
		}
	}()

	configPath := filepath.Join(paths.ConfigDir(), paths.ConfigFileName)
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfgFile, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "privariond: load configuration %s: %v\n", configPath, err)
		return 1
	}
	if errs := cfgFile.Config.Validate(); errs.HasErrors() {
		fmt.Fprintf(os.Stderr, "privariond: invalid configuration: %s\n", errs.Error())
		return 1
	}

	logging.SetDefault(logging.New(logging.Config{
		Level:     logLevel(cfgFile.Config.Global.LogLevel),
		Pretty:    os.Getenv("INVOCATION_ID") == "",
		Component: "privariond",
	}))
	log := logging.Default()

	safeMode := !supervisor.ShouldSkipDetection() && sup.ShouldEnterSafeMode()
	if safeMode {
		log.Error("too many crashes in the tracking window, starting in safe mode: syscall interception and network filtering stay disabled")
		cfgFile.Config.Global.Enabled = false
	}

	snap := config.NewSnapshot(cfgFile.Config)
	cc, err := corectx.New(snap, corectx.Options{
		StateDir:        paths.StateDir(),
		BackupRetention: 0,
	})
	if err != nil {
		log.Error("failed to build core context", "error", err)
		return 1
	}
	defer cc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	active := cfgFile.Config.ActiveModules()
	for _, svc := range cc.Services() {
		if safeMode || !serviceEnabled(svc.Name(), active) {
			continue
		}
		if err := svc.Start(ctx); err != nil {
			log.Error("service failed to start", "service", svc.Name(), "error", err)
		}
	}

	sup.StartStabilityTimer()
	log.Info("privariond started", "config", configPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received signal, shutting down", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	for _, svc := range cc.Services() {
		if err := svc.Stop(shutdownCtx); err != nil {
			log.Warn("service failed to stop cleanly", "service", svc.Name(), "error", err)
		}
	}

	return 0
}

// serviceEnabled reports whether toggles enable the named managed service.
func serviceEnabled(name string, toggles config.ModuleToggles) bool {
	switch name {
	case "tunnel":
		return toggles.NetworkFilter.Enabled
	case "hook":
		return toggles.SyscallHook.Enabled
	default:
		return false
	}
}

func logLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarning:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
