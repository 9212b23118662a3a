// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package corectx defines CoreContext, the single explicit value that
// replaces the global mutable singletons (hook manager, logger,
// configuration) a naive port of this daemon would otherwise reach for.
// One CoreContext exists per process; New is its init rule, Close its
// teardown rule.
package corectx

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/privarion/privariond/internal/backup"
	"github.com/privarion/privariond/internal/clock"
	"github.com/privarion/privariond/internal/config"
	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/hook"
	"github.com/privarion/privariond/internal/identity"
	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/metrics"
	"github.com/privarion/privariond/internal/netfilter/dns"
	"github.com/privarion/privariond/internal/netfilter/packet"
	"github.com/privarion/privariond/internal/state"
	"github.com/privarion/privariond/internal/tunnel"
)

// CoreContext holds every long-lived handle the core's engines share: the
// current configuration snapshot, the logger, the durable store, and the
// five engines wired to each other per §9's unidirectional-dependency
// design (Identity Spoofing Manager depends on Identity Backup Store's
// narrow operations API; never the reverse).
type CoreContext struct {
	Config *config.Snapshot
	Log    *logging.Logger

	Store    state.Store
	Backups  *backup.Store
	Identity *identity.Manager
	DNS      *dns.Engine
	Packets  *packet.Engine
	Tunnel   *tunnel.Orchestrator
	Hooks    *hook.Manager
	Metrics  *metrics.Metrics

	unsubscribe func()
	done        chan struct{}
	dnsUpstream string
}

// defaultDNSUpstream is used when no upstream resolver is configured; the
// recognized configuration options (§6) do not name one, so forwarding
// targets a well-known public resolver rather than leaving the field
// empty.
const defaultDNSUpstream = "1.1.1.1:53"

// Options configures New beyond what the ConfigSnapshot itself carries.
type Options struct {
	StateDir        string
	BackupRetention time.Duration
	DNSUpstream     string
	HardwareEngine  identity.HardwareIdentifierEngine
	PlatformProbe   hook.PlatformProbe
	DeviceFactory   tunnel.DeviceFactory
	HostNetwork     tunnel.HostNetwork
	Clock           clock.Clock

	// MetricsRegisterer receives the engines' counters. Defaults to
	// prometheus.DefaultRegisterer; tests that construct more than one
	// CoreContext in the same process should pass a fresh
	// prometheus.NewRegistry() to avoid duplicate-registration errors.
	MetricsRegisterer prometheus.Registerer
}

// New builds a CoreContext from an initial configuration snapshot,
// constructing the durable store, every engine, and wiring the Identity
// Spoofing Manager to the Identity Backup Store via their narrow,
// unidirectional interfaces.
func New(snap *config.Snapshot, opts Options) (*CoreContext, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real
	}

	st, err := state.NewFileStore(opts.StateDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "open state store")
	}

	backups, err := backup.NewStore(st, opts.Clock, opts.BackupRetention)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "open backup store")
	}

	hwEngine := opts.HardwareEngine
	if hwEngine == nil {
		hwEngine = identity.NewHardwareIdentifierEngine()
	}
	idMgr := identity.NewManager(hwEngine, backups)

	upstream := opts.DNSUpstream
	if upstream == "" {
		upstream = defaultDNSUpstream
	}

	cfg := snap.Current()
	dnsEngine := dns.NewEngine(opts.Clock, cfg.Blocklist, cfg.FingerprintingDomains, upstream)
	pktEngine := packet.NewEngine(opts.Clock, packet.DefaultCacheTTL, nil, cfg.Blocklist, dnsEngine, nil)

	hookProbe := opts.PlatformProbe
	if hookProbe == nil {
		hookProbe = hook.NewPlatformProbe()
	}
	hookMgr := hook.NewManager(hookProbe)

	deviceFactory := opts.DeviceFactory
	if deviceFactory == nil {
		deviceFactory = tunnel.RealDeviceFactory
	}
	hostNet := opts.HostNetwork
	if hostNet == nil {
		hostNet = tunnel.NewNopHostNetwork()
	}
	orchestrator := tunnel.New(tunnel.DefaultConfiguration(), tunnel.DefaultRetryPolicy(), deviceFactory, hostNet, pktEngine, dnsEngine)

	log := logging.Default().WithComponent("core")

	metricsReg := opts.MetricsRegisterer
	if metricsReg == nil {
		metricsReg = prometheus.DefaultRegisterer
	}
	metricsClient := metrics.New()
	if err := metricsClient.Register(metricsReg); err != nil {
		log.Warn("metrics registration failed, counters will not be published", "error", err)
	}
	dnsEngine.SetMetrics(metricsClient)
	pktEngine.SetMetrics(metricsClient)
	hookMgr.SetMetrics(metricsClient)
	backups.SetMetrics(metricsClient)

	cc := &CoreContext{
		Config:      snap,
		Log:         log,
		Store:       st,
		Backups:     backups,
		Identity:    idMgr,
		DNS:         dnsEngine,
		Packets:     pktEngine,
		Tunnel:      orchestrator,
		Hooks:       hookMgr,
		Metrics:     metricsClient,
		done:        make(chan struct{}),
		dnsUpstream: upstream,
	}

	changes := make(chan *config.Config, 1)
	cc.unsubscribe = snap.Subscribe(changes)
	go cc.watchConfig(changes)

	return cc, nil
}

// watchConfig reloads every engine whenever the snapshot is replaced,
// implementing the "broadcast to subscribers" behavior the configuration
// data model calls for. It runs until Close stops it.
func (cc *CoreContext) watchConfig(changes chan *config.Config) {
	for {
		select {
		case next := <-changes:
			cc.DNS.Reload(next.Blocklist, next.FingerprintingDomains, cc.dnsUpstream)
			cc.Packets.Reload(nil, next.Blocklist)
			if _, err := installHooksFromConfig(cc.Hooks, next); err != nil {
				cc.Log.Warn("failed to apply syscall interposer configuration change", "error", err)
			}
		case <-cc.done:
			return
		}
	}
}

// Close tears CoreContext down: stops the config watch, stops the tunnel,
// and detaches every installed hook. The backup store's last-written state
// on disk is untouched; it is already durable by construction.
func (cc *CoreContext) Close() error {
	close(cc.done)
	if cc.unsubscribe != nil {
		cc.unsubscribe()
	}

	var firstErr error
	if err := cc.Tunnel.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	cc.Hooks.DetachAll()
	return firstErr
}
