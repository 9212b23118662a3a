// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import (
	"context"
	"sync"
	"time"

	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/netfilter/dns"
	"github.com/privarion/privariond/internal/netfilter/packet"
)

// State is one of the tunnel's lifecycle states.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// HostNetwork applies and restores the host-level settings (routes,
// resolver) the tunnel requires while running.
type HostNetwork interface {
	Apply(cfg Configuration) error
	Restore() error
}

// Orchestrator drives the tunnel's Stopped→Starting→Running→Stopping→Stopped
// state machine, retries Starting per its RetryPolicy, and guarantees host
// network settings are restored on every exit path.
type Orchestrator struct {
	mu    sync.Mutex
	state State

	cfg           Configuration
	retry         RetryPolicy
	deviceFactory DeviceFactory
	host          HostNetwork
	packets       *packet.Engine
	resolver      *dns.Engine
	log           *logging.Logger

	device   Device
	name     string
	stopCh   chan struct{}
	pumpWG   sync.WaitGroup
	watchdog *Watchdog
}

// Packets returns the Packet Filter Engine the tunnel drives packets
// through, for callers (status reporting, config reload) that need to
// reach it without holding a separate reference.
func (o *Orchestrator) Packets() *packet.Engine { return o.packets }

// New constructs an Orchestrator. deviceFactory may be RealDeviceFactory or
// a fake for tests; host applies/restores network settings.
func New(cfg Configuration, retry RetryPolicy, deviceFactory DeviceFactory, host HostNetwork, packets *packet.Engine, resolver *dns.Engine) *Orchestrator {
	return &Orchestrator{
		state:         Stopped,
		cfg:           cfg,
		retry:         retry,
		deviceFactory: deviceFactory,
		host:          host,
		packets:       packets,
		resolver:      resolver,
		log:           logging.Default().WithComponent("tunnel"),
	}
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Start validates the configuration and attempts to install the tunnel,
// retrying per the RetryPolicy with exponential backoff capped at
// MaxDelay. Cancellation is honored between attempts, not mid-attempt.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.cfg.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.state == Running || o.state == Starting {
		o.mu.Unlock()
		return nil
	}
	o.state = Starting
	o.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < o.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				o.setState(Stopped)
				return ctx.Err()
			case <-time.After(o.retry.delayFor(attempt - 1)):
			}
		}

		if err := o.attempt(); err != nil {
			lastErr = err
			o.log.Warn("tunnel start attempt failed", "attempt", attempt+1, "error", err)
			continue
		}

		o.setState(Running)
		o.startPump()
		return nil
	}

	o.restoreHostBestEffort()
	o.setState(Stopped)
	return errors.WrapCoded(lastErr, errors.KindUnavailable, errors.CodeTunnelStartFailed,
		"tunnel failed to start after all retry attempts")
}

func (o *Orchestrator) attempt() error {
	if err := o.host.Apply(o.cfg); err != nil {
		return err
	}
	dev, err := o.deviceFactory("privarion0", o.cfg.MTU)
	if err != nil {
		_ = o.host.Restore()
		return err
	}
	o.mu.Lock()
	o.device = dev
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) restoreHostBestEffort() {
	if err := o.host.Restore(); err != nil {
		o.log.Error("failed to restore host network settings after start failure", "error", err)
	}
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// startPump launches the goroutine that reads packets off the device and
// feeds every one of them through the Packet Filter Engine. Port-53 UDP
// traffic is not handed to the DNS Filter Engine and no DNS responses are
// synthesized.
func (o *Orchestrator) startPump() {
	o.stopCh = make(chan struct{})
	o.watchdog = NewWatchdog(DefaultWatchdogTimeout, func() {
		o.log.Error("packet pump stalled past watchdog timeout, stopping tunnel")
		_ = o.Stop()
	})
	o.watchdog.Start()
	o.pumpWG.Add(1)
	go o.pump(o.stopCh)
}

func (o *Orchestrator) pump(stop <-chan struct{}) {
	defer o.pumpWG.Done()
	bufs := make([][]byte, 1)
	sizes := make([]int, 1)
	bufs[0] = make([]byte, o.cfg.MTU+32)

	for {
		select {
		case <-stop:
			return
		default:
		}

		o.mu.Lock()
		dev := o.device
		watchdog := o.watchdog
		o.mu.Unlock()
		if dev == nil {
			return
		}

		n, err := dev.Read(bufs, sizes, 0)
		if watchdog != nil {
			watchdog.Kick()
		}
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		verdict := o.packets.FilterPacket(bufs[0][:sizes[0]])
		if verdict.Kind == packet.VerdictAllow || verdict.Kind == packet.VerdictModify {
			_, _ = dev.Write([][]byte{verdict.Packet}, 0)
		}
	}
}

// Stop is idempotent: calling it when already Stopped succeeds
// immediately. On any exit path host network settings are restored; a
// restore failure is surfaced but the tunnel is still considered torn
// down (it never leaks the active device).
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	if o.state == Stopped {
		o.mu.Unlock()
		return nil
	}
	o.state = Stopping
	dev := o.device
	stopCh := o.stopCh
	o.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		o.pumpWG.Wait()
	}
	if dev != nil {
		_ = dev.Close()
	}

	o.mu.Lock()
	if o.watchdog != nil {
		o.watchdog.Stop()
		o.watchdog = nil
	}
	o.device = nil
	o.stopCh = nil
	o.state = Stopped
	o.mu.Unlock()

	if err := o.host.Restore(); err != nil {
		return errors.WrapCoded(err, errors.KindUnavailable, errors.CodeNetworkSettingsRestoreFailed,
			"failed to restore host network settings on tunnel stop")
	}
	return nil
}
