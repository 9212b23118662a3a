// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package dns

import (
	"context"
	"hash/fnv"
	"strings"
	"time"

	miekgdns "github.com/miekg/dns"

	"github.com/privarion/privariond/internal/clock"
	"github.com/privarion/privariond/internal/logging"
	"github.com/privarion/privariond/internal/metrics"
)

// nxdomainTTL is the TTL attached to synthesized NXDOMAIN responses.
const nxdomainTTL = 300 * time.Second

// fingerprintTTL is the TTL attached to synthesized fake-address responses.
const fingerprintTTL = 300 * time.Second

// fakeAddresses is the deterministic pool fake A/AAAA answers are drawn
// from for classified fingerprinting domains.
var fakeAddresses = []string{
	"127.0.0.1",
	"0.0.0.0",
	"192.0.2.1",
	"198.51.100.1",
	"203.0.113.1",
}

// DefaultFingerprintingKeywords mirrors the fingerprinting-keyword set a
// ConfigSnapshot may override.
var DefaultFingerprintingKeywords = []string{
	"fingerprint", "tracking", "analytics", "telemetry", "metrics", "pixel", "fp", "track",
}

// Engine classifies domains and synthesizes or forwards DNS responses. It
// holds no configuration-file knowledge; Reload installs a new snapshot of
// rules atomically.
type Engine struct {
	clk   clock.Clock
	cache *cache
	log   *logging.Logger

	blocklist           map[string]struct{}
	fingerprintKeywords []string
	upstream            string
	client              *miekgdns.Client
	metrics             *metrics.Metrics
}

// SetMetrics attaches m so cache hit/miss events are counted. Nil leaves
// counting disabled.
func (e *Engine) SetMetrics(m *metrics.Metrics) { e.metrics = m }

// NewEngine constructs an Engine with the given blocklist (fully-qualified
// domains) and fingerprinting keywords. An empty keyword slice falls back
// to DefaultFingerprintingKeywords.
func NewEngine(clk clock.Clock, blocklist []string, fingerprintKeywords []string, upstream string) *Engine {
	if len(fingerprintKeywords) == 0 {
		fingerprintKeywords = DefaultFingerprintingKeywords
	}
	bl := make(map[string]struct{}, len(blocklist))
	for _, d := range blocklist {
		bl[normalizeDomain(d)] = struct{}{}
	}
	return &Engine{
		clk:                 clk,
		cache:               newCache(clk),
		log:                 logging.Default().WithComponent("netfilter.dns"),
		blocklist:           bl,
		fingerprintKeywords: fingerprintKeywords,
		upstream:            upstream,
		client:              &miekgdns.Client{Timeout: 2 * time.Second},
	}
}

func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSuffix(d, "."))
}

// Reload replaces the blocklist and fingerprinting keywords and clears the
// cache, matching the ConfigSnapshot-change contract in §4.1/§4.2.
func (e *Engine) Reload(blocklist, fingerprintKeywords []string, upstream string) {
	bl := make(map[string]struct{}, len(blocklist))
	for _, d := range blocklist {
		bl[normalizeDomain(d)] = struct{}{}
	}
	if len(fingerprintKeywords) == 0 {
		fingerprintKeywords = DefaultFingerprintingKeywords
	}
	e.blocklist = bl
	e.fingerprintKeywords = fingerprintKeywords
	e.upstream = upstream
	e.ClearCache()
}

// ClearCache empties the decision cache.
func (e *Engine) ClearCache() { e.cache.clear() }

// IsBlocked reports whether domain or any parent label is on the
// blocklist. Matching is case-insensitive with trailing dot stripped.
func (e *Engine) IsBlocked(domain string) bool {
	domain = normalizeDomain(domain)
	labels := strings.Split(domain, ".")
	for i := range labels {
		candidate := strings.Join(labels[i:], ".")
		if _, ok := e.blocklist[candidate]; ok {
			return true
		}
	}
	return false
}

// IsFingerprintingDomain reports whether any label equals or starts with
// a configured fingerprinting keyword.
func (e *Engine) IsFingerprintingDomain(domain string) bool {
	domain = normalizeDomain(domain)
	for _, label := range strings.Split(domain, ".") {
		for _, kw := range e.fingerprintKeywords {
			if label == kw || strings.HasPrefix(label, kw) {
				return true
			}
		}
	}
	return false
}

// CreateFakeResponse builds the fingerprinting-case response: one address,
// selected deterministically by hashing the domain, so repeated queries
// for the same domain always synthesize the same answer.
func (e *Engine) CreateFakeResponse(q Query) Response {
	h := fnv.New32a()
	h.Write([]byte(normalizeDomain(q.Domain)))
	idx := int(h.Sum32()) % len(fakeAddresses)
	if idx < 0 {
		idx += len(fakeAddresses)
	}
	return Response{
		ID:        q.ID,
		Domain:    q.Domain,
		Addresses: []string{fakeAddresses[idx]},
		TTL:       fingerprintTTL,
	}
}

func (e *Engine) createNXDOMAIN(q Query) Response {
	return Response{ID: q.ID, Domain: q.Domain, Addresses: nil, TTL: nxdomainTTL}
}

// FilterDNSQuery classifies q and returns a synthesized response, or nil to
// signal "forward upstream". Cache hits are returned verbatim with Cached
// set, and never re-evaluate classification rules.
func (e *Engine) FilterDNSQuery(q Query) *Response {
	if cached, ok := e.cache.get(q.Domain, q.Type); ok {
		cached.ID = q.ID
		e.countCache(true)
		return &cached
	}
	e.countCache(false)

	switch {
	case e.IsBlocked(q.Domain):
		resp := e.createNXDOMAIN(q)
		e.cache.put(q.Domain, q.Type, resp, nxdomainTTL)
		resp.Cached = false
		return &resp
	case e.IsFingerprintingDomain(q.Domain):
		resp := e.CreateFakeResponse(q)
		e.cache.put(q.Domain, q.Type, resp, fingerprintTTL)
		resp.Cached = false
		return &resp
	default:
		return nil
	}
}

func (e *Engine) countCache(hit bool) {
	if e.metrics == nil {
		return
	}
	if hit {
		e.metrics.DNSCacheHits.Inc()
	} else {
		e.metrics.DNSCacheMisses.Inc()
	}
}

// Forward sends q to the configured upstream resolver and returns the raw
// reply. It is a best-effort convenience for the tunnel orchestrator;
// failures here never populate the cache and never panic.
func (e *Engine) Forward(ctx context.Context, q Query) (*miekgdns.Msg, error) {
	msg := new(miekgdns.Msg)
	msg.SetQuestion(miekgdns.Fqdn(q.Domain), uint16(q.Type))
	msg.Id = q.ID

	reply, _, err := e.client.ExchangeContext(ctx, msg, e.upstream)
	if err != nil {
		e.log.Warn("dns forward failed", "domain", q.Domain, "upstream", e.upstream, "error", err)
		return nil, err
	}
	return reply, nil
}
