// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/miekg/dns"
	"github.com/siemens/orphandig/classifier"
	"github.com/siemens/orphandig/dnsworker"
	"github.com/siemens/orphandig/registry"
	"github.com/siemens/orphandig/report"
	"github.com/siemens/orphandig/source"
	"github.com/siemens/orphandig/types"
	"github.com/siemens/orphandig/verifier"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/sync/errgroup"
)

// DefaultDNSWorkers is the default number of parallel domain lookups.
const DefaultDNSWorkers = 100

// DefaultDNSTimeout caps a single DNS exchange.
const DefaultDNSTimeout = 2 * time.Second

// Options control a scan. Zero values select the defaults, except for
// MaxRetries where zero means not to retry at all.
type Options struct {
	ListingURL  string       // bulk listing of all package names.
	RegistryURL string       // base URL of package metadata documents.
	UserAgent   string       // HTTP user agent.
	HTTPClient  *http.Client // HTTP client for registry requests.
	Rate        float64      // metadata requests per second; zero is unlimited.

	APIWorkers  int           // parallel metadata fetches.
	Backoff     time.Duration // initial delay after being rate limited.
	MaxBackoff  time.Duration // maximum delay after being rate limited.
	MaxRetries  int           // rate-limit retries; negative is unlimited.
	Registrable bool          // reduce maintainer domains to registrable domains.

	DNSWorkers int           // parallel domain lookups per resolver.
	Resolvers  []string      // "host:port" addresses of DNS resolvers.
	DNSTimeout time.Duration // timeout of a single DNS exchange.

	Out   io.Writer    // where to report orphaned packages; defaults to stdout.
	Err   io.Writer    // where to report per-package errors; defaults to stderr.
	Stats *types.Stats // optional counters to observe the scan while running.
}

func (o Options) withDefaults() Options {
	if o.ListingURL == "" {
		o.ListingURL = registry.DefaultListingURL
	}
	if o.RegistryURL == "" {
		o.RegistryURL = registry.DefaultMetadataURL
	}
	if o.UserAgent == "" {
		o.UserAgent = registry.DefaultUserAgent
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.APIWorkers < 1 {
		o.APIWorkers = classifier.DefaultWorkers
	}
	if o.Backoff <= 0 {
		o.Backoff = classifier.DefaultBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = classifier.DefaultMaxBackoff
	}
	if o.DNSWorkers < 1 {
		o.DNSWorkers = DefaultDNSWorkers
	}
	if len(o.Resolvers) == 0 {
		o.Resolvers = dnsworker.DefaultResolvers
	}
	if o.DNSTimeout <= 0 {
		o.DNSTimeout = DefaultDNSTimeout
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Stats == nil {
		o.Stats = &types.Stats{}
	}
	return o
}

// Run scans a registry for orphaned packages, reporting them as they are
// found. Run returns after the complete listing has been processed, or
// early when either the listing failed or the context got cancelled. The
// returned error is nil only for a complete scan.
func Run(ctx context.Context, opts Options) (types.StatsSnapshot, error) {
	opts = opts.withDefaults()
	stats := opts.Stats

	dnsclnt := dns.Client{Net: "udp", Timeout: opts.DNSTimeout}
	resolver, err := dnsworker.NewResolver(ctx, opts.DNSWorkers, &dnsclnt, opts.Resolvers...)
	if err != nil {
		return stats.Snapshot(), err
	}
	defer resolver.StopWait()

	clnt := registry.New(
		registry.WithHTTPClient(opts.HTTPClient),
		registry.WithListingURL(opts.ListingURL),
		registry.WithMetadataURL(opts.RegistryURL),
		registry.WithUserAgent(opts.UserAgent),
		registry.WithRateLimit(opts.Rate))

	src, names := source.New(clnt, opts.APIWorkers, source.WithStats(stats))
	cls, lonely := classifier.New(clnt, opts.APIWorkers,
		classifier.WithBackoff(opts.Backoff),
		classifier.WithMaxBackoff(opts.MaxBackoff),
		classifier.WithMaxRetries(opts.MaxRetries),
		classifier.WithRegistrableDomains(opts.Registrable),
		classifier.WithErrorWriter(opts.Err),
		classifier.WithStats(stats))
	ver, news := verifier.New(resolver, opts.DNSWorkers, verifier.WithStats(stats))
	rep := report.New(opts.Out)

	log.Infof("scanning %s with %d API workers and %d DNS workers using %v",
		opts.ListingURL, opts.APIWorkers, opts.DNSWorkers, opts.Resolvers)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Stream(gctx) })
	g.Go(func() error {
		cls.Classify(gctx, names)
		return nil
	})
	g.Go(func() error {
		ver.Verify(gctx, lonely)
		return nil
	})
	g.Go(func() error {
		_, err := rep.Report(gctx, news)
		return err
	})
	err = g.Wait()
	snapshot := stats.Snapshot()
	if err != nil {
		log.Errorf("scan aborted: %s", err.Error())
		return snapshot, err
	}
	log.Infof("scanned %d packages, found %d orphans", snapshot.Listed, snapshot.Orphans)
	return snapshot, nil
}
