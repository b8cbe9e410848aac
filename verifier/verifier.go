// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"sync"

	"github.com/siemens/orphandig/types"
	"github.com/thediveo/lxkns/log"
)

// Resolver resolves a domain into its addresses. Resolution failures of any
// kind must be reported as an empty address list.
type Resolver interface {
	Resolve(ctx context.Context, domain string) []string
}

// Verifier verifies the maintainer domains of a stream of classified
// packages, caching domain verdicts as to look up each domain only once. It
// streams orphan reports for packages with unregistered domains.
type Verifier struct {
	size     int
	resolver Resolver
	cache    *DomainCache
	stats    *types.Stats
	news     chan types.OrphanReport
}

// VerifierOption can be passed to New when creating new [Verifier] objects.
type VerifierOption func(*Verifier)

// WithCache makes a Verifier use the specified domain cache instead of a
// fresh one.
func WithCache(cache *DomainCache) VerifierOption {
	return func(v *Verifier) {
		v.cache = cache
	}
}

// WithStats makes a Verifier count its lookups and orphans in the specified
// stats.
func WithStats(stats *types.Stats) VerifierOption {
	return func(v *Verifier) {
		v.stats = stats
	}
}

// New returns a new Verifier that verifies domains with a maximum number of
// parallel verification workers, as well as the channel streaming the orphan
// reports.
func New(resolver Resolver, size int, options ...VerifierOption) (*Verifier, <-chan types.OrphanReport) {
	if size < 1 {
		size = 1
	}
	news := make(chan types.OrphanReport, size)
	v := &Verifier{
		size:     size,
		resolver: resolver,
		news:     news,
	}
	for _, opt := range options {
		opt(v)
	}
	if v.cache == nil {
		v.cache = NewDomainCache()
	}
	if v.stats == nil {
		v.stats = &types.Stats{}
	}
	return v, news
}

// Cache returns the domain cache used by this Verifier.
func (v *Verifier) Cache() *DomainCache { return v.cache }

// Verify verifies the incoming stream of classified packages until the input
// channel is closed. It then waits for all verification workers to complete,
// closes the output channel returned by New, and finally returns.
//
// In case the specified context is cancelled, then Verify will stop pulling off
// new packages and return as soon as possible, closing the output channel.
func (v *Verifier) Verify(ctx context.Context, in <-chan types.ClassifiedPackage) {
	var wg sync.WaitGroup
	wg.Add(v.size)
	for i := 0; i < v.size; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case pkg, ok := <-in:
					if !ok {
						return
					}
					if !v.verify(ctx, pkg) {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
	close(v.news)
}

// verify a single classified package, returning false if the context got
// cancelled.
func (v *Verifier) verify(ctx context.Context, pkg types.ClassifiedPackage) bool {
	switch v.cache.Lookup(pkg) {
	case types.Unregistered:
		return v.orphaned(ctx, pkg)
	case types.Resolved, types.Resolving:
		// Either the package is fine, or the worker looking up the domain
		// will take care of it.
		return true
	}
	log.Debugf("resolving %s ...", pkg.Domain)
	v.stats.Lookups.Add(1)
	addrs := v.resolver.Resolve(ctx, pkg.Domain)
	if ctx.Err() != nil {
		// An empty address list might be due to the cancellation, so we
		// cannot trust it.
		v.cache.Abandon(pkg.Domain)
		return false
	}
	if len(addrs) > 0 {
		log.Debugf("valid domain: %s", pkg.Domain)
		v.cache.Settle(pkg.Domain, types.Resolved)
		return true
	}
	waiting := v.cache.Settle(pkg.Domain, types.Unregistered)
	if !v.orphaned(ctx, pkg) {
		return false
	}
	for _, pkg := range waiting {
		if !v.orphaned(ctx, pkg) {
			return false
		}
	}
	return true
}

// orphaned sends an orphan report for the specified package, returning false
// if the context got cancelled while waiting for the consumer.
func (v *Verifier) orphaned(ctx context.Context, pkg types.ClassifiedPackage) bool {
	log.Debugf("orphaned package! %s", pkg.Name)
	select {
	case v.news <- pkg.Orphan():
		v.stats.Orphans.Add(1)
		return true
	case <-ctx.Done():
		return false
	}
}
