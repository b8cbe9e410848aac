// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"sort"
	"sync"

	"github.com/siemens/orphandig/types"
)

// DomainCache caches the verdicts about maintainer e-mail domains so that
// each domain gets looked up at most once, yet the verdict is distributed to
// all packages sharing the domain, including packages arriving while the
// lookup is still in flight.
//
// A domain is either unknown to the cache, in resolution, resolved, or
// unregistered; as there is only a single verdict per domain, the sets of
// resolved and unregistered domains are always disjoint. Final verdicts never
// change.
type DomainCache struct {
	mu sync.Mutex
	m  map[string]domainVerdict // domain -> verdict and waiting packages
}

// domainVerdict is the verdict state of a single domain, together with the
// packages waiting for the verdict while the domain is being resolved.
type domainVerdict struct {
	v       types.Verdict
	waiting []types.ClassifiedPackage
}

// NewDomainCache returns a new DomainCache object.
func NewDomainCache() *DomainCache {
	return &DomainCache{
		m: map[string]domainVerdict{},
	}
}

// Lookup checks the domain of the specified package against the cache and
// returns what the caller needs to do with the package:
//   - [types.Unknown]: this is the first time the domain has been seen; the
//     domain is now in resolution and the caller is responsible for looking
//     it up and finally calling [DomainCache.Settle].
//   - [types.Resolving]: another caller is looking up the domain; the package
//     has been parked and will be returned by Settle.
//   - [types.Unregistered]: the package is orphaned.
//   - [types.Resolved]: the package is fine.
//
// The check and the corresponding cache update are atomic.
func (c *DomainCache) Lookup(pkg types.ClassifiedPackage) types.Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()
	dv, ok := c.m[pkg.Domain]
	if !ok {
		c.m[pkg.Domain] = domainVerdict{v: types.Resolving}
		return types.Unknown
	}
	if dv.v == types.Resolving {
		dv.waiting = append(dv.waiting, pkg)
		c.m[pkg.Domain] = dv
	}
	return dv.v
}

// Settle records the final verdict for a domain in resolution and returns the
// packages that have been waiting for this verdict. Settling a domain that
// already has a final verdict doesn't change the verdict and returns nothing.
func (c *DomainCache) Settle(domain string, v types.Verdict) []types.ClassifiedPackage {
	if !v.IsFinal() {
		panic("DomainCache.Settle: verdict " + v.String() + " is not final")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dv := c.m[domain]
	if dv.v.IsFinal() {
		return nil
	}
	c.m[domain] = domainVerdict{v: v}
	return dv.waiting
}

// Abandon puts a domain in resolution back into the unknown state, returning
// the packages that have been waiting for a verdict. Callers use Abandon when
// they cannot finish a lookup, such as when getting cancelled.
func (c *DomainCache) Abandon(domain string) []types.ClassifiedPackage {
	c.mu.Lock()
	defer c.mu.Unlock()
	dv, ok := c.m[domain]
	if !ok || dv.v != types.Resolving {
		return nil
	}
	delete(c.m, domain)
	return dv.waiting
}

// Verdict returns the current verdict about the specified domain.
func (c *DomainCache) Verdict(domain string) types.Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[domain].v // ...zero value is Unknown
}

// Domains returns the sorted list of domains with the specified verdict.
func (c *DomainCache) Domains(v types.Verdict) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	domains := []string{}
	for domain, dv := range c.m {
		if dv.v == v {
			domains = append(domains, domain)
		}
	}
	sort.Strings(domains)
	return domains
}
