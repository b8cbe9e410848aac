// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
)

// DefaultResolvers are the public DNS resolvers used when no others have been
// specified.
var DefaultResolvers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// Resolver resolves names using multiple independent DNS servers for
// redundancy: servers are asked in order until one of them gives a definitive
// answer. Each server gets its own [DnsPool].
type Resolver struct {
	pools []*DnsPool
}

// NewResolver returns a new Resolver with a pool of the specified size for each
// of the specified DNS server addresses. The DNS client settings, such as
// protocol and timeouts, are shared by all pools.
func NewResolver(ctx context.Context, size int, dnsclnt *dns.Client, addrs ...string) (*Resolver, error) {
	if len(addrs) == 0 {
		addrs = DefaultResolvers
	}
	r := &Resolver{}
	for _, addr := range addrs {
		pool, err := New(ctx, size, dnsclnt, addr)
		if err != nil {
			r.StopWait()
			return nil, err
		}
		r.pools = append(r.pools, pool)
	}
	return r, nil
}

// Resolve returns the A and AAAA addresses of the specified domain. Resolution
// failures of any kind are not reported as errors, but instead as an empty
// address list: for our purposes a domain that cannot be resolved is as good
// as (or rather as bad as) an unregistered domain.
//
// The first DNS server that either returns addresses, or reports that the name
// doesn't exist or has no addresses, settles the matter. Transport errors and
// server failures make Resolve try the next server.
func (r *Resolver) Resolve(ctx context.Context, domain string) []string {
	type result struct {
		addrs []string
		err   error
	}
	for _, pool := range r.pools {
		// buffered, so the callback never blocks when we bail out early.
		ch := make(chan result, 1)
		pool.ResolveName(ctx, domain, func(addrs []string, err error) {
			ch <- result{addrs: addrs, err: err}
		})
		var res result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return nil
		}
		switch {
		case len(res.addrs) > 0 || res.err == nil:
			log.Debugf("%s resolves to %v via %s", domain, res.addrs, pool.Addr())
			return res.addrs
		case errors.Is(res.err, ErrNoSuchDomain), errors.Is(res.err, ErrNoAnswers):
			log.Debugf("%s does not resolve via %s", domain, pool.Addr())
			return nil
		case ctx.Err() != nil:
			return nil
		}
		log.Debugf("cannot resolve %s via %s: %s", domain, pool.Addr(), res.err.Error())
	}
	return nil
}

// StopWait waits for all in-flight lookups to finish and then shuts down all
// DNS client pools.
func (r *Resolver) StopWait() {
	for _, pool := range r.pools {
		pool.StopWait()
	}
}
