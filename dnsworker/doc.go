/*
Package dnsworker implements a simple limiting DNS client-request execution
pool, as well as a [Resolver] asking multiple DNS servers in turn. orphandig
uses a [Resolver] with a pool of “DNS workers” per DNS server for A/AAAA
lookups of maintainer e-mail domains. Please note that the A/AAAA queries for
a single name are not concurrent.

Usage

	dnsclnt := dns.Client{Net: "udp", Timeout: 2 * time.Second}
	resolver, err := dnsworker.NewResolver(
	    context.Background(),
	    100,                      // number of parallel DNS connections per server
	    &dnsclnt,                 // DNS client
	    "8.8.8.8:53", "1.1.1.1:53", // addresses of servers/resolvers
	)
	addrs := resolver.Resolve(ctx, "example.org")
	if len(addrs) == 0 {
	    // does not resolve, for whatever reason.
	}
	resolver.StopWait()

A single [DnsPool] can also be used directly:

	workers.ResolveName(ctx,
	    "foobar.example.org",
	    func(addrs []string, err error){
	        // do something with addrs, unless there's an error reported
	    })
	workers.Submit(func(conn *dns.Conn){
	    // do something with the DNS connection
	})

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as
the limiting goroutine pool.

[github.com/gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnsworker
