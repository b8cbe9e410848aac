// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/go-faster/errors"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
)

// ErrNoSuchDomain is reported by [DnsPool.ResolveName] when the DNS server
// answers that the queried name does not exist (NXDOMAIN).
var ErrNoSuchDomain = errors.New("no such domain")

// ErrNoAnswers is reported by [DnsPool.ResolveName] when the DNS server knows
// the queried name, but neither has A nor AAAA records for it.
var ErrNoAnswers = errors.New("no A/AAAA answers")

// ErrNotConnected is reported when a task had to be run without a DNS client
// connection, because (re)dialing the DNS server failed.
var ErrNotConnected = errors.New("no DNS client connection")

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address.
type DnsPool struct {
	dnsclnt *dns.Client
	addr    string
	workers *workerpool.WorkerPool
	mu      sync.Mutex  // protects the pool of DNS connections
	free    []*dns.Conn // nil elements are connections to be redialed.
}

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [dns.Conn].
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted DNS tasks, so task
// submitters are themselves responsible for capturing the necessary context in
// their task function closure.
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string) (*DnsPool, error) {
	free := make([]*dns.Conn, 0, size)
	for i := 0; i < size; i++ {
		conn, err := dnsclnt.DialContext(ctx, addr)
		if err != nil {
			// Immediately release all connections created so far.
			for _, conn := range free {
				conn.Close()
			}
			return nil, errors.Wrapf(err, "cannot dial DNS server %s", addr)
		}
		free = append(free, conn)
	}
	return &DnsPool{
		dnsclnt: dnsclnt,
		addr:    addr,
		workers: workerpool.New(size),
		free:    free,
	}, nil
}

// Addr returns the address of the DNS server this pool talks to.
func (p *DnsPool) Addr() string { return p.addr }

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection. The connection passed to the
// task is nil in case the pool could not reconnect to the DNS server.
func (p *DnsPool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() {
		p.task(func(conn *dns.Conn) bool {
			task(conn)
			return true
		})
	})
}

// ResolveName is a convenience method for submitting A/AAAA queries and
// gathering the results. The results (resolved IP addresses in textual format)
// or an error if resolution failed is passed to the specified callback function
// fn.
//
// fn is called only once after completing both A and AAAA queries, so fn always
// gets to see all IP addresses from all IP families to see (if any). If the
// server reports NXDOMAIN for the A query, the AAAA query is skipped and fn
// gets [ErrNoSuchDomain]. If neither query yields addresses fn gets
// [ErrNoAnswers]. Any other error is a transport or server failure. As soon
// as there are addresses, fn gets them without an error, even if a later
// query failed.
//
// Please note that when the passed context is cancelled this will cancel all
// in-flight as well as scheduled name resolution jobs.
func (p *DnsPool) ResolveName(ctx context.Context, name string, fn func([]string, error)) {
	p.workers.Submit(func() {
		p.task(func(conn *dns.Conn) (healthy bool) {
			var addrs []string
			var err error
			defer func() {
				// A failing AAAA query doesn't invalidate the A answers.
				if len(addrs) > 0 {
					err = nil
				}
				fn(addrs, err) // ...ensure triggering the result callback on our way out
			}()

			if conn == nil {
				err = ErrNotConnected
				return false
			}
			fqdn := dns.Fqdn(name)
			for _, addrType := range []uint16{dns.TypeA, dns.TypeAAAA} {
				// don't try to resolve the name if the context has been cancelled;
				// trigger the callback immediately with the context error.
				select {
				case <-ctx.Done():
					err = ctx.Err()
					return true
				default:
				}

				msg := dns.Msg{
					MsgHdr: dns.MsgHdr{Id: dns.Id()},
				}
				msg.SetQuestion(fqdn, addrType)
				var r *dns.Msg
				r, _, err = p.dnsclnt.ExchangeWithConn(&msg, conn)
				if err != nil {
					// The connection might now see late answers to this
					// query, so it cannot be trusted any longer.
					return false
				}
				switch r.Rcode {
				case dns.RcodeSuccess:
				case dns.RcodeNameError:
					err = errors.Wrapf(ErrNoSuchDomain, "query for %q", fqdn)
					return true
				default:
					err = errors.Errorf("query for %q failed with %s",
						fqdn, dns.RcodeToString[r.Rcode])
					return true
				}
				for _, rr := range r.Answer {
					switch addrRR := rr.(type) {
					case *dns.A:
						addrs = append(addrs, addrRR.A.String())
					case *dns.AAAA:
						addrs = append(addrs, addrRR.AAAA.String())
					}
				}
			}
			if len(addrs) == 0 {
				err = errors.Wrapf(ErrNoAnswers, "query for %q", fqdn)
			}
			return true
		})
	})
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns, the connection is put back into the free list;
// if the function reports the connection to be unhealthy, it is closed and
// will be redialed by a later task.
func (p *DnsPool) task(task func(conn *dns.Conn) bool) {
	// pop off a free DNS client connection,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		p.mu.Unlock()
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	if conn == nil {
		var err error
		conn, err = p.dnsclnt.DialContext(context.Background(), p.addr)
		if err != nil {
			log.Warnf("cannot redial DNS server %s: %s", p.addr, err.Error())
			conn = nil
		}
	}
	// run the task with its assigned DNS client connection...
	if !task(conn) && conn != nil {
		conn.Close()
		conn = nil
	}
	// ...and push the DNS client connection back into the free list.
	p.mu.Lock()
	p.free = append(p.free, conn)
	p.mu.Unlock()
}

// StopWait waits for all enqueued address lookup or generic DNS request tasks
// to finish, and then shuts down the pool.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		if conn != nil {
			conn.Close()
		}
	}
	p.free = nil
}
