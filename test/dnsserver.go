// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"net"
	"strings"
	"sync"

	"github.com/miekg/dns"

	gi "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	s "github.com/thediveo/success"
)

// DNSServer is an in-process UDP DNS server on the loopback interface that
// answers A and AAAA queries from a fixed zone and otherwise says NXDOMAIN.
// It counts the A queries it receives per name.
type DNSServer struct {
	srv     *dns.Server
	mu      sync.Mutex
	zone    map[string][]string // FQDN -> IPv4/IPv6 address literals
	queries map[string]int      // FQDN -> number of A queries received
	rcode   int                 // if non-zero, answer all queries with this rcode
	rcode6  int                 // if non-zero, answer AAAA queries with this rcode
}

// StartDNSServer starts serving the specified zone, mapping names to lists of
// IP address literals. Names without addresses exist, but have no A/AAAA
// records. Stop the server using [DNSServer.Close].
func StartDNSServer(zone map[string][]string) *DNSServer {
	gi.GinkgoHelper()

	d := &DNSServer{
		zone:    map[string][]string{},
		queries: map[string]int{},
	}
	for name, addrs := range zone {
		d.zone[dns.Fqdn(strings.ToLower(name))] = addrs
	}
	pc := s.Successful(net.ListenPacket("udp", "127.0.0.1:0"))
	started := make(chan struct{})
	d.srv = &dns.Server{
		PacketConn:        pc,
		Handler:           d,
		NotifyStartedFunc: func() { close(started) },
	}
	go func() {
		_ = d.srv.ActivateAndServe()
	}()
	g.Eventually(started).Should(g.BeClosed())
	return d
}

// Addr returns the "host:port" address of this DNS server.
func (d *DNSServer) Addr() string {
	return d.srv.PacketConn.LocalAddr().String()
}

// Queries returns the number of A queries received so far for the specified
// name.
func (d *DNSServer) Queries(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queries[dns.Fqdn(strings.ToLower(name))]
}

// FailWith makes the server answer all further queries with the specified
// rcode, such as dns.RcodeServerFailure. Pass dns.RcodeSuccess to go back to
// normal operation.
func (d *DNSServer) FailWith(rcode int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rcode = rcode
}

// FailAAAAWith makes the server answer all further AAAA queries with the
// specified rcode, while A queries still get answered normally.
func (d *DNSServer) FailAAAAWith(rcode int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rcode6 = rcode
}

// Close shuts down the DNS server.
func (d *DNSServer) Close() {
	_ = d.srv.Shutdown()
}

// ServeDNS answers a single DNS query.
func (d *DNSServer) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rcode != dns.RcodeSuccess {
		m.Rcode = d.rcode
		_ = w.WriteMsg(m)
		return
	}
	for _, q := range r.Question {
		name := strings.ToLower(q.Name)
		if q.Qtype == dns.TypeA {
			d.queries[name]++
		}
		if q.Qtype == dns.TypeAAAA && d.rcode6 != dns.RcodeSuccess {
			m.Rcode = d.rcode6
			continue
		}
		addrs, ok := d.zone[name]
		if !ok {
			m.Rcode = dns.RcodeNameError
			continue
		}
		for _, addr := range addrs {
			ip := net.ParseIP(addr)
			hdr := dns.RR_Header{Name: q.Name, Class: dns.ClassINET, Ttl: 60}
			switch {
			case ip.To4() != nil && q.Qtype == dns.TypeA:
				hdr.Rrtype = dns.TypeA
				m.Answer = append(m.Answer, &dns.A{Hdr: hdr, A: ip})
			case ip.To4() == nil && q.Qtype == dns.TypeAAAA:
				hdr.Rrtype = dns.TypeAAAA
				m.Answer = append(m.Answer, &dns.AAAA{Hdr: hdr, AAAA: ip})
			}
		}
	}
	_ = w.WriteMsg(m)
}
