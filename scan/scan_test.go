// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package scan

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/miekg/dns"
	"github.com/siemens/orphandig/registry"
	"github.com/siemens/orphandig/test"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

var _ = Describe("scanning for orphaned packages", func() {

	var dnssrv *test.DNSServer
	var httpclnt *http.Client

	BeforeEach(func() {
		goodgos := Goroutines()
		dnssrv = test.StartDNSServer(map[string][]string{
			"good.example": {"192.0.2.1", "2001:db8::1"},
			"y.com":        {"192.0.2.2"},
		})
		httpclnt = &http.Client{Transport: &http.Transport{}}
		DeferCleanup(func() {
			httpclnt.CloseIdleConnections()
			dnssrv.Close()
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	// options returns scan options for the specified registry, with the
	// orphan reports and per-package errors going into separate buffers.
	options := func(reg *test.Registry) (Options, *gbytes.Buffer, *gbytes.Buffer) {
		out := gbytes.NewBuffer()
		errw := gbytes.NewBuffer()
		return Options{
			ListingURL:  reg.ListingURL(),
			RegistryURL: reg.MetadataURL(),
			HTTPClient:  httpclnt,
			APIWorkers:  4,
			Backoff:     10 * time.Millisecond,
			MaxRetries:  10,
			DNSWorkers:  4,
			Resolvers:   []string{dnssrv.Addr()},
			DNSTimeout:  time.Second,
			Out:         out,
			Err:         errw,
		}, out, errw
	}

	lines := func(b *gbytes.Buffer) []string {
		s := strings.TrimSuffix(string(b.Contents()), "\n")
		if s == "" {
			return []string{}
		}
		return strings.Split(s, "\n")
	}

	It("reports a package whose single domain doesn't resolve", NodeTimeout(30*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(
			test.Package{Name: "foo", Emails: []string{"a@x.com", "b@x.com"}},
			test.Package{Name: "bar", Emails: []string{"a@x.com", "c@y.com"}},
		)
		defer reg.Close()
		opts, out, errw := options(reg)
		stats := Successful(Run(ctx, opts))
		Expect(lines(out)).To(ConsistOf("Found orphaned package: foo domain: x.com"))
		Expect(errw.Contents()).To(BeEmpty())
		Expect(stats.Listed).To(Equal(int64(2)))
		Expect(stats.Fetched).To(Equal(int64(2)))
		Expect(stats.Classified).To(Equal(int64(1)))
		Expect(stats.Orphans).To(Equal(int64(1)))
		Expect(dnssrv.Queries("y.com")).To(BeZero())
	})

	It("does not report packages with resolving domains", NodeTimeout(30*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(
			test.Package{Name: "good", Emails: []string{"a@good.example"}},
			test.Package{Name: "alsogood", Emails: []string{"B@Good.Example"}},
		)
		defer reg.Close()
		opts, out, _ := options(reg)
		Expect(Successful(Run(ctx, opts)).Orphans).To(BeZero())
		Expect(out.Contents()).To(BeEmpty())
		Expect(dnssrv.Queries("good.example")).To(Equal(1))
	})

	It("does not report domains with failing AAAA lookups", NodeTimeout(30*time.Second), func(ctx context.Context) {
		dnssrv.FailAAAAWith(dns.RcodeServerFailure)
		reg := test.StartRegistry(
			test.Package{Name: "good", Emails: []string{"a@good.example"}},
			test.Package{Name: "foo", Emails: []string{"a@x.com"}},
		)
		defer reg.Close()
		opts, out, _ := options(reg)
		opts.Resolvers = []string{dnssrv.Addr(), dnssrv.Addr()}
		stats := Successful(Run(ctx, opts))
		Expect(lines(out)).To(ConsistOf("Found orphaned package: foo domain: x.com"))
		Expect(stats.Orphans).To(Equal(int64(1)))
	})

	It("looks up a shared domain only once but reports all its packages", NodeTimeout(30*time.Second), func(ctx context.Context) {
		pkgs := []test.Package{}
		expected := []string{}
		for i := 0; i < 25; i++ {
			name := fmt.Sprintf("z-%d", i)
			pkgs = append(pkgs, test.Package{Name: name, Emails: []string{"dev@z.com"}})
			expected = append(expected, "Found orphaned package: "+name+" domain: z.com")
		}
		reg := test.StartRegistry(pkgs...)
		defer reg.Close()
		opts, out, _ := options(reg)
		stats := Successful(Run(ctx, opts))
		Expect(lines(out)).To(ConsistOf(expected))
		Expect(dnssrv.Queries("z.com")).To(Equal(1))
		Expect(stats.Lookups).To(Equal(int64(1)))
	})

	It("retries rate-limited packages", NodeTimeout(30*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(
			test.Package{Name: "busy", Emails: []string{"a@x.com"}, Statuses: []int{429, 429}},
		)
		defer reg.Close()
		opts, out, errw := options(reg)
		stats := Successful(Run(ctx, opts))
		Expect(lines(out)).To(ConsistOf("Found orphaned package: busy domain: x.com"))
		Expect(reg.Fetches("busy")).To(Equal(3))
		Expect(stats.RateLimited).To(Equal(int64(2)))
		Expect(errw.Contents()).To(BeEmpty())
	})

	It("skips packages with unexpected statuses", NodeTimeout(30*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(
			test.Package{Name: "broken", Emails: []string{"a@x.com"}, Statuses: []int{500}},
			test.Package{Name: "good", Emails: []string{"a@good.example"}},
		)
		defer reg.Close()
		opts, out, errw := options(reg)
		stats := Successful(Run(ctx, opts))
		Expect(out.Contents()).To(BeEmpty())
		Expect(errw).To(gbytes.Say(`error: broken: received 500\n`))
		Expect(reg.Fetches("broken")).To(Equal(1))
		Expect(stats.Failed).To(Equal(int64(1)))
	})

	It("reduces domains to registrable domains", NodeTimeout(30*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(
			test.Package{Name: "sub", Emails: []string{"a@mail.x.com", "b@x.com"}},
		)
		defer reg.Close()
		opts, out, _ := options(reg)
		Expect(Run(ctx, opts)).Error().NotTo(HaveOccurred())
		Expect(out.Contents()).To(BeEmpty())

		opts, out, _ = options(reg)
		opts.Registrable = true
		Expect(Run(ctx, opts)).Error().NotTo(HaveOccurred())
		Expect(lines(out)).To(ConsistOf("Found orphaned package: sub domain: x.com"))
	})

	It("fails when the listing fails", NodeTimeout(30*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(test.Package{Name: "foo", Emails: []string{"a@x.com"}})
		defer reg.Close()
		reg.FailListing(http.StatusInternalServerError)
		opts, out, _ := options(reg)
		_, err := Run(ctx, opts)
		var statusErr *registry.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.Status).To(Equal(http.StatusInternalServerError))
		Expect(out.Contents()).To(BeEmpty())
		Expect(reg.Fetches("foo")).To(BeZero())
	})

	It("fails when the registry is unreachable", NodeTimeout(30*time.Second), func(ctx context.Context) {
		opts := Options{
			ListingURL: "http://127.0.0.1:1/_all_docs",
			HTTPClient: httpclnt,
			APIWorkers: 2,
			DNSWorkers: 2,
			Resolvers:  []string{dnssrv.Addr()},
			Out:        gbytes.NewBuffer(),
			Err:        gbytes.NewBuffer(),
		}
		Expect(Run(ctx, opts)).Error().To(HaveOccurred())
	})

	It("reports the same orphans on repeated scans", NodeTimeout(30*time.Second), func(ctx context.Context) {
		pkgs := []test.Package{}
		for i := 0; i < 30; i++ {
			emails := []string{fmt.Sprintf("dev@d%d.example", i%7)}
			if i%5 == 0 {
				emails = append(emails, "other@good.example")
			}
			if i%7 == 0 {
				emails = []string{"dev@good.example"}
			}
			pkgs = append(pkgs, test.Package{Name: fmt.Sprintf("p-%d", i), Emails: emails})
		}
		reg := test.StartRegistry(pkgs...)
		defer reg.Close()

		opts, out, _ := options(reg)
		Expect(Run(ctx, opts)).Error().NotTo(HaveOccurred())
		first := lines(out)
		Expect(first).NotTo(BeEmpty())

		opts, out, _ = options(reg)
		Expect(Run(ctx, opts)).Error().NotTo(HaveOccurred())
		Expect(lines(out)).To(ConsistOf(first))
	})

	It("applies defaults", func() {
		opts := Options{}.withDefaults()
		Expect(opts.ListingURL).To(Equal(registry.DefaultListingURL))
		Expect(opts.RegistryURL).To(Equal(registry.DefaultMetadataURL))
		Expect(opts.APIWorkers).To(Equal(20))
		Expect(opts.DNSWorkers).To(Equal(100))
		Expect(opts.MaxRetries).To(BeZero())
		Expect(opts.Backoff).To(Equal(time.Second))
		Expect(opts.MaxBackoff).To(Equal(time.Minute))
		Expect(opts.DNSTimeout).To(Equal(2 * time.Second))
		Expect(opts.Resolvers).To(ConsistOf("8.8.8.8:53", "1.1.1.1:53"))
		Expect(opts.Stats).NotTo(BeNil())
	})

})
