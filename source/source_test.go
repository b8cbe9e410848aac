// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/siemens/orphandig/registry"
	"github.com/siemens/orphandig/test"
	"github.com/siemens/orphandig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
)

type listerFunc func(ctx context.Context, fn func(string) error) error

func (l listerFunc) Names(ctx context.Context, fn func(string) error) error { return l(ctx, fn) }

// names returns a lister listing the specified names.
func names(names ...string) Lister {
	return listerFunc(func(ctx context.Context, fn func(string) error) error {
		for _, name := range names {
			if err := fn(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func collect(ch <-chan string) []string {
	all := []string{}
	for name := range ch {
		all = append(all, name)
	}
	return all
}

var _ = Describe("package name source", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("streams names in listing order and closes", NodeTimeout(10*time.Second), func(ctx context.Context) {
		stats := &types.Stats{}
		src, ch := New(names("foo", "bar", "baz"), 1, WithStats(stats))
		errch := make(chan error, 1)
		go func() { errch <- src.Stream(ctx) }()
		Expect(collect(ch)).To(Equal([]string{"foo", "bar", "baz"}))
		Expect(<-errch).To(Succeed())
		Expect(stats.Listed.Load()).To(Equal(int64(3)))
	})

	It("blocks when the channel is full", NodeTimeout(10*time.Second), func(ctx context.Context) {
		src, ch := New(names("a", "b", "c", "d"), 2)
		errch := make(chan error, 1)
		go func() { errch <- src.Stream(ctx) }()
		Eventually(func() int { return len(ch) }).Should(Equal(2))
		Consistently(errch).ShouldNot(Receive())
		Expect(collect(ch)).To(Equal([]string{"a", "b", "c", "d"}))
		Expect(<-errch).To(Succeed())
	})

	It("closes the channel on listing failure", NodeTimeout(10*time.Second), func(ctx context.Context) {
		boom := errors.New("boom")
		src, ch := New(listerFunc(func(ctx context.Context, fn func(string) error) error {
			_ = fn("foo")
			return boom
		}), 5)
		Expect(src.Stream(ctx)).To(MatchError(boom))
		Expect(collect(ch)).To(Equal([]string{"foo"}))
	})

	It("stops on cancellation even when blocked", NodeTimeout(10*time.Second), func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		src, ch := New(names("a", "b", "c"), 0)
		errch := make(chan error, 1)
		go func() { errch <- src.Stream(ctx) }()
		Expect(<-ch).To(Equal("a"))
		cancel()
		Eventually(errch).Should(Receive(MatchError(context.Canceled)))
		Eventually(ch).Should(BeClosed())
	})

	It("streams from a registry", NodeTimeout(10*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(
			test.Package{Name: "foo"}, test.Package{Name: "bar"}, test.Package{Name: "@s/quz"})
		defer reg.Close()
		httpclnt := &http.Client{Transport: &http.Transport{}}
		defer httpclnt.CloseIdleConnections()
		src, ch := New(registry.New(
			registry.WithListingURL(reg.ListingURL()),
			registry.WithHTTPClient(httpclnt)), 1)
		errch := make(chan error, 1)
		go func() { errch <- src.Stream(ctx) }()
		Expect(collect(ch)).To(Equal([]string{"foo", "bar", "@s/quz"}))
		Expect(<-errch).To(Succeed())
	})

	It("reports a failing registry listing", NodeTimeout(10*time.Second), func(ctx context.Context) {
		reg := test.StartRegistry(test.Package{Name: "foo"})
		defer reg.Close()
		reg.FailListing(http.StatusInternalServerError)
		httpclnt := &http.Client{Transport: &http.Transport{}}
		defer httpclnt.CloseIdleConnections()
		src, ch := New(registry.New(
			registry.WithListingURL(reg.ListingURL()),
			registry.WithHTTPClient(httpclnt)), 1)
		err := src.Stream(ctx)
		var statusErr *registry.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(collect(ch)).To(BeEmpty())
	})

})
