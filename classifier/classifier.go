// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package classifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/siemens/orphandig/registry"
	"github.com/siemens/orphandig/types"
	"github.com/thediveo/lxkns/log"
)

// Defaults for classifiers.
const (
	DefaultWorkers    = 20
	DefaultBackoff    = time.Second
	DefaultMaxBackoff = time.Minute
	DefaultMaxRetries = 10
)

// Fetcher fetches the maintainer e-mail addresses of a package. Fetcher is
// implemented by [github.com/siemens/orphandig/registry.Client].
//
// Fetchers must report rate limiting using [registry.ErrRateLimited].
type Fetcher interface {
	Maintainers(ctx context.Context, name string) ([]string, error)
}

// Classifier classifies packages by their maintainers' e-mail domains.
type Classifier struct {
	fetcher     Fetcher
	size        int
	backoff     time.Duration
	maxBackoff  time.Duration
	maxRetries  int // negative: unlimited.
	registrable bool
	stats       *types.Stats

	errmu sync.Mutex // serializes error lines.
	errw  io.Writer

	lonely chan types.ClassifiedPackage
}

// ClassifierOption configures a [Classifier] when passed to [New].
type ClassifierOption func(*Classifier)

// WithBackoff sets the initial delay before retrying a rate-limited request.
func WithBackoff(base time.Duration) ClassifierOption {
	return func(c *Classifier) { c.backoff = base }
}

// WithMaxBackoff caps the retry delay; zero means no cap.
func WithMaxBackoff(limit time.Duration) ClassifierOption {
	return func(c *Classifier) { c.maxBackoff = limit }
}

// WithMaxRetries sets the number of retries of a rate-limited request before
// the package is given up on. A negative number retries without limit.
func WithMaxRetries(n int) ClassifierOption {
	return func(c *Classifier) { c.maxRetries = n }
}

// WithRegistrableDomains reduces maintainer domains to their registrable
// domains before classification.
func WithRegistrableDomains(registrable bool) ClassifierOption {
	return func(c *Classifier) { c.registrable = registrable }
}

// WithErrorWriter sets where to write per-package error lines to, instead of
// os.Stderr.
func WithErrorWriter(w io.Writer) ClassifierOption {
	return func(c *Classifier) { c.errw = w }
}

// WithStats makes the Classifier count its progress in the specified stats.
func WithStats(stats *types.Stats) ClassifierOption {
	return func(c *Classifier) { c.stats = stats }
}

// New returns a new Classifier with the specified number of workers, as well
// as the channel streaming the lonely domain packages.
func New(fetcher Fetcher, size int, opts ...ClassifierOption) (*Classifier, <-chan types.ClassifiedPackage) {
	if size < 1 {
		size = DefaultWorkers
	}
	c := &Classifier{
		fetcher:    fetcher,
		size:       size,
		backoff:    DefaultBackoff,
		maxBackoff: DefaultMaxBackoff,
		maxRetries: DefaultMaxRetries,
		errw:       os.Stderr,
		stats:      &types.Stats{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lonely = make(chan types.ClassifiedPackage, c.size)
	return c, c.lonely
}

// Classify the packages named in the incoming stream until it gets closed.
// Classify then waits for all its workers to finish, closes the output channel
// returned by New, and finally returns.
//
// When the context gets cancelled, Classify stops as soon as possible, also
// interrupting any backoff delays, and closes the output channel.
func (c *Classifier) Classify(ctx context.Context, names <-chan string) {
	var wg sync.WaitGroup
	wg.Add(c.size)
	for i := 0; i < c.size; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case name, ok := <-names:
					if !ok {
						return
					}
					if !c.classify(ctx, name) {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
	close(c.lonely)
	log.Debugf("classification done")
}

// classify a single package, returning false if the context got cancelled.
func (c *Classifier) classify(ctx context.Context, name string) bool {
	emails, ok := c.maintainers(ctx, name)
	if !ok {
		return ctx.Err() == nil
	}
	domain, lonely := LonelyDomain(emails, c.registrable)
	if !lonely {
		log.Debugf("package %s has %d maintainers without a single domain", name, len(emails))
		return true
	}
	log.Debugf("package %s has lonely domain %s", name, domain)
	select {
	case c.lonely <- types.ClassifiedPackage{Name: name, Domain: domain}:
		c.stats.Classified.Add(1)
		return true
	case <-ctx.Done():
		return false
	}
}

// maintainers fetches the maintainers of the named package, backing off and
// retrying as long as the registry rate limits us. It returns false when the
// package could not be fetched, reporting the reason.
func (c *Classifier) maintainers(ctx context.Context, name string) ([]string, bool) {
	for attempt := 0; ; attempt++ {
		log.Debugf("querying %s ...", name)
		emails, err := c.fetcher.Maintainers(ctx, name)
		if err == nil {
			c.stats.Fetched.Add(1)
			return emails, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
		if !errors.Is(err, registry.ErrRateLimited) {
			c.failed(name, err)
			return nil, false
		}
		c.stats.RateLimited.Add(1)
		if c.maxRetries >= 0 && attempt >= c.maxRetries {
			c.failed(name, err)
			return nil, false
		}
		delay := Backoff(c.backoff, c.maxBackoff, attempt)
		log.Debugf("rate limited on %s, retrying in %s", name, delay)
		if !sleep(ctx, delay) {
			return nil, false
		}
	}
}

// failed reports a package that had to be skipped.
func (c *Classifier) failed(name string, err error) {
	c.stats.Failed.Add(1)
	log.Debugf("skipping package %s: %s", name, err.Error())
	c.errmu.Lock()
	defer c.errmu.Unlock()
	fmt.Fprintf(c.errw, "error: %s: %s\n", name, err.Error())
}
