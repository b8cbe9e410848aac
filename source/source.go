// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package source

import (
	"context"

	"github.com/siemens/orphandig/types"
	"github.com/thediveo/lxkns/log"
)

// Lister enumerates all package names of a registry, calling fn for each name
// in turn. Lister is implemented by [github.com/siemens/orphandig/registry.Client].
type Lister interface {
	Names(ctx context.Context, fn func(name string) error) error
}

// Source streams package names from a [Lister].
type Source struct {
	lister Lister
	names  chan string
	stats  *types.Stats
}

// SourceOption configures a [Source].
type SourceOption func(*Source)

// WithStats counts the names listed.
func WithStats(stats *types.Stats) SourceOption {
	return func(s *Source) { s.stats = stats }
}

// New returns a new Source as well as the channel with a buffer of the
// specified size that will receive the package names. The channel gets closed
// after [Source.Stream] has finished, regardless of success.
func New(lister Lister, size int, opts ...SourceOption) (*Source, <-chan string) {
	if size < 0 {
		size = 0
	}
	s := &Source{
		lister: lister,
		names:  make(chan string, size),
		stats:  &types.Stats{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, s.names
}

// Stream lists all package names, sending them into the names channel. It
// blocks whenever the names channel is full. Stream returns an error if the
// listing failed or the context got cancelled; in any case it closes the
// names channel before returning.
//
// Stream must be called only once.
func (s *Source) Stream(ctx context.Context) error {
	defer close(s.names)
	log.Debugf("starting to list packages")
	err := s.lister.Names(ctx, func(name string) error {
		select {
		case s.names <- name:
			s.stats.Listed.Add(1)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return err
	}
	log.Debugf("listed %d packages", s.stats.Listed.Load())
	return nil
}
