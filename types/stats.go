// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "sync/atomic"

// Stats counts the progress of a scan while it runs. All counters can be
// safely updated and read concurrently.
type Stats struct {
	Listed      atomic.Int64 // package names received from the registry listing.
	Fetched     atomic.Int64 // package metadata documents successfully fetched.
	RateLimited atomic.Int64 // metadata requests that were rate limited.
	Failed      atomic.Int64 // packages skipped due to errors.
	Classified  atomic.Int64 // packages with a single maintainer domain.
	Lookups     atomic.Int64 // DNS lookups of maintainer domains.
	Orphans     atomic.Int64 // orphaned packages found.
}

// StatsSnapshot is a point-in-time copy of [Stats].
type StatsSnapshot struct {
	Listed      int64 `json:"listed"`
	Fetched     int64 `json:"fetched"`
	RateLimited int64 `json:"rateLimited"`
	Failed      int64 `json:"failed"`
	Classified  int64 `json:"classified"`
	Lookups     int64 `json:"lookups"`
	Orphans     int64 `json:"orphans"`
}

// Snapshot returns the current counter values. As the counters are read one
// after another, the snapshot isn't necessarily consistent across counters
// while a scan is running.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Listed:      s.Listed.Load(),
		Fetched:     s.Fetched.Load(),
		RateLimited: s.RateLimited.Load(),
		Failed:      s.Failed.Load(),
		Classified:  s.Classified.Load(),
		Lookups:     s.Lookups.Load(),
		Orphans:     s.Orphans.Load(),
	}
}
