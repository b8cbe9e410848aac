// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/siemens/orphandig/types"
)

// renderer renders the terminal progress display, based on the scan
// statistics passed to its Render method.
type renderer struct {
	w       io.Writer
	source  string
	spinner *spinner
	started time.Time
	done    bool
}

// newRenderer returns a renderer rendering to the specified io.Writer. source
// names the listing being scanned.
func newRenderer(w io.Writer, source string, spinnerInterval time.Duration) *renderer {
	sp := newSpinner()
	sp.Start(spinnerInterval)
	return &renderer{
		w:       w,
		source:  source,
		spinner: sp,
		started: time.Now(),
	}
}

// Done switches the renderer into showing the final statistics.
func (r *renderer) Done() {
	r.done = true
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given scan statistics.
func (r *renderer) Render(stats types.StatsSnapshot) {
	elapsed := time.Since(r.started).Truncate(time.Second)
	if r.done {
		fmt.Fprintf(r.w, "%s %s in %s\n", doneStyle.Styled("✔"), sourceStyle.Styled(r.source), elapsed)
	} else {
		fmt.Fprintf(r.w, "%sscanning %s for %s\n", r.spinner.Spinner(), sourceStyle.Styled(r.source), elapsed)
	}
	fmt.Fprintf(r.w, "   packages listed %d, fetched %d, %s, %s\n",
		stats.Listed, stats.Fetched,
		counter(stats.RateLimited, "rate limited", warningStyle),
		counter(stats.Failed, "failed", warningStyle))
	fmt.Fprintf(r.w, "   lonely domain packages %d, domain lookups %d, %s\n",
		stats.Classified, stats.Lookups,
		counter(stats.Orphans, "orphaned", orphanStyle))
}

// counter renders a labelled count in the specified style, but only when the
// count is non-zero.
func counter(count int64, label string, style styler) string {
	text := fmt.Sprintf("%s %d", label, count)
	if count == 0 {
		return text
	}
	return style.Styled(text)
}
