// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Package report writes the orphaned packages found, one line per package.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/siemens/orphandig/types"
)

// Reporter writes orphan reports to an [io.Writer].
type Reporter struct {
	w io.Writer
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Report writes the incoming orphan reports until the channel gets closed,
// returning the number of reports written. It returns early with an error if
// writing fails or the context gets cancelled.
func (r *Reporter) Report(ctx context.Context, in <-chan types.OrphanReport) (int, error) {
	count := 0
	for {
		select {
		case report, ok := <-in:
			if !ok {
				return count, nil
			}
			if _, err := fmt.Fprintln(r.w, report.String()); err != nil {
				return count, errors.Wrap(err, "cannot write report")
			}
			count++
		case <-ctx.Done():
			return count, ctx.Err()
		}
	}
}
