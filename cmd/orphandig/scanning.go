// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/siemens/orphandig/scan"
	"github.com/siemens/orphandig/types"

	"github.com/gosuri/uilive"
	"github.com/sirupsen/logrus"
)

// ScanAndReport scans the configured registry for orphaned packages, writing
// the orphans found to out and per-package errors to errw. If requested, the
// scan progress is rendered live to errw.
func ScanAndReport(ctx context.Context, cfg config, spinnerInterval time.Duration, out, errw io.Writer) error {
	stats := &types.Stats{}
	opts := scan.Options{
		ListingURL:  cfg.ListingURL,
		RegistryURL: cfg.RegistryURL,
		Rate:        cfg.Rate,
		APIWorkers:  cfg.APIWorkers,
		Backoff:     cfg.Backoff,
		MaxBackoff:  cfg.MaxBackoff,
		MaxRetries:  cfg.MaxRetries,
		Registrable: cfg.Registrable,
		DNSWorkers:  cfg.DNSWorkers,
		Resolvers:   cfg.Resolvers,
		DNSTimeout:  cfg.DNSTimeout,
		Out:         out,
		Err:         errw,
		Stats:       stats,
	}
	// Log messages go to the same error stream as the per-package errors.
	logrus.SetOutput(errw)
	defer logrus.SetOutput(os.Stderr)
	if !cfg.Progress {
		_, err := scan.Run(ctx, opts)
		return err
	}

	// As with the background updating mode of uilive we would risk flushing
	// half-rendered output, we avoid Start() and instead explicitly flush
	// after each rendering. Error lines and log messages need to bypass the
	// live display, as otherwise the next rendering would erase them.
	term := uilive.New()
	term.Out = errw
	bypass := term.Bypass()
	opts.Err = bypass
	logrus.SetOutput(bypass)
	renderer := newRenderer(term, cfg.ListingURL, spinnerInterval)

	// Fire off the rendering goroutine and only stop it after the scan has
	// finished. The final rendering then shows the final counts.
	scanDone := make(chan struct{})
	renderingDone := make(chan struct{})
	go func() {
		defer func() {
			renderer.Done()
			renderStats(term, renderer, stats)
			renderer.Stop()
			close(renderingDone)
		}()
		renderStats(term, renderer, stats)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderStats(term, renderer, stats)
			case <-scanDone:
				return
			}
		}
	}()
	_, err := scan.Run(ctx, opts)
	close(scanDone)
	<-renderingDone
	return err
}

// renderStats renders the current scan statistics and flushes them to the
// terminal.
func renderStats(term *uilive.Writer, r *renderer, stats *types.Stats) {
	r.Render(stats.Snapshot())
	_ = term.Flush()
}
