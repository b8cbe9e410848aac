// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"sync"
	"time"
)

// spinner is a blindingly simple spinner cycling through its phases in the
// background until stopped.
type spinner struct {
	phases []string
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	phase  int
}

// newSpinner returns a new spinner; call Start to make it spin and Stop to
// release its background goroutine.
func newSpinner() *spinner {
	phases := []string{}
	for _, r := range "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏" {
		phases = append(phases, string(r)+" ")
	}
	return &spinner{
		phases: phases,
		done:   make(chan struct{}),
	}
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phases[s.phase]
}

// Start spinning one phase every interval.
func (s *spinner) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				s.phase = (s.phase + 1) % len(s.phases)
				s.mu.Unlock()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop the spinner; it's safe to call Stop multiple times.
func (s *spinner) Stop() {
	s.once.Do(func() { close(s.done) })
}
