// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

// styler styles text for terminal output.
type styler interface {
	Styled(string) string
}

var (
	warningStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
	orphanStyle  = termenv.Style{}.Foreground(termenv.ANSIRed).Bold()
	doneStyle    = termenv.Style{}.Foreground(termenv.ANSIGreen)
)

var sourceStyle = termenv.Style{}.Bold()
