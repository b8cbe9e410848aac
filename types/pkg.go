// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// ClassifiedPackage is a registry package whose maintainers all share the same
// e-mail domain. Such packages await the DNS verdict about their domain.
type ClassifiedPackage struct {
	Name   string `json:"name"`   // package name as listed by the registry.
	Domain string `json:"domain"` // the single maintainer e-mail domain.
}

// Orphan returns the orphan report for this classified package.
func (p ClassifiedPackage) Orphan() OrphanReport {
	return OrphanReport{Name: p.Name, Domain: p.Domain}
}

// OrphanReport names a package whose sole maintainer domain does not resolve,
// so that anyone registering the domain can take over the maintainers'
// mailboxes.
type OrphanReport struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// String returns the report line for this orphaned package.
func (r OrphanReport) String() string {
	return fmt.Sprintf("Found orphaned package: %s domain: %s", r.Name, r.Domain)
}
