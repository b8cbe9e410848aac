// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package classifier

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// EmailDomain returns the domain part of an e-mail address, that is, everything
// after the first "@". Addresses without any "@" are taken as a domain as a
// whole. The domain is returned in lower case and without a trailing dot.
func EmailDomain(email string) string {
	if _, domain, ok := strings.Cut(email, "@"); ok {
		email = domain
	}
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(email)), ".")
}

// LonelyDomain returns the single domain shared by all specified maintainer
// e-mail addresses and true; otherwise, if there are either multiple domains
// or none, it returns false. Empty domains are ignored.
//
// If registrable is true, each domain is first reduced to its registrable
// part (eTLD+1) according to the public suffix list, so that "mail.x.com" and
// "x.com" count as the same domain.
func LonelyDomain(emails []string, registrable bool) (string, bool) {
	lonely := ""
	for _, email := range emails {
		domain := EmailDomain(email)
		if domain == "" {
			continue
		}
		if registrable {
			if etldp1, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
				domain = etldp1
			}
		}
		switch lonely {
		case "":
			lonely = domain
		case domain:
		default:
			return "", false
		}
	}
	return lonely, lonely != ""
}
