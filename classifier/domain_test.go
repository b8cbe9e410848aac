// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package classifier

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("maintainer domains", func() {

	DescribeTable("extracting the domain of an e-mail address",
		func(email, domain string) {
			Expect(EmailDomain(email)).To(Equal(domain))
		},
		Entry("plain", "a@x.com", "x.com"),
		Entry("first @ wins", "a@b@x.com", "b@x.com"),
		Entry("mixed case and trailing dot", "A@X.Com.", "x.com"),
		Entry("no @", "x.com", "x.com"),
		Entry("empty domain", "a@", ""),
	)

	DescribeTable("finding lonely domains",
		func(emails []string, registrable bool, domain string, lonely bool) {
			d, ok := LonelyDomain(emails, registrable)
			Expect(ok).To(Equal(lonely))
			Expect(d).To(Equal(domain))
		},
		Entry("single maintainer", []string{"a@x.com"}, false, "x.com", true),
		Entry("same domain", []string{"a@x.com", "b@X.com"}, false, "x.com", true),
		Entry("different domains", []string{"a@x.com", "c@y.com"}, false, "", false),
		Entry("no maintainers", []string{}, false, "", false),
		Entry("only empty domains", []string{"a@", ""}, false, "", false),
		Entry("ignoring empty domains", []string{"a@", "b@x.com"}, false, "x.com", true),
		Entry("subdomains differ", []string{"a@mail.x.com", "b@x.com"}, false, "", false),
		Entry("registrable subdomains", []string{"a@mail.x.com", "b@x.com"}, true, "x.com", true),
		Entry("registrable public suffix", []string{"a@foo.co.uk", "b@bar.foo.co.uk"}, true, "foo.co.uk", true),
		Entry("registrable different", []string{"a@foo.co.uk", "b@bar.co.uk"}, true, "", false),
	)

})
