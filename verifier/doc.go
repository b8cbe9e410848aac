/*
Package verifier implements the verification of maintainer e-mail domains
with caching in order to avoid duplicate DNS lookups for domains shared by
many packages.

The concrete domain resolution is then carried out by a [Resolver], such as
[github.com/siemens/orphandig/dnsworker.Resolver].
*/
package verifier
