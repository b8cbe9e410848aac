/*
Package test provides in-process fakes for the external collaborators of
orphandig's tests: a [DNSServer] serving a fixed zone on the loopback
interface, and a package [Registry] serving a bulk name listing as well as
per-package maintainer metadata.
*/
package test
