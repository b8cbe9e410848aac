/*
Package classifier fetches the metadata of packages and classifies packages
with a single maintainer e-mail domain as “lonely domain” packages.

Metadata requests that are rate limited by the registry get retried after an
exponentially increasing backoff, up to a maximum number of retries.
*/
package classifier
