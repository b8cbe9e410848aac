/*
Package registry implements a small client for npm-style package registries
backed by a CouchDB replica, such as https://replicate.npmjs.com.

The [Client] handles exactly two requests:

  - [Client.Names] streams the names of all packages as listed in the bulk
    "_all_docs" document; the listing is decoded while it is still being
    downloaded, so the (huge) listing never needs to be held in memory.
  - [Client.Maintainers] fetches the metadata document of a single package and
    returns the e-mail addresses of the package's maintainers.

Non-200 responses are reported as [*StatusError], except for 429 "Too Many
Requests" which is reported as [ErrRateLimited] so that callers can back off
and retry.
*/
package registry
