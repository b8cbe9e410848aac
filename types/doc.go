/*
Package types defines orphandig's information model. Which is rather simple
and revolves around the [ClassifiedPackage] that leaves the metadata
classification stage, the [OrphanReport] that leaves the DNS verification
stage, and the [Verdict] about a maintainer e-mail domain.

All these types are plain values: they get copied when sent over the channels
connecting the pipeline stages, so there is no shared mutable state between
stages and thus no need for locking anywhere except for the domain cache.
*/
package types
