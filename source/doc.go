/*
Package source streams the names of all packages of a registry into a bounded
channel, making it the head of the orphan scanning pipeline.

As the channel is bounded, a slow metadata classification stage throttles the
consumption of the registry listing.
*/
package source
