// Package storage manages the PostgreSQL connection pool, the bootstrap
// schema for the governance tables, and the tiered record cache.
//
// # Pool
//
// Pool wraps a database/sql pool configured from Config. It pings the
// database on startup, exposes health checks for the readiness probe, and
// can publish pool statistics to prometheus gauges on an interval.
//
// # Cache
//
// TieredCache layers an in-process LRU (L1) over Redis (L2). Both tiers are
// best effort: a Redis outage degrades to L1-only operation and never fails
// a read. The cache stores whole records keyed by table and id.
package storage
