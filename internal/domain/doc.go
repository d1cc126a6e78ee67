// Package domain contains the core types of the health-check runtime: check
// statuses, per-check option values, and the immutable state snapshots handed
// to readiness consumers. It depends only on the standard library so that
// every other layer (ports, platform, adapters) can import it freely.
package domain
