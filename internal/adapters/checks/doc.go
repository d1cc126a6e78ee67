// Package checks contains the concrete health checks shipped with the
// service: an HTTP probe against the downstream backend (through the
// instrumented client, so evaluations share its circuit breaker and retry
// policy) and a process memory self-check.
package checks
