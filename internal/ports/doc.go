// Package ports defines the interfaces between layers. The Check contract is
// implemented by concrete checks (outbound adapters) and consumed by the
// health runtime; StateReader is implemented by the runtime's registry and
// consumed by the readiness HTTP handler.
package ports
