// Package core provides the shared, dependency-free types used across the
// orchestrator: the structured error type and request-scoped context keys.
// No other internal package may be imported from here; everything else in
// the module imports core to avoid cyclic dependencies.
package core
