// Package registry tracks the set of configured provider adapters and the
// single active selection.
//
// Adapters are kept in registration order, which makes fallback selection
// deterministic: NextAvailable returns the first registered adapter whose
// id is not excluded. The registry is mutated only by explicit calls
// (configuration reload or user selection); background availability
// polling never changes the active provider.
//
// Registry satisfies the providers.Fallbacks interface, so it can be
// handed to error classification to decide whether switching providers is
// a viable remediation.
package registry
