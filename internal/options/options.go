// Package options implements a minimal functional-options pattern, used by
// table.AddOption to let callers of Add/AddVerbose choose how statistics
// are recomputed without growing the function's positional argument list.
package options

// Option configures a value of type T in place. Every option this module
// needs can't fail (it just flips a config flag), so unlike a general
// options package there is no error-returning variant to carry.
type Option[T any] func(T)

// Apply applies opts to target in order.
func Apply[T any](target T, opts ...Option[T]) {
	for _, opt := range opts {
		opt(target)
	}
}
