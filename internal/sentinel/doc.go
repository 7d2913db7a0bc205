// Package sentinel provides a constant-friendly error type used for the
// matchable errors of every devup package.
package sentinel
