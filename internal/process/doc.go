// Package process runs the external commands of a devup pipeline.
//
// A Command carries its own failure Policy. ExecRunner applies it: best-effort
// failures collapse to an empty Result, fail-fast failures are reported once
// and returned as a *CommandError for the top-level handler to turn into an
// exit code. Env is the immutable environment snapshot handed to every child.
package process
