// Package core provides the internal implementation of devup: the
// Orchestrator that runs the fixed bring-up sequence (unlock, reap,
// bootstrap, bridge, build, deploy, health-poll, tunnel), the
// PipelineConfig it validates, and the package-level diagnostic logger.
package core
