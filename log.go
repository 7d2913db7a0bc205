package devup

import (
	"log/slog"

	"github.com/giantswarm/devup/internal/core"
)

// SetLogger replaces the package-level logger used for devup's diagnostic
// output. User-facing step lines are not affected; they go to the writer
// set with WithOutput.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// NewPipeline hands the current logger to the step components, so call
// SetLogger first. A Pipeline built earlier keeps its step loggers; only
// the pipeline's own step-level lines follow a later SetLogger.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
