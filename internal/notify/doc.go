// Package notify prints the user-facing lines of a devup run: step headers,
// info, warnings, errors and success messages. Diagnostic output goes through
// slog instead; see internal/core.Logger.
package notify
