package process

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// Env is an immutable snapshot of environment variables. The zero value is
// an empty snapshot and makes child processes inherit the host environment.
// Env values are safe to share between goroutines.
type Env struct {
	vars map[string]string
}

// EnvFromOS captures the current process environment.
func EnvFromOS() Env {
	return EnvFromList(os.Environ())
}

// EnvFromList builds an Env from KEY=VALUE pairs. Entries without '=' are
// skipped; later duplicates win.
func EnvFromList(list []string) Env {
	vars := make(map[string]string, len(list))
	for _, kv := range list {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}
	return Env{vars: vars}
}

// With returns a new Env with overlay merged on top. Keys in overlay
// overwrite existing values; nothing is ever removed. The receiver is not
// modified.
func (e Env) With(overlay map[string]string) Env {
	merged := make(map[string]string, len(e.vars)+len(overlay))
	maps.Copy(merged, e.vars)
	maps.Copy(merged, overlay)
	return Env{vars: merged}
}

// Get returns the value for key and whether it was set.
func (e Env) Get(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Len returns the number of variables in the snapshot.
func (e Env) Len() int {
	return len(e.vars)
}

// IsZero reports whether e is the zero Env.
func (e Env) IsZero() bool {
	return e.vars == nil
}

// Environ renders the snapshot as sorted KEY=VALUE pairs for exec.Cmd.Env.
func (e Env) Environ() []string {
	keys := slices.Sorted(maps.Keys(e.vars))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}
