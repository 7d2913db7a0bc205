package devup

import (
	"io"

	"github.com/giantswarm/devup/internal/config"
	"github.com/giantswarm/devup/internal/core"
	"github.com/giantswarm/devup/internal/process"
)

// Config is the project configuration read from driver/config.json.
type Config = config.Config

// LoadConfig reads <root>/driver/config.json with DEVUP_ environment
// overrides applied. It returns an error wrapping ErrConfigNotFound when the
// file does not exist and ErrInvalidConfig when it cannot be parsed, a
// required key is missing, or a value is out of range.
func LoadConfig(root string) (Config, error) {
	return config.Load(root)
}

// pipelineConfig holds configuration for a Pipeline. It embeds
// core.PipelineConfig to keep internal/core types out of the public API
// signature while avoiding field-by-field duplication, and carries the
// collaborator overrides the With* options set.
type pipelineConfig struct {
	core.PipelineConfig

	backends core.Backends
	env      process.Env
	out      io.Writer
}

// toCoreConfig returns the embedded core.PipelineConfig.
func (c pipelineConfig) toCoreConfig() core.PipelineConfig {
	return c.PipelineConfig
}
