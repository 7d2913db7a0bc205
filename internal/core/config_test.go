package core

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/giantswarm/devup/internal/config"
)

func validPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Root: "/src/shop",
		Ingress: config.Ingress{
			Namespace:     "app",
			LocalPort:     8080,
			ContainerPort: 80,
			ServiceName:   "ingress-nginx",
		},
		ManifestFile:      "Dockerfile",
		TerraformDir:      filepath.Join("terraform", "local"),
		LockFile:          ".terraform.tfstate.lock.info",
		SettleDelay:       5 * time.Second,
		PollInterval:      3 * time.Second,
		PollAttempts:      40,
		CriticalWorkloads: []string{"backend", "ui"},
		Clock:             testingclock.NewFakeClock(time.Now()),
	}
}

func TestPipelineConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validPipelineConfig().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero settle delay is allowed", func(t *testing.T) {
		t.Parallel()
		cfg := validPipelineConfig()
		cfg.SettleDelay = 0
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := map[string]struct {
		modify       func(c *PipelineConfig)
		wantContains string
	}{
		"empty root": {
			modify:       func(c *PipelineConfig) { c.Root = "" },
			wantContains: "project root",
		},
		"empty manifest": {
			modify:       func(c *PipelineConfig) { c.ManifestFile = "" },
			wantContains: "manifest file",
		},
		"empty terraform dir": {
			modify:       func(c *PipelineConfig) { c.TerraformDir = "" },
			wantContains: "terraform directory",
		},
		"empty lock file": {
			modify:       func(c *PipelineConfig) { c.LockFile = "" },
			wantContains: "lock file",
		},
		"negative settle delay": {
			modify:       func(c *PipelineConfig) { c.SettleDelay = -time.Second },
			wantContains: "settle delay",
		},
		"zero poll interval": {
			modify:       func(c *PipelineConfig) { c.PollInterval = 0 },
			wantContains: "poll interval",
		},
		"zero poll attempts": {
			modify:       func(c *PipelineConfig) { c.PollAttempts = 0 },
			wantContains: "poll attempts",
		},
		"blank critical workload": {
			modify:       func(c *PipelineConfig) { c.CriticalWorkloads = []string{"backend", " "} },
			wantContains: "critical workload",
		},
		"nested service path": {
			modify:       func(c *PipelineConfig) { c.Services = []string{"api/v2"} },
			wantContains: `service "api/v2"`,
		},
		"nil clock": {
			modify:       func(c *PipelineConfig) { c.Clock = nil },
			wantContains: "clock",
		},
		"ingress port out of range": {
			modify:       func(c *PipelineConfig) { c.Ingress.LocalPort = 0 },
			wantContains: "local port",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := validPipelineConfig()
			tc.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantContains) {
				t.Errorf("error %q should contain %q", err.Error(), tc.wantContains)
			}
		})
	}

	t.Run("multiple errors joined", func(t *testing.T) {
		t.Parallel()

		err := PipelineConfig{}.Validate()
		if err == nil {
			t.Fatal("expected error for zero-value config")
		}

		for _, part := range []string{
			"project root",
			"manifest file",
			"terraform directory",
			"lock file",
			"poll interval",
			"poll attempts",
			"clock",
			"ingress namespace",
		} {
			if !strings.Contains(err.Error(), part) {
				t.Errorf("error %q should contain %q", err.Error(), part)
			}
		}
	})
}

func TestPipelineConfig_Paths(t *testing.T) {
	t.Parallel()

	cfg := validPipelineConfig()
	if got, want := cfg.TerraformPath(), filepath.Join("/src/shop", "terraform", "local"); got != want {
		t.Errorf("TerraformPath() = %q, want %q", got, want)
	}
	if got, want := cfg.LockPath(), filepath.Join("/src/shop", "terraform", "local", ".terraform.tfstate.lock.info"); got != want {
		t.Errorf("LockPath() = %q, want %q", got, want)
	}
}

// TestPipelineConfigFieldCount is a canary test that detects when fields are
// added to PipelineConfig without updating the public API in the root package.
//
// If this test fails, you added a field to core.PipelineConfig. You must also:
//  1. Add a public WithXxx option function in options.go
//  2. Update expectedFields below to match the new count
func TestPipelineConfigFieldCount(t *testing.T) {
	t.Parallel()
	const expectedFields = 11 // Update this when adding new fields to PipelineConfig.

	actual := reflect.TypeFor[PipelineConfig]().NumField()
	if actual != expectedFields {
		t.Errorf("PipelineConfig has %d fields, expected %d; "+
			"if you added a field, also add a WithXxx option in the root package options.go",
			actual, expectedFields)
	}
}
