package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validJSON = `{
  "ingress": {
    "namespace": "app",
    "local_port": 8080,
    "container_port": 80,
    "service_name": "ingress-nginx"
  }
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, DefaultFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return root
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validJSON))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Ingress{Namespace: "app", LocalPort: 8080, ContainerPort: 80, ServiceName: "ingress-nginx"}
	if cfg.Ingress != want {
		t.Errorf("Ingress = %+v, want %+v", cfg.Ingress, want)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default info", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want default text", cfg.Log.Format)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		body    string
		wantErr error
		wantMsg string
	}{
		"malformed json": {
			body:    `{"ingress": `,
			wantErr: ErrInvalidConfig,
		},
		"missing keys are all named": {
			body:    `{"ingress": {"namespace": "app", "local_port": 8080}}`,
			wantErr: ErrInvalidConfig,
			wantMsg: "ingress.container_port, ingress.service_name",
		},
		"port out of range": {
			body:    strings.Replace(validJSON, "8080", "70000", 1),
			wantErr: ErrInvalidConfig,
			wantMsg: "local port must be in 1..65535, got 70000",
		},
		"empty namespace": {
			body:    strings.Replace(validJSON, `"app"`, `""`, 1),
			wantErr: ErrInvalidConfig,
			wantMsg: "namespace must not be empty",
		},
		"unknown log level": {
			body:    `{"ingress": {"namespace": "app", "local_port": 8080, "container_port": 80, "service_name": "x"}, "log": {"level": "loud"}}`,
			wantErr: ErrInvalidConfig,
			wantMsg: "unknown log level",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(writeConfig(t, tc.body))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tc.wantErr)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Load() error = %v, want ErrConfigNotFound", err)
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Error("a missing file must not be reported as invalid")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEVUP_INGRESS_LOCAL_PORT", "9090")
	t.Setenv("DEVUP_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, validJSON))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ingress.LocalPort != 9090 {
		t.Errorf("LocalPort = %d, want env override 9090", cfg.Ingress.LocalPort)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want env override debug", cfg.Log.Level)
	}
}

func TestLoad_EnvSuppliesRequiredKey(t *testing.T) {
	t.Setenv("DEVUP_INGRESS_SERVICE_NAME", "from-env")

	cfg, err := Load(writeConfig(t, `{"ingress": {"namespace": "app", "local_port": 8080, "container_port": 80}}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Ingress.ServiceName != "from-env" {
		t.Errorf("ServiceName = %q, want from-env", cfg.Ingress.ServiceName)
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	err := Config{}.Validate()
	if err == nil {
		t.Fatal("Validate() on zero Config returned nil")
	}
	for _, want := range []string{"namespace", "service name", "local port", "container port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
