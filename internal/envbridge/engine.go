package envbridge

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"
)

// EngineClient is the part of the Docker API the bridge probes.
type EngineClient interface {
	ServerVersion(ctx context.Context) (types.Version, error)
	Close() error
}

// EngineFactory builds an EngineClient from bridged variables.
type EngineFactory func(vars map[string]string) (EngineClient, error)

// NewEngineClient builds a Docker API client that talks to the engine the
// variables point at. It reads only the given map, never the host
// environment, so it sees exactly what later docker commands will see.
func NewEngineClient(vars map[string]string) (EngineClient, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}

	if certPath := vars[DockerCertPath]; certPath != "" {
		tlsc, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:             filepath.Join(certPath, "ca.pem"),
			CertFile:           filepath.Join(certPath, "cert.pem"),
			KeyFile:            filepath.Join(certPath, "key.pem"),
			InsecureSkipVerify: vars[DockerTLSVerify] == "",
		})
		if err != nil {
			return nil, fmt.Errorf("load docker TLS material from %s: %w", certPath, err)
		}
		// The HTTP client has to be in place before WithHost configures its
		// transport for the host's protocol.
		opts = append(opts, client.WithHTTPClient(&http.Client{
			Transport:     &http.Transport{TLSClientConfig: tlsc},
			CheckRedirect: client.CheckRedirect,
		}))
	}

	if host := vars[DockerHost]; host != "" {
		opts = append(opts, client.WithHost(host))
	}

	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return c, nil
}
