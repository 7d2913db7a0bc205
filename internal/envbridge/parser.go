package envbridge

import (
	"bufio"
	"strings"
)

// Keys the bridge carries from minikube's docker-env output into the
// pipeline environment. Nothing else is recognized.
const (
	DockerHost      = "DOCKER_HOST"
	DockerTLSVerify = "DOCKER_TLS_VERIFY"
	DockerCertPath  = "DOCKER_CERT_PATH"
)

var recognizedKeys = []string{DockerHost, DockerTLSVerify, DockerCertPath}

// Parser turns environment-export output into a set of variables.
type Parser interface {
	// Parse returns the recognized variables found in raw. Keys that do not
	// appear are absent from the map, never present with an empty value.
	Parse(raw string) map[string]string
}

// ShellParser understands the assignment forms minikube docker-env prints
// for bash and PowerShell:
//
//	export DOCKER_HOST="tcp://192.168.49.2:2376"
//	$Env:DOCKER_HOST = "tcp://192.168.49.2:2376"
//	DOCKER_HOST = "tcp://192.168.49.2:2376"
type ShellParser struct{}

var _ Parser = ShellParser{}

// Parse implements Parser.
func (ShellParser) Parse(raw string) map[string]string {
	vars := make(map[string]string)

	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		key, value, ok := parseLine(sc.Text())
		if ok {
			vars[key] = value
		}
	}
	return vars
}

func parseLine(line string) (key, value string, ok bool) {
	rest := strings.TrimSpace(line)
	if rest == "" || strings.HasPrefix(rest, "#") {
		return "", "", false
	}

	switch {
	case strings.HasPrefix(rest, "export "):
		rest = strings.TrimLeft(rest[len("export "):], " \t")
	case len(rest) >= len("$Env:") && strings.EqualFold(rest[:len("$Env:")], "$Env:"):
		rest = rest[len("$Env:"):]
	}

	for _, k := range recognizedKeys {
		after, found := strings.CutPrefix(rest, k)
		if !found {
			continue
		}
		// The name must be followed by '=' so DOCKER_HOSTNAME does not
		// count as DOCKER_HOST.
		after = strings.TrimLeft(after, " \t")
		if !strings.HasPrefix(after, "=") {
			return "", "", false
		}
		return k, unquote(after[1:]), true
	}
	return "", "", false
}

func unquote(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"'`)
}
