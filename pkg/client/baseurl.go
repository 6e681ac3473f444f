package client

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by ResolveBaseURL.
const (
	EnvAPIBase      = "ASSEMBLE_API_BASE"
	EnvPublicHost   = "ASSEMBLE_PUBLIC_HOST"
	EnvPublicScheme = "ASSEMBLE_PUBLIC_SCHEME"
	EnvBackendPort  = "ASSEMBLE_BACKEND_PORT"
)

const defaultBaseURL = "http://127.0.0.1:8000/api"

// ResolveBaseURL picks the backend base address. An explicit override wins;
// otherwise the address is derived from the deployment host plus the backend
// port; with no deployment context it falls back to local loopback.
func ResolveBaseURL() string {
	if v := os.Getenv(EnvAPIBase); v != "" {
		return strings.TrimRight(v, "/")
	}

	if host := os.Getenv(EnvPublicHost); host != "" {
		scheme := "http"
		if os.Getenv(EnvPublicScheme) == "https" {
			scheme = "https"
		}
		port := os.Getenv(EnvBackendPort)
		if port == "" {
			port = "8000"
		}
		return fmt.Sprintf("%s://%s:%s/api", scheme, host, port)
	}

	return defaultBaseURL
}
