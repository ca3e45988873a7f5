package leadcapture

import (
	"strings"

	"github.com/exo-addons/leadcapture/transport"
)

// APIPath is the lead capture REST resource, appended to Config.ServerURL.
const APIPath = "/portal/rest/leadcapture/leadsmanagement/leads"

// Config holds the configuration of a Relay. It is loaded once at startup and
// passed by value; a Relay never re-reads it.
type Config struct {
	// ServerURL is the base URL of the lead capture server, e.g.
	// "https://community.example.com".
	ServerURL string `json:"server_url" mapstructure:"server_url"`

	// Token is sent verbatim in the "token" header of every request.
	Token string `json:"-" mapstructure:"token"`

	// Transport configures the pooled HTTP client.
	Transport transport.Config `json:"transport" mapstructure:"transport"`
}

// DefaultConfig returns a Config with transport defaults and no server.
func DefaultConfig() Config {
	return Config{
		Transport: transport.DefaultConfig(),
	}
}

// Endpoint returns the full lead resource URL.
func (c Config) Endpoint() string {
	return strings.TrimRight(c.ServerURL, "/") + APIPath
}

// Validate reports a *ConfigurationError when the server URL or token is unset.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return &ConfigurationError{Setting: "server_url", Message: "server url not defined"}
	}
	if strings.TrimSpace(c.Token) == "" {
		return &ConfigurationError{Setting: "token", Message: "token not defined"}
	}
	return nil
}
