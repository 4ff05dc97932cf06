package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// EnsureDirectories ensures the log directory exists when logging to a file
func (c *Config) EnsureDirectories() error {
	if !c.Logging.IsFileOutput() {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.Logging.OutputPath), 0755)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.HTTPPort))
}

// GetGRPCAddress returns the gRPC listen address, empty when gRPC is disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.GRPCPort))
}

// IsFileOutput reports whether logs go to a file rather than a std stream
func (c *LoggingConfig) IsFileOutput() bool {
	return c.OutputPath != "" && c.OutputPath != "stdout" && c.OutputPath != "stderr"
}

// String renders the effective executor selection for startup logs
func (c ExecutorConfig) String() string {
	if c.Endpoint == "" {
		return fmt.Sprintf("mode=%s", c.Mode)
	}
	return fmt.Sprintf("mode=%s endpoint=%s", c.Mode, c.Endpoint)
}
