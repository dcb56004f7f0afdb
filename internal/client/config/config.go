package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/syncer"
)

// Config holds runtime settings for the Turismap client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - OnlineCheckInterval: how often the client checks server reachability.
//   - GraceWindow: how long a removed favorite can be restored.
//   - RemoteTimeout: upper bound for background remote calls.
//   - DataDir: directory of the local cache.
//   - CacheBackend: "sqlite" or "bolt".
//   - LogLevel, LogFormat: see logging.Config.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	GraceWindow         time.Duration
	RemoteTimeout       time.Duration
	DataDir             string
	CacheBackend        string
	LogLevel            string
	LogFormat           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.GraceWindow = syncer.DefaultGraceWindow
	c.RemoteTimeout = 15 * time.Second
	c.DataDir = defaultDataDir()
	c.CacheBackend = "sqlite"
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "turismap")
	}
	return ".turismap"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
