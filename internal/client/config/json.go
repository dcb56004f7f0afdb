package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/turismap/internal/flagx"
	"github.com/dmitrijs2005/turismap/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "4s" strings
// or integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	GraceWindow         timex.Duration `json:"grace_window"`
	RemoteTimeout       timex.Duration `json:"remote_timeout"`
	DataDir             string         `json:"data_dir"`
	CacheBackend        string         `json:"cache_backend"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
}

// parseJson overlays Config with the fields set in the file named by -c or
// -config. Absent fields keep their current value. Read and decode errors
// panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.CacheBackend, jc.CacheBackend)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.GraceWindow.Duration > 0 {
		cfg.GraceWindow = jc.GraceWindow.Duration
	}
	if jc.RemoteTimeout.Duration > 0 {
		cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
