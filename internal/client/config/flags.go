package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/turismap/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string    address and port of the backend server
//	-i int       online check interval in seconds
//	-g duration  favorite undo grace window
//	-d string    local data directory
//	-b string    cache backend (sqlite or bolt)
//	-l string    log level
//
// Only the flags above are taken from os.Args, see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-g", "-d", "-b", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.DurationVar(&cfg.GraceWindow, "g", cfg.GraceWindow, "how long a removed favorite can be restored")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	fs.StringVar(&cfg.CacheBackend, "b", cfg.CacheBackend, "cache backend: sqlite or bolt")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
