package config

import (
	"flag"
	"os"
	"time"

	"github.com/openfield/expensesync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Only the flags handled here are parsed; everything else is filtered out
// with flagx.FilterArgs to avoid collisions with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-i", "-s", "-r", "-m", "-j"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the backend server")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "path to the local draft database file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Seconds()), "periodic sync interval (in seconds)")
	countRefreshInterval := fs.Int("r", int(cfg.CountRefreshInterval.Seconds()), "queued count refresh interval (in seconds)")
	fs.StringVar(&cfg.DefaultCurrency, "m", cfg.DefaultCurrency, "currency assumed when capture omits one")
	fs.StringVar(&cfg.DefaultProjectID, "j", cfg.DefaultProjectID, "project preselected for capture")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
	cfg.CountRefreshInterval = time.Duration(*countRefreshInterval) * time.Second
}
