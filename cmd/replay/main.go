package main

import (
	"fmt"
	"os"

	"crisis-replay/internal/cli"
	"crisis-replay/internal/config"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := cli.NewLogger(cfg.Logging)

	if err := cli.NewRootCmd(cfg, logger).Execute(); err != nil {
		logger.Debug().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
