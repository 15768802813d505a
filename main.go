package main

import (
	"os"

	"github.com/semai/wildscan-go/cmd"
	"github.com/semai/wildscan-go/internal/conf"
	"github.com/semai/wildscan-go/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		logging.Fatal("Error loading configuration", "error", err)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
