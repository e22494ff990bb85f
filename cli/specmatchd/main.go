package main

import (
	"os"

	servecmder "github.com/spectralworks/specmatch/cmd/specmatch/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "specmatchd"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .specmatch/ config directory")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
