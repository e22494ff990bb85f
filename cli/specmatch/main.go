package main

import (
	"os"

	specmatchcmder "github.com/spectralworks/specmatch/cmd/specmatch"
)

func main() {
	cmd := specmatchcmder.NewSpecmatchCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
