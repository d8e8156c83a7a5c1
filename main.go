package main

import (
	"os"

	"github.com/back2basic/linkcollector/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
