package main

import (
	"os"

	"github.com/taskmatrix/tmx/cmd/tmx/app"
)

func main() {
	cmd := app.NewTMXCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
