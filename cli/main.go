package main

import (
	"os"

	"github.com/satishbabariya/worm-go/cli/commands"
	"github.com/satishbabariya/worm-go/cli/internal/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}
