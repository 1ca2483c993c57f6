package main

import (
	"github.com/tidybar/tidybar/cmd"

	// Register the macOS provider.
	_ "github.com/tidybar/tidybar/internal/platform/darwin"
)

func main() {
	cmd.Execute()
}
