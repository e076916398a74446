package main

import (
	"os"

	"github.com/CLillis357/VigilantIE/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
