package main

import (
	"os"

	"github.com/chadvangaalen/sfr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
