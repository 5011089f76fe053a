package main

import (
	"os"

	"github.com/bianoble/skillsync/cmd/skillsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
