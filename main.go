package main

import (
	"os"

	"github.com/tutorstack/tutorctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
