package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/cargolens/cargolens-cli/internal/adapters/driving/cli"
)

func main() {
	// A .env file is optional; the environment wins either way.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
