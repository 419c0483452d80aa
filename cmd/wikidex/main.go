package main

import (
	"github.com/joho/godotenv"

	"github.com/custodia-labs/wikidex/internal/adapters/driving/cli"
)

func main() {
	// Load .env if present; API keys are read from the environment.
	_ = godotenv.Load()
	cli.Execute()
}
