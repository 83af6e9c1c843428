package main

import (
	"github.com/joho/godotenv"

	"news-alerts/internal/cli"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	cli.Execute()
}
