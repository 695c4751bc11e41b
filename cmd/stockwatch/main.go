package main

import (
	"github.com/joho/godotenv"
	"github.com/stocktide/stockwatch/internal/cli"
)

func main() {
	// Pick up a local .env if one exists; absence is fine.
	_ = godotenv.Load()

	cli.Execute()
}
