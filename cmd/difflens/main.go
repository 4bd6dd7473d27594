package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/dshills/difflens/internal/cli"
)

func main() {
	// A .env in the working directory may carry GITHUB_TOKEN and DIFFLENS_* settings.
	_ = godotenv.Load()

	os.Exit(cli.Run())
}
