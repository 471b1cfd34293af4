package main

import (
	"os"

	"cloudsync-pg-backend/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
