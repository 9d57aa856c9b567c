package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/vijay-prabhu/bursary-matcher/internal/cli"
)

// Version information (set by build script)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Optional .env with DATABASE_URL, GEMINI_API_KEY and friends
	_ = godotenv.Load()

	cli.SetVersionInfo(Version, Commit, BuildTime)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
