package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/wkxuan/booknotes/internal/config"
	"github.com/wkxuan/booknotes/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	log.Printf("booknotes %s (commit %s)", Version, Commit)

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}
