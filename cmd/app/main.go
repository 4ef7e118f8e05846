package main

import (
	"log"
	"os"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/app"
	"github.com/joho/godotenv"
)

// envFile is loaded before the environment is parsed, IMAGE_CACHE_ENV_FILE overrides it.
const envFile = ".env"

func main() {
	// Config
	file := envFile
	if override := os.Getenv("IMAGE_CACHE_ENV_FILE"); override != "" {
		file = override
	}

	if _, err := os.Stat(file); err == nil {
		err = godotenv.Load(file)
		if err != nil {
			log.Fatalf("config error: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	if cfg.Admin.Token == "" {
		log.Printf("ADMIN_TOKEN is empty, /v1 routes are open to anyone who can reach the server")
	}

	// Run
	app.Run(cfg)
}
