package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/controller/cli"
	"github.com/joho/godotenv"
)

func main() {
	// Config
	if _, err := os.Stat(".env"); err == nil {
		if err = godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "config error: %s\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %s\n", err)
		os.Exit(1)
	}

	if err = cli.NewRootCmd(cfg).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
