package main

import (
	"context"
	"os"

	"github.com/dgallion1/docnav/internal/app"
	"github.com/dgallion1/docnav/internal/config"
)

func main() {
	cfg, err := config.Load()
	log := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("initialize", "error", err)
		os.Exit(1)
	}
	err = a.Serve(context.Background())
	a.Close()
	if err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
