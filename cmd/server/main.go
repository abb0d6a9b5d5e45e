package main

import (
	"net/http"
	"os"

	"github.com/cyclopcam/logs"

	"tidder/internal/auth"
	"tidder/internal/config"
	"tidder/internal/db"
	"tidder/internal/server"
)

func main() {
	logger, err := logs.NewLog()
	if err != nil {
		os.Exit(1)
	}

	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Criticalf("Error opening database: %v", err)
		os.Exit(1)
	}
	if err := db.Bootstrap(database, logger, cfg.AdminUser, cfg.AdminPass, cfg.BcryptCost); err != nil {
		logger.Criticalf("Error bootstrapping admin account: %v", err)
		os.Exit(1)
	}

	keys, err := auth.LoadKeys(cfg.KeyDir)
	if err != nil {
		logger.Criticalf("Error loading keys: %v", err)
		os.Exit(1)
	}

	srv := server.New(database, logger, keys, cfg.ClientURL, cfg.BcryptCost)
	logger.Infof("Listening on %v", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv); err != nil {
		logger.Criticalf("%v", err)
		os.Exit(1)
	}
}
