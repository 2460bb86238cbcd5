// Package main is the entry point for meshview, a glTF model viewer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/scenekit/internal/config"
	"github.com/Faultbox/scenekit/internal/logger"
	"github.com/Faultbox/scenekit/internal/viewer"
)

func main() {
	// Parse CLI flags first
	flags, err := config.ParseFlags(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	file := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		file = logger.DefaultFileConfig(cfg.Logging.LogFile)
		file.MaxSizeMB = cfg.Logging.MaxSizeMB
		file.MaxBackups = cfg.Logging.MaxBackups
		file.MaxAgeDays = cfg.Logging.MaxAgeDays
	}
	log := logger.Init(cfg.Logging.Level, file)
	defer logger.Sync()

	logger.Info("=== meshview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg, log)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	if err := v.Run(); err != nil {
		v.Close()
		logger.Error("viewer error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	v.Close()

	logger.Info("viewer closed normally")
}
