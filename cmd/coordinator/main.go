package main

import (
	"context"
	goos "os"
	"time"

	"github.com/kasca/coordinator/pkg/config"
	"github.com/kasca/coordinator/pkg/coordinator"
	"github.com/kasca/coordinator/pkg/logger"
	"github.com/kasca/coordinator/pkg/monitoring"
	"github.com/kasca/coordinator/pkg/os"
	"github.com/kasca/coordinator/pkg/service"
)

var Version = "?"

const shutdownTimeout = 10 * time.Second

func main() {
	conf, path, err := config.NewCoordinatorConfig(goos.Args[1:])
	log := logger.NewConsole(conf.Coordinator.Debug, "c", false)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	log.Info().Msgf("version %s", Version)
	log.Info().Msgf("config: %v", orEnv(path))
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	if file := conf.Coordinator.LockFile; file != "" {
		lock, err := os.NewFileLock(file)
		if err != nil {
			log.Fatal().Err(err).Msg("lock")
		}
		if err = lock.TryLock(); err != nil {
			log.Fatal().Err(err).Str("path", lock.Path()).Msg("lock")
		}
		defer func() { _ = lock.Unlock() }()
	}

	services := service.Group{}
	if conf.Coordinator.Monitoring.IsEnabled() {
		m, err := monitoring.New(conf.Coordinator.Monitoring, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitoring")
		}
		services.Add(m)
	}
	c, err := coordinator.New(conf, path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	services.Add(c)
	services.Start()

	<-os.ExpectTermination()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := services.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}

func orEnv(path string) string {
	if path == "" {
		return "env only"
	}
	return path
}
