package main

import (
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mjyuu/vocaloidshop/internal/api"
	"github.com/mjyuu/vocaloidshop/internal/config"
	"github.com/mjyuu/vocaloidshop/internal/database"
	"github.com/mjyuu/vocaloidshop/internal/events"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	logger.Info().Msg("connected to database")

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	if publisher != nil {
		defer publisher.Close()
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).
			Msg("order event publishing enabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	api.NewHandler(db, publisher, logger).Register(e)

	logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
