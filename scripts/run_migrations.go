package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/mjyuu/vocaloidshop/internal/config"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		logger.Fatal().Msg("usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		logger.Fatal().Msg("direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	migrationDir := "migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("read migration directory")
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), fmt.Sprintf(".%s.sql", direction)) {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	if direction == "down" {
		for i, j := 0, len(migrationFiles)-1; i < j; i, j = i+1, j-1 {
			migrationFiles[i], migrationFiles[j] = migrationFiles[j], migrationFiles[i]
		}
	}

	for _, filename := range migrationFiles {
		content, err := os.ReadFile(filepath.Join(migrationDir, filename))
		if err != nil {
			logger.Fatal().Err(err).Str("file", filename).Msg("read migration file")
		}

		logger.Info().Str("file", filename).Msg("running migration")
		if _, err := db.Exec(string(content)); err != nil {
			logger.Fatal().Err(err).Str("file", filename).Msg("execute migration")
		}
	}

	logger.Info().Int("count", len(migrationFiles)).Str("direction", direction).Msg("migrations complete")
}
