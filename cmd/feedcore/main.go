package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/config"
	"lumen-board/feedcore/internal/content"
	"lumen-board/feedcore/internal/counters"
	"lumen-board/feedcore/internal/database"
	"lumen-board/feedcore/internal/ingest"
	"lumen-board/feedcore/internal/server"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Optional .env for local development; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}
}

func usage() {
	fmt.Println("Usage: feedcore [command] [options]")
	fmt.Println("Commands: serve, import, repair")
	fmt.Println("\nFor command-specific options, use: feedcore [command] -h")
}

func main() {
	cfg := config.DefaultConfig()

	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	serveCmd.StringVar(&cfg.DBPath, "db", config.GetEnvString("FEEDCORE_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: FEEDCORE_DB_PATH)")
	serveCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("FEEDCORE_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: FEEDCORE_HOST)")
	serveCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("FEEDCORE_PORT", config.DefaultServerPort),
		"Port to listen on (env: FEEDCORE_PORT)")

	var serveLogLevelStr string
	serveCmd.StringVar(&serveLogLevelStr, "log-level", config.GetEnvString("FEEDCORE_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: FEEDCORE_LOG_LEVEL)")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importCmd.StringVar(&cfg.DBPath, "db", config.GetEnvString("FEEDCORE_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: FEEDCORE_DB_PATH)")
	importCmd.StringVar(&cfg.SourcesPath, "csv", config.GetEnvString("FEEDCORE_SOURCES_PATH", config.DefaultSourcesPath),
		"Path to the RSS sources CSV file (env: FEEDCORE_SOURCES_PATH)")
	importCmd.IntVar(&cfg.ImportWorkers, "workers", config.GetEnvInt("FEEDCORE_IMPORT_WORKERS", config.DefaultImportWorkers),
		"Number of import workers, 0 for default (env: FEEDCORE_IMPORT_WORKERS)")
	var resetDB bool
	importCmd.BoolVar(&resetDB, "reset", config.GetEnvBool("FEEDCORE_IMPORT_RESET", false),
		"Delete the database before importing (env: FEEDCORE_IMPORT_RESET)")

	var importLogLevelStr string
	importCmd.StringVar(&importLogLevelStr, "log-level", config.GetEnvString("FEEDCORE_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: FEEDCORE_LOG_LEVEL)")

	repairCmd := flag.NewFlagSet("repair", flag.ExitOnError)
	repairCmd.StringVar(&cfg.DBPath, "db", config.GetEnvString("FEEDCORE_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: FEEDCORE_DB_PATH)")

	var repairLogLevelStr string
	repairCmd.StringVar(&repairLogLevelStr, "log-level", config.GetEnvString("FEEDCORE_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: FEEDCORE_LOG_LEVEL)")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, serveLogLevelStr)

		if err := runServe(cfg); err != nil {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}

	case "import":
		importCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, importLogLevelStr)

		if err := runImport(cfg, resetDB); err != nil {
			log.Error().Err(err).Msg("Import failed")
			os.Exit(1)
		}

	case "repair":
		repairCmd.Parse(os.Args[2:])
		applyLogLevel(cfg, repairLogLevelStr)

		if err := runRepair(cfg); err != nil {
			log.Error().Err(err).Msg("Repair failed")
			os.Exit(1)
		}

	case "-h", "--help", "help":
		usage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		usage()
		os.Exit(1)
	}
}

func applyLogLevel(cfg *config.Config, levelStr string) {
	if level, err := zerolog.ParseLevel(levelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

// runServe starts the HTTP API server with the provided configuration.
func runServe(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return server.RunServer(db, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}

// runImport seeds the articles collection from a CSV of RSS source URLs.
func runImport(cfg *config.Config, resetDB bool) error {
	if resetDB {
		if err := database.DeleteDB(cfg.DBPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		log.Info().Str("path", cfg.DBPath).Msg("Deleted existing database")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sources, err := ingest.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	importer := ingest.NewImporter(content.NewStore(db), cfg.ImportWorkers)
	if err := importer.Run(ctx, sources); err != nil {
		return err
	}

	imported, failed := importer.Stats()
	log.Info().Int64("imported", imported).Int64("failed_sources", failed).Msg("Import complete")
	return nil
}

// runRepair recomputes every denormalized counter from source-of-truth rows.
func runRepair(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := counters.Repair(ctx, db)
	if err != nil {
		return err
	}

	var corrected int64
	for _, n := range result {
		corrected += n
	}
	log.Info().Int64("corrected_items", corrected).Msg("Counter repair complete")
	return nil
}

func openDB(cfg *config.Config) (*database.DB, error) {
	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
