package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"contapos/internal/config"
	"contapos/internal/database"
	"contapos/internal/logger"
	"contapos/internal/migration"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	var (
		migrationsPath string
		skipGorm       bool
		seed           bool
	)
	flag.StringVar(&migrationsPath, "path", "migrations", "Path to the SQL migrations directory")
	flag.BoolVar(&skipGorm, "skip-automigrate", false, "Do not create tables with GORM before applying SQL migrations")
	flag.BoolVar(&seed, "seed", false, "Load reference data after migrating up")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		log.Fatal("failed to reach database", zap.Error(err))
	}

	m, err := migration.New(sqlDB, migrationsPath, log)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() { _ = m.Close() }()

	switch args[0] {
	case "up":
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
			Logger: logger.NewGormLogger(log, cfg.Database.LogLevel),
		})
		if err != nil {
			log.Fatal("failed to open gorm", zap.Error(err))
		}
		if !skipGorm {
			if err := database.AutoMigrate(db); err != nil {
				log.Fatal("auto-migrate failed", zap.Error(err))
			}
		}
		if err := m.Up(); err != nil {
			log.Fatal("migrate up failed", zap.Error(err))
		}
		if seed {
			if err := database.Seed(context.Background(), db, log); err != nil {
				log.Fatal("seed failed", zap.Error(err))
			}
		}
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil {
				log.Fatal("invalid step count", zap.String("arg", args[1]))
			}
		}
		if err := m.Down(steps); err != nil {
			log.Fatal("migrate down failed", zap.Error(err))
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("failed to read version", zap.Error(err))
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
	case "force":
		if len(args) < 2 {
			log.Fatal("force requires a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("invalid version", zap.String("arg", args[1]))
		}
		if err := m.Force(version); err != nil {
			log.Fatal("force failed", zap.Error(err))
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: migrate [flags] <command>

Commands:
  up            Create tables, then apply pending SQL migrations
  down [n]      Roll back n migrations (default 1, 0 = all)
  version       Print the current migration version
  force <v>     Set the version without running migrations

Flags:`)
	flag.PrintDefaults()
}
