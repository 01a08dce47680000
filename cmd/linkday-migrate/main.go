// Package main is the entry point for the LinkDay database migration tool.
// This tool manages PostgreSQL schema migrations.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/prn-tf/linkday/internal/app"
	"github.com/prn-tf/linkday/internal/config"
	"github.com/prn-tf/linkday/internal/repository/postgres"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("LinkDay Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up", "down", "status", "force":
		if err := migrate(command, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func migrate(command string, args []string) error {
	cfg, err := config.LoadDatabase(os.Getenv("LINKDAY_CONFIG"))
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("database.driver is %q; the sqlite schema is applied by the server at startup", cfg.Database.Driver)
	}

	logger, logCloser, err := app.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	migrator, err := postgres.NewMigrator(cfg.Database.MigrateURL(), logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up":
		return migrator.Up()

	case "down":
		n := 1
		if len(args) > 0 {
			n, err = strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid step count %q", args[0])
			}
		}
		return migrator.Down(n)

	case "force":
		if len(args) < 1 {
			return fmt.Errorf("force requires a version")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		if err := migrator.Force(version); err != nil {
			return err
		}
		return printVersion(migrator, logger)

	default:
		return printVersion(migrator, logger)
	}
}

func printVersion(migrator *postgres.Migrator, logger zerolog.Logger) error {
	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Debug().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
	fmt.Printf("Version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func printUsage() {
	fmt.Println(`LinkDay Migration Tool

Usage:
  linkday-migrate <command> [arguments]

Commands:
  up          Run all pending migrations
  down [n]    Roll back the last n migrations (default 1)
  status      Show current schema version
  force <v>   Force set migration version (use with caution)
  version     Print version information
  help        Show this help message

Configuration is read like the server: config.yaml, .env and LINKDAY_*
environment variables. LINKDAY_CONFIG selects an explicit config file.

Examples:
  linkday-migrate up
  linkday-migrate down 2
  linkday-migrate status
  linkday-migrate force 1`)
}
