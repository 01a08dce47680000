// Package main is the entry point for the LinkDay admin CLI.
// This tool provides administrative commands for managing users and secrets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prn-tf/linkday/internal/app"
	"github.com/prn-tf/linkday/internal/config"
	"github.com/prn-tf/linkday/internal/pkg/crypto"
	"github.com/prn-tf/linkday/internal/repository"
	"github.com/prn-tf/linkday/internal/service"
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

	var err error
	switch command {
	case "version":
		fmt.Printf("LinkDay Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "secret":
		var secret string
		secret, err = crypto.GenerateJWTSecret()
		if err == nil {
			fmt.Println(secret)
		}

	case "user":
		err = userCommand(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func userCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("user requires a subcommand: list, activate, deactivate")
	}

	sub := args[0]
	fs := flag.NewFlagSet("user "+sub, flag.ContinueOnError)
	limit := fs.Int("limit", 50, "maximum number of users to list")
	username := fs.String("username", "", "username to act on")
	configPath := fs.String("config", os.Getenv("LINKDAY_CONFIG"), "path to config file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, closeAll, err := openUserService(ctx, *configPath)
	if err != nil {
		return err
	}
	defer closeAll()

	switch sub {
	case "list":
		list, err := users.List(ctx, repository.ListOptions{Limit: *limit})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tACTIVE\tCREATED")
		for _, u := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Email, u.IsActive, u.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()

	case "activate", "deactivate":
		if *username == "" {
			return fmt.Errorf("--username is required")
		}
		user, err := users.SetActiveByUsername(ctx, *username, sub == "activate")
		if err != nil {
			return err
		}
		state := "inactive"
		if user.IsActive {
			state = "active"
		}
		fmt.Printf("User %s is now %s\n", user.Username, state)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand %q", sub)
	}
}

// openUserService connects to the configured database and profile cache.
func openUserService(ctx context.Context, configPath string) (*service.UserService, func(), error) {
	cfg, err := config.LoadDatabase(configPath)
	if err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Logging
	logCfg.Output = "stderr"
	logger, logCloser, err := app.NewLogger(logCfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		logCloser.Close()
		return nil, nil, err
	}

	cache, err := app.OpenCache(ctx, cfg, logger)
	if err != nil {
		store.Database.Close()
		logCloser.Close()
		return nil, nil, err
	}

	profiles := service.NewProfileCache(cache, cfg.Cache.ProfileTTL, logger)
	users := service.NewUserService(store.Repos.User, store.Repos.Link, profiles, logger)

	return users, func() {
		if cache != nil {
			cache.Close()
		}
		store.Database.Close()
		logCloser.Close()
	}, nil
}

func printUsage() {
	fmt.Println(`LinkDay Admin CLI

Usage:
  linkday-admin <command> [arguments]

Commands:
  user list [--limit n]              List users
  user activate --username <name>    Re-enable an account
  user deactivate --username <name>  Disable login and hide the public profile
  secret                             Generate a random auth.jwt_secret
  version                            Print version information
  help                               Show this help message

Examples:
  linkday-admin user list --limit 20
  linkday-admin user deactivate --username spammer
  linkday-admin secret`)
}
