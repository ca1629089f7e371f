package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/libport/internal/shared"
	"github.com/urfave/cli/v3"
)

// Configure loads an explicit --config file and applies the log level.
//
// A --config path that does not exist yet is remembered for `setup config`.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); cmd.IsSet("config") && path != r.configPath {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level := cmd.String("log-level")
	if level == "" {
		level = r.config.Log.Level
	}
	shared.SetLogLevel(r.logger, shared.ParseLevel(level))

	return ctx, nil
}

// SetupConfig writes the configuration template, refusing to overwrite an existing file unless --force is set.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			r.logger.Info("config file already exists", "path", path)
			r.writePlain("Config already exists at %s (use --force to overwrite)\n", path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	return nil
}

// SetupDatabase initializes the history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config.Database
	if path := cmd.String("path"); path != "" {
		config.Path = path
	}

	r.logger.Info("initializing database", "path", config.Path)

	db, err := shared.NewDatabase(config.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.MaxOpenConns, config.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back last migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("✓ Rolled back last migration\n")
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Path)
	r.writePlain("✓ Database ready at %s\n", config.Path)
	return nil
}
