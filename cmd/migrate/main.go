// Command migrate applies the leasing schema migrations to PostgreSQL.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/estate/backend/internal/infrastructure/config"
	"github.com/estate/backend/internal/infrastructure/logger"
	"github.com/estate/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type cli struct {
	dir  string // empty means the migrations embedded in the binary
	args []string
	log  *zap.Logger
}

func main() {
	dir := flag.String("path", "", "Migrations directory (default: migrations embedded in the binary)")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(config.LogConfig{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	c := &cli{args: flag.Args(), log: log}
	if *dir != "" {
		if c.dir, err = filepath.Abs(*dir); err != nil {
			log.Fatal("Invalid migrations path", zap.String("path", *dir), zap.Error(err))
		}
	}

	command := c.args[0]
	log.Info("Migration CLI started", zap.String("command", command), zap.String("source", c.source()))

	switch command {
	case "create":
		c.create()
	case "list":
		c.list()
	case "up", "down", "step", "version", "force":
		c.withMigrator(command)
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func (c *cli) source() string {
	if c.dir == "" {
		return "embedded"
	}
	return c.dir
}

// arg returns the positional argument after the command or exits with usage
func (c *cli) arg(usage string) string {
	if len(c.args) < 2 {
		c.log.Fatal("Missing argument", zap.String("usage", usage))
	}
	return c.args[1]
}

func (c *cli) intArg(usage string) int {
	raw := c.arg(usage)
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.log.Fatal("Argument is not an integer", zap.String("value", raw), zap.String("usage", usage))
	}
	return n
}

func (c *cli) create() {
	if c.dir == "" {
		c.log.Fatal("create writes files and needs -path")
	}
	mf, err := migration.CreateMigration(c.dir, c.arg("migrate -path <dir> create <name>"))
	if err != nil {
		c.log.Fatal("Failed to create migration", zap.Error(err))
	}
	c.log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
}

func (c *cli) list() {
	var (
		found []migration.Migration
		err   error
	)
	if c.dir == "" {
		found, err = migration.ListEmbedded()
	} else {
		found, err = migration.ListMigrations(c.dir)
	}
	if err != nil {
		c.log.Fatal("Failed to list migrations", zap.Error(err))
	}
	c.log.Info("Available migrations", zap.Int("count", len(found)))
	for _, m := range found {
		fmt.Println("  -", m)
	}
}

func (c *cli) open() *migration.Migrator {
	cfg, err := config.Load()
	if err != nil {
		c.log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		c.log.Fatal("SQL migrations target postgres only", zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		c.log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		c.log.Fatal("Database unreachable", zap.Error(err))
	}

	var m *migration.Migrator
	if c.dir == "" {
		m, err = migration.New(db, c.log)
	} else {
		m, err = migration.NewFromDir(db, c.dir, c.log)
	}
	if err != nil {
		c.log.Fatal("Failed to create migrator", zap.Error(err))
	}
	return m
}

func (c *cli) withMigrator(command string) {
	m := c.open()
	// closes the database as well
	defer func() {
		if err := m.Close(); err != nil {
			c.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	var err error
	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		err = m.Steps(c.intArg("migrate step <n>"))
	case "force":
		v := c.intArg("migrate force <version>")
		c.log.Warn("Forcing migration version", zap.Int("version", v))
		err = m.Force(v)
	case "version":
		var (
			v     uint
			dirty bool
		)
		if v, dirty, err = m.Version(); err == nil {
			c.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		}
	}
	if err != nil {
		c.log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func printUsage() {
	fmt.Println(`Estate Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  version               Show current migration version (0 means none applied)
  force <version>       Force set migration version (use with caution)
  create <name>         Create a new migration file pair (requires -path)
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded leasing migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  ESTATE_DATABASE_HOST, ESTATE_DATABASE_PORT, ESTATE_DATABASE_USER,
  ESTATE_DATABASE_PASSWORD, ESTATE_DATABASE_DBNAME, ESTATE_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate -path internal/infrastructure/migration/sql create add_viewing_slots`)
}
