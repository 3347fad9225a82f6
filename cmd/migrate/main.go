package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	"github.com/angelmondragon/literaryhaven-backend/pkg/migrate"
)

type options struct {
	dir     string
	fromDir bool
	name    string
	version string
}

func (o options) source() migrate.Source {
	if o.fromDir {
		return migrate.FromDir(o.dir)
	}
	return migrate.Embedded()
}

// fileCommands work on the migrations directory only.
var fileCommands = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

// dbCommands run against Postgres.
var dbCommands = map[string]func(context.Context, *sql.DB, options) error{
	"up": func(ctx context.Context, db *sql.DB, o options) error {
		return migrate.Run(ctx, db, "postgres", o.source(), "up")
	},
	"down": func(ctx context.Context, db *sql.DB, o options) error {
		return migrate.Run(ctx, db, "postgres", o.source(), "down")
	},
	"status": func(ctx context.Context, db *sql.DB, o options) error {
		return migrate.Run(ctx, db, "postgres", o.source(), "status")
	},
	"version": func(ctx context.Context, db *sql.DB, o options) error {
		if o.version == "" {
			return errors.New("missing -version for version")
		}
		return migrate.MigrateToVersion(ctx, db, o.source(), o.version)
	},
}

func commandNames() string {
	var names []string
	for name := range fileCommands {
		names = append(names, name)
	}
	for name := range dbCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func main() {
	var opts options
	cmd := flag.String("cmd", "up", "migration command: "+commandNames())
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory; db commands use the embedded set unless -dir is given")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "dir" {
			opts.fromDir = true
		}
	})

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		fail(context.Background(), logg, "failed to load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		Env:         cfg.App.Env,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "dir": opts.dir})

	if run, ok := fileCommands[*cmd]; ok {
		if err := run(opts); err != nil {
			fail(ctx, logg, "migrate "+*cmd+" failed", err)
		}
		return
	}
	run, ok := dbCommands[*cmd]
	if !ok {
		fail(ctx, logg, "unknown command", fmt.Errorf("-cmd must be one of %s", commandNames()))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "failed to connect to database", err)
	}
	defer dbClient.Close()

	if cfg.DB.IsSQLite() {
		if *cmd != "up" {
			fail(ctx, logg, "unsupported command", errors.New("sqlite databases only support -cmd=up"))
		}
		if err := migrate.AutoMigrate(ctx, dbClient.DB()); err != nil {
			fail(ctx, logg, "auto-migrate failed", err)
		}
		logg.Info(ctx, "migrate.auto_migrate_complete")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "failed to unwrap sql.DB", err)
	}
	if err := run(ctx, sqlDB, opts); err != nil {
		fail(ctx, logg, "migrate "+*cmd+" failed", err)
	}
	logg.Info(ctx, "migrate.complete")
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
