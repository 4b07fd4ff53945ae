package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/Someesvaar/Freelance-Hub/internal/config"
	"github.com/Someesvaar/Freelance-Hub/internal/db"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/migrate"
)

// Workspace is an opened Freelance Hub workspace: config, migrated database and engine.
type Workspace struct {
	Dir    string
	Config *config.Config
	DB     *sql.DB
	Engine engine.Engine
}

// Options tune how a workspace is opened.
type Options struct {
	// ConfigPath overrides <dir>/freelancehub.yml.
	ConfigPath    string
	BusyTimeoutMS int
}

// Open loads the workspace config (defaults when absent), opens the database
// and applies pending migrations.
func Open(ctx context.Context, dir string, opts Options) (*Workspace, error) {
	cfg, err := loadConfig(dir, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: dir, BusyTimeoutMS: opts.BusyTimeoutMS})
	if err != nil {
		return nil, err
	}
	if _, err := migrate.Apply(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Workspace{Dir: dir, Config: cfg, DB: conn, Engine: engine.New(conn, cfg)}, nil
}

func loadConfig(dir, override string) (*config.Config, error) {
	if override != "" {
		return config.FromFile(override)
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// Close releases the database.
func (w *Workspace) Close() error {
	if w == nil || w.DB == nil {
		return nil
	}
	return w.DB.Close()
}

// InitResult reports what Init created.
type InitResult struct {
	ConfigPath    string
	ConfigWritten bool
	DBPath        string
	SchemaVersion int
}

// Init writes the default config unless one exists (or force is set) and
// creates the migrated database.
func Init(ctx context.Context, dir string, force bool) (InitResult, error) {
	res := InitResult{ConfigPath: config.Path(dir), DBPath: db.Path(dir)}
	_, err := os.Stat(res.ConfigPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, err
	}
	if err != nil || force {
		if err := os.MkdirAll(dirOrDot(dir), 0o755); err != nil {
			return res, err
		}
		if err := os.WriteFile(res.ConfigPath, []byte(config.GenerateDefault()), 0o644); err != nil {
			return res, fmt.Errorf("write config: %w", err)
		}
		res.ConfigWritten = true
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return res, err
	}
	defer conn.Close()
	n, err := migrate.Apply(ctx, conn)
	if err != nil {
		return res, fmt.Errorf("migrate: %w", err)
	}
	res.SchemaVersion = n
	return res, nil
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
