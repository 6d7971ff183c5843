package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/matchpoll/backend/internal/entity"
	"github.com/matchpoll/backend/pkg/xcontext"
)

//go:embed mysql/*
var mysqlFS embed.FS

// MigrationsTempDir creates a temporary directory, populates it with the migration files, and
// returns the path to that directory. The binary can migrate a database without shipping the
// migration files separately.
//
// It is the caller's responsibility to remove the directory when it is no longer needed.
func MigrationsTempDir() (string, error) {
	tmpDir, err := os.MkdirTemp("", "migrations-*")
	if err != nil {
		return "", err
	}

	mFS, err := fs.Sub(mysqlFS, "mysql")
	if err != nil {
		return "", err
	}

	if err := fs.WalkDir(mFS, ".", func(path string, d fs.DirEntry, _ error) error {
		if d.IsDir() {
			return nil
		}

		content, err := fs.ReadFile(mFS, path)
		if err != nil {
			return err
		}

		return os.WriteFile(filepath.Join(tmpDir, path), content, 0600)
	}); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}

	return tmpDir, nil
}

type migrateLogger struct {
	ctx context.Context
}

func (l *migrateLogger) Printf(format string, v ...any) {
	xcontext.Logger(l.ctx).Infof(format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// Migrate applies the SQL migrations up to the latest version and seeds the default categories.
// Only MySQL has SQL migrations, other drivers are migrated by AutoMigrate.
func Migrate(ctx context.Context) error {
	cfg := xcontext.Configs(ctx).Database
	if cfg.Driver != "mysql" {
		return AutoMigrate(ctx)
	}

	m, closer, err := newMigrate(ctx)
	if err != nil {
		return err
	}
	defer closer()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return entity.SeedCategories(ctx)
}

// Rollback reverts the given number of SQL migrations.
func Rollback(ctx context.Context, steps int) error {
	m, closer, err := newMigrate(ctx)
	if err != nil {
		return err
	}
	defer closer()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func newMigrate(ctx context.Context) (*migrate.Migrate, func(), error) {
	cfg := xcontext.Configs(ctx).Database

	// Migration files hold several statements each.
	db, err := sql.Open("mysql", cfg.ConnectionString()+"&multiStatements=true")
	if err != nil {
		return nil, nil, err
	}

	dir, err := MigrationsTempDir()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	closer := func() {
		db.Close()
		os.RemoveAll(dir)
	}

	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		closer()
		return nil, nil, err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, cfg.Database, driver)
	if err != nil {
		closer()
		return nil, nil, err
	}
	m.Log = &migrateLogger{ctx: ctx}

	return m, closer, nil
}
