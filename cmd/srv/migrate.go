package main

import (
	"github.com/matchpoll/backend/migration"
	"github.com/matchpoll/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.loadConfig(cctx)
	s.loadLogger()
	s.loadDatabase()

	if steps := cctx.Int("rollback"); steps > 0 {
		if err := migration.Rollback(s.ctx, steps); err != nil {
			return err
		}

		xcontext.Logger(s.ctx).Infof("Rolled back %d migrations", steps)
		return nil
	}

	if err := migration.Migrate(s.ctx); err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Database is up to date")
	return nil
}
